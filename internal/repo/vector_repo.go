package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/seekmark/seekmark/internal/model"
	"github.com/seekmark/seekmark/internal/pkg/dbutil"
)

// VectorRepo stores semantic chunks across a fixed set of pgvector shard
// tables. Each bookmark lives entirely inside its assigned shard.
type VectorRepo struct {
	db         *sql.DB
	shardCount int
	dim        int
}

func NewVectorRepo(db *sql.DB, shardCount, dim int) *VectorRepo {
	return &VectorRepo{db: db, shardCount: shardCount, dim: dim}
}

func (r *VectorRepo) ShardCount() int {
	return r.shardCount
}

func (r *VectorRepo) table(shardIdx int) string {
	return fmt.Sprintf("bookmark_vectors_%d", shardIdx)
}

func (r *VectorRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return err
	}
	for i := 0; i < r.shardCount; i++ {
		stmt := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				chunk_id    TEXT PRIMARY KEY,
				bookmark_id BIGINT NOT NULL,
				user_id     TEXT NOT NULL,
				embedding   vector(%d) NOT NULL
			)`, r.table(i), r.dim)
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_bookmark_idx ON %s (bookmark_id)`,
			r.table(i), r.table(i))
		if _, err := r.db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (r *VectorRepo) Upsert(ctx context.Context, shardIdx int, userID string, bookmarkID int64, chunks []model.SemanticChunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, bookmark_id, user_id, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chunk_id) DO UPDATE SET
			embedding = EXCLUDED.embedding`, r.table(shardIdx))
	for _, chunk := range chunks {
		_, err := r.db.ExecContext(ctx, query,
			chunk.ID, bookmarkID, userID, pgvector.NewVector(chunk.Embedding))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *VectorRepo) DeleteByBookmarkID(ctx context.Context, shardIdx int, bookmarkID int64) error {
	sqlStr, args, err := builder.BuildDelete(r.table(shardIdx), map[string]interface{}{
		"bookmark_id": bookmarkID,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Query returns the shard's top-K chunks by cosine similarity, restricted to
// the given bookmark ids.
func (r *VectorRepo) Query(ctx context.Context, shardIdx int, vector []float32, topK int, bookmarkIDs []int64) ([]model.SemanticHit, error) {
	if len(bookmarkIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT chunk_id, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE bookmark_id = ANY($2)
		ORDER BY embedding <=> $1
		LIMIT $3`, r.table(shardIdx))
	rows, err := r.db.QueryContext(ctx, query,
		pgvector.NewVector(vector), pq.Array(bookmarkIDs), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := make([]model.SemanticHit, 0, topK)
	for rows.Next() {
		var hit model.SemanticHit
		if err := rows.Scan(&hit.ID, &hit.Score); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// DeleteUnassigned removes chunks whose bookmark no longer has a shard
// assignment. Run by the maintenance sweep.
func (r *VectorRepo) DeleteUnassigned(ctx context.Context, shardIdx int) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE bookmark_id NOT IN (SELECT bookmark_id FROM vector_shard_assignments)`,
		r.table(shardIdx))
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
