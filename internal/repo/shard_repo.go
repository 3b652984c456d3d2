package repo

import (
	"context"
	"database/sql"
	"math/rand/v2"

	"github.com/didi/gendry/builder"

	"github.com/seekmark/seekmark/internal/model"
	"github.com/seekmark/seekmark/internal/pkg/dbutil"
)

const shardAssignmentSchema = `
CREATE TABLE IF NOT EXISTS vector_shard_assignments (
	bookmark_id BIGINT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	shard_idx   INT NOT NULL
);
CREATE INDEX IF NOT EXISTS vector_shard_assignments_user_idx
	ON vector_shard_assignments (user_id);
`

// ShardRepo pins each bookmark to one vector shard. Assignment is random but
// sticky: once assigned, a bookmark keeps its shard for life.
type ShardRepo struct {
	db         *sql.DB
	shardCount int
}

func NewShardRepo(db *sql.DB, shardCount int) *ShardRepo {
	return &ShardRepo{db: db, shardCount: shardCount}
}

func (r *ShardRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, shardAssignmentSchema)
	return err
}

func (r *ShardRepo) GetUserVectorShards(ctx context.Context, userID string) ([]model.ShardAssignment, error) {
	sqlStr, args, err := builder.BuildSelect("vector_shard_assignments",
		map[string]interface{}{"user_id": userID},
		[]string{"bookmark_id", "shard_idx"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.ShardAssignment, 0)
	for rows.Next() {
		var item model.ShardAssignment
		if err := rows.Scan(&item.BookmarkID, &item.ShardIdx); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// AssignShard returns the bookmark's shard, picking a random one on first
// contact. Concurrent first assignments collapse to a single winner through
// the primary-key conflict.
func (r *ShardRepo) AssignShard(ctx context.Context, userID string, bookmarkID int64) (int, error) {
	if idx, ok, err := r.GetAssignment(ctx, bookmarkID); err != nil {
		return 0, err
	} else if ok {
		return idx, nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vector_shard_assignments (bookmark_id, user_id, shard_idx)
		VALUES ($1, $2, $3)
		ON CONFLICT (bookmark_id) DO NOTHING`,
		bookmarkID, userID, rand.IntN(r.shardCount))
	if err != nil {
		return 0, err
	}
	idx, _, err := r.GetAssignment(ctx, bookmarkID)
	return idx, err
}

func (r *ShardRepo) GetAssignment(ctx context.Context, bookmarkID int64) (int, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT shard_idx FROM vector_shard_assignments WHERE bookmark_id = $1`, bookmarkID)
	var idx int
	if err := row.Scan(&idx); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return idx, true, nil
}

func (r *ShardRepo) DeleteAssignment(ctx context.Context, bookmarkID int64) error {
	sqlStr, args, err := builder.BuildDelete("vector_shard_assignments",
		map[string]interface{}{"bookmark_id": bookmarkID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
