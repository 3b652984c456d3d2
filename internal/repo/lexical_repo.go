package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/seekmark/seekmark/internal/model"
	"github.com/seekmark/seekmark/internal/pkg/dbutil"
)

const lexicalSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS bookmarks_fts USING fts5(
	title,
	content,
	bookmark_id UNINDEXED,
	user_id UNINDEXED,
	shard_idx UNINDEXED,
	raw_title UNINDEXED,
	raw_content UNINDEXED,
	tokenize='unicode61'
);
`

// LexicalRepo stores normalized bookmark shards in an FTS5 table. BM25 scores
// follow the FTS5 convention: more negative is a better match.
type LexicalRepo struct {
	db                 *sql.DB
	contentSnippetSize int
	titleSnippetSize   int
}

func NewLexicalRepo(db *sql.DB, contentSnippetSize, titleSnippetSize int) *LexicalRepo {
	return &LexicalRepo{
		db:                 db,
		contentSnippetSize: contentSnippetSize,
		titleSnippetSize:   titleSnippetSize,
	}
}

func (r *LexicalRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, lexicalSchema)
	return err
}

// ReplaceShards drops every shard of the bookmark and inserts the fresh set.
func (r *LexicalRepo) ReplaceShards(ctx context.Context, userID string, bookmarkID int64, shards []model.LexicalShard) error {
	if err := r.DeleteShards(ctx, bookmarkID); err != nil {
		return err
	}
	if len(shards) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(shards))
	for _, shard := range shards {
		rows = append(rows, map[string]interface{}{
			"title":       shard.Title,
			"content":     shard.Content,
			"bookmark_id": shard.BookmarkID,
			"user_id":     userID,
			"shard_idx":   shard.ShardIdx,
			"raw_title":   shard.RawTitle,
			"raw_content": shard.RawContent,
		})
	}
	sqlStr, args, err := builder.BuildInsert("bookmarks_fts", rows)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *LexicalRepo) DeleteShards(ctx context.Context, bookmarkID int64) error {
	sqlStr, args, err := builder.BuildDelete("bookmarks_fts", map[string]interface{}{
		"bookmark_id": bookmarkID,
	})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetUserRowIDs lists every FTS rowid owned by the user, with the owning
// bookmark id. Feeds the candidate resolver.
func (r *LexicalRepo) GetUserRowIDs(ctx context.Context, userID string) ([]model.LexicalRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rowid, bookmark_id FROM bookmarks_fts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.LexicalRow, 0)
	for rows.Next() {
		var row model.LexicalRow
		if err := rows.Scan(&row.ID, &row.BookmarkID); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetRawByBookmarkIDs fetches the unnormalized title/content of each
// bookmark, taken from its first shard.
func (r *LexicalRepo) GetRawByBookmarkIDs(ctx context.Context, ids []int64) ([]model.RawDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"shard_idx":      0,
		"bookmark_id in": ids,
	}
	sqlStr, args, err := builder.BuildSelect("bookmarks_fts", where,
		[]string{"bookmark_id", "raw_title", "raw_content"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.RawDocument, 0, len(ids))
	for rows.Next() {
		var doc model.RawDocument
		if err := rows.Scan(&doc.BookmarkID, &doc.RawTitle, &doc.RawContent); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// BM25Search runs one MATCH query restricted to the given rowids. The rowid
// list doubles as a pre-filter: with at most a group's worth of ids the query
// planner stays on the rowid lookup path instead of scanning the index.
func (r *LexicalRepo) BM25Search(ctx context.Context, rowIDs []int64, match string) ([]model.LexicalHit, error) {
	if len(rowIDs) == 0 || match == "" {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT bookmark_id, bm25(bookmarks_fts) AS score,
			snippet(bookmarks_fts, 1, '[highlight]', '[/highlight]', '...', %d) AS content_snippet,
			snippet(bookmarks_fts, 0, '[highlight]', '[/highlight]', '...', %d) AS title_snippet,
			raw_content, raw_title
		FROM bookmarks_fts
		WHERE rowid IN (%s) AND bookmarks_fts MATCH ?
		ORDER BY bm25(bookmarks_fts)`,
		r.contentSnippetSize, r.titleSnippetSize, dbutil.In(len(rowIDs)))
	args := make([]interface{}, 0, len(rowIDs)+1)
	for _, id := range rowIDs {
		args = append(args, id)
	}
	args = append(args, match)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := make([]model.LexicalHit, 0)
	for rows.Next() {
		var hit model.LexicalHit
		if err := rows.Scan(&hit.BookmarkID, &hit.Score, &hit.ContentSnippet,
			&hit.TitleSnippet, &hit.RawContent, &hit.RawTitle); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
