package search

import (
	"context"

	"github.com/seekmark/seekmark/internal/model"
)

// LexicalStore is the BM25 index. Scores returned by BM25Search follow the
// negative-is-better convention.
type LexicalStore interface {
	ReplaceShards(ctx context.Context, userID string, bookmarkID int64, shards []model.LexicalShard) error
	DeleteShards(ctx context.Context, bookmarkID int64) error
	GetRawByBookmarkIDs(ctx context.Context, ids []int64) ([]model.RawDocument, error)
	BM25Search(ctx context.Context, rowIDs []int64, match string) ([]model.LexicalHit, error)
	GetUserRowIDs(ctx context.Context, userID string) ([]model.LexicalRow, error)
}

// VectorStore is a set of independent vector shard indexes.
type VectorStore interface {
	Upsert(ctx context.Context, shardIdx int, userID string, bookmarkID int64, chunks []model.SemanticChunk) error
	DeleteByBookmarkID(ctx context.Context, shardIdx int, bookmarkID int64) error
	Query(ctx context.Context, shardIdx int, vector []float32, topK int, bookmarkIDs []int64) ([]model.SemanticHit, error)
}

// ShardAssignmentStore pins bookmarks to vector shards.
type ShardAssignmentStore interface {
	GetUserVectorShards(ctx context.Context, userID string) ([]model.ShardAssignment, error)
	AssignShard(ctx context.Context, userID string, bookmarkID int64) (int, error)
	GetAssignment(ctx context.Context, bookmarkID int64) (int, bool, error)
	DeleteAssignment(ctx context.Context, bookmarkID int64) error
}
