package search

import (
	"context"
	"encoding/json"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seekmark/seekmark/internal/cache"
	"github.com/seekmark/seekmark/internal/model"
)

// CandidateResolver builds the set of (bookmark, vector shard, lexical row)
// triples a user can search. Both source lists sit behind the same short-TTL
// cache; expiry is the only invalidation, so recent writes may be invisible
// for up to the TTL window.
type CandidateResolver struct {
	lexical LexicalStore
	shards  ShardAssignmentStore
	cache   cache.Cache
}

func NewCandidateResolver(lexical LexicalStore, shards ShardAssignmentStore, c cache.Cache) *CandidateResolver {
	return &CandidateResolver{lexical: lexical, shards: shards, cache: c}
}

// Resolve merges the user's shard assignments and lexical rows by bookmark
// id. A bookmark present in only one list keeps the zero value for the other
// field. Either fetch failing degrades to an empty list rather than failing
// resolution.
func (r *CandidateResolver) Resolve(ctx context.Context, userID string) ([]model.CandidateItem, bool) {
	var (
		assignments []model.ShardAssignment
		rows        []model.LexicalRow
		degShards   bool
		degRows     bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		assignments, degShards = fetchCached(gctx, r.cache, "vs_shards:"+userID,
			func(ctx context.Context) ([]model.ShardAssignment, error) {
				return r.shards.GetUserVectorShards(ctx, userID)
			})
		return nil
	})
	g.Go(func() error {
		rows, degRows = fetchCached(gctx, r.cache, "fts_rows:"+userID,
			func(ctx context.Context) ([]model.LexicalRow, error) {
				return r.lexical.GetUserRowIDs(ctx, userID)
			})
		return nil
	})
	_ = g.Wait()

	byBookmark := make(map[int64]*model.CandidateItem, len(assignments)+len(rows))
	order := make([]int64, 0, len(assignments)+len(rows))
	for _, item := range assignments {
		byBookmark[item.BookmarkID] = &model.CandidateItem{
			BookmarkID: item.BookmarkID,
			ShardIndex: item.ShardIdx,
		}
		order = append(order, item.BookmarkID)
	}
	for _, row := range rows {
		if existing, ok := byBookmark[row.BookmarkID]; ok {
			existing.RowID = row.ID
			continue
		}
		byBookmark[row.BookmarkID] = &model.CandidateItem{
			BookmarkID: row.BookmarkID,
			RowID:      row.ID,
		}
		order = append(order, row.BookmarkID)
	}
	candidates := make([]model.CandidateItem, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byBookmark[id])
	}
	return candidates, degShards || degRows
}

// fetchCached reads one list through the TTL cache, falling back to the store
// and writing back on miss. A store failure yields an empty, degraded result.
func fetchCached[T any](ctx context.Context, c cache.Cache, key string, fetch func(context.Context) ([]T, error)) ([]T, bool) {
	if data, ok := c.Get(key); ok {
		var items []T
		if err := json.Unmarshal(data, &items); err == nil {
			return items, false
		}
	}
	items, err := fetch(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Warn("candidate list fetch failed, treating as empty",
			zap.String("key", key), zap.Error(err))
		return nil, true
	}
	if data, err := json.Marshal(items); err == nil {
		c.Put(key, data)
	}
	return items, false
}
