package search

import (
	"context"
	"sort"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seekmark/seekmark/internal/model"
)

// SemanticSearcher queries every populated vector shard with every query
// embedding, all in parallel.
type SemanticSearcher struct {
	store      VectorStore
	shardCount int
	topK       int
}

func NewSemanticSearcher(store VectorStore, shardCount, topK int) *SemanticSearcher {
	return &SemanticSearcher{store: store, shardCount: shardCount, topK: topK}
}

// Search returns chunk hits sorted by similarity descending. A failed shard
// query flags the result as degraded without discarding the other shards.
func (s *SemanticSearcher) Search(ctx context.Context, embeddings [][]float32, candidates []model.CandidateItem) ([]model.SemanticHit, bool) {
	if len(embeddings) == 0 || len(candidates) == 0 {
		return nil, false
	}
	buckets := make([][]int64, s.shardCount)
	for _, c := range candidates {
		if c.ShardIndex < 0 || c.ShardIndex >= s.shardCount {
			continue
		}
		buckets[c.ShardIndex] = append(buckets[c.ShardIndex], c.BookmarkID)
	}

	var (
		mu       sync.Mutex
		hits     []model.SemanticHit
		degraded bool
	)
	g, gctx := errgroup.WithContext(ctx)
	for shardIdx, ids := range buckets {
		if len(ids) == 0 {
			continue
		}
		for _, emb := range embeddings {
			g.Go(func() error {
				shardHits, err := s.store.Query(gctx, shardIdx, emb, s.topK, ids)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logutil.GetLogger(gctx).Warn("vector shard query failed, dropping shard",
						zap.Int("shard_idx", shardIdx), zap.Error(err))
					degraded = true
					return nil
				}
				hits = append(hits, shardHits...)
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits, degraded
}
