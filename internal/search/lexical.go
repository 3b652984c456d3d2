package search

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seekmark/seekmark/internal/model"
)

// LexicalSearcher fans one MATCH expression out over the candidate rowids in
// fixed-size groups, one BM25 query per group.
type LexicalSearcher struct {
	store     LexicalStore
	groupSize int
}

func NewLexicalSearcher(store LexicalStore, groupSize int) *LexicalSearcher {
	return &LexicalSearcher{store: store, groupSize: groupSize}
}

// Search returns hits sorted best-first (most negative BM25 score first). A
// failed group is dropped and flags the result as degraded; the remaining
// groups still count.
func (s *LexicalSearcher) Search(ctx context.Context, match string, candidates []model.CandidateItem) ([]model.LexicalHit, bool) {
	if match == "" || len(candidates) == 0 {
		return nil, false
	}
	rowIDs := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		if c.RowID > 0 {
			rowIDs = append(rowIDs, c.RowID)
		}
	}
	if len(rowIDs) == 0 {
		return nil, false
	}

	var (
		mu       sync.Mutex
		hits     []model.LexicalHit
		degraded bool
	)
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(rowIDs); start += s.groupSize {
		end := start + s.groupSize
		if end > len(rowIDs) {
			end = len(rowIDs)
		}
		group := rowIDs[start:end]
		g.Go(func() error {
			groupHits, err := s.store.BM25Search(gctx, group, match)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logutil.GetLogger(gctx).Warn("bm25 group query failed, dropping group",
					zap.Int("group_size", len(group)), zap.Error(err))
				degraded = true
				return nil
			}
			hits = append(hits, groupHits...)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(hits, func(i, j int) bool {
		return math.Abs(hits[i].Score) > math.Abs(hits[j].Score)
	})
	return hits, degraded
}
