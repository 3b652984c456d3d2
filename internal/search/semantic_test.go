package search

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seekmark/seekmark/internal/model"
)

func TestSemanticSearchBucketsByShard(t *testing.T) {
	vector := newFakeVector()
	s := NewSemanticSearcher(vector, 3, 30)
	candidates := []model.CandidateItem{
		{BookmarkID: 1, ShardIndex: 0},
		{BookmarkID: 2, ShardIndex: 1},
		{BookmarkID: 3, ShardIndex: 1},
		{BookmarkID: 4, ShardIndex: 7}, // out of range, ignored
	}

	_, degraded := s.Search(context.Background(), [][]float32{{1, 0}, {0, 1}}, candidates)
	require.False(t, degraded)
	// 2 populated shards x 2 embeddings.
	require.Len(t, vector.queries, 4)
	sort.Slice(vector.queries, func(i, j int) bool {
		return vector.queries[i].shardIdx < vector.queries[j].shardIdx
	})
	require.Equal(t, []int64{1}, vector.queries[0].ids)
	require.Equal(t, []int64{2, 3}, vector.queries[3].ids)
}

func TestSemanticSearchSortsByScore(t *testing.T) {
	vector := newFakeVector()
	vector.queryFn = func(shardIdx int, _ []float32, _ int, _ []int64) ([]model.SemanticHit, error) {
		if shardIdx == 0 {
			return []model.SemanticHit{{ID: "1_0", Score: 0.5}}, nil
		}
		return []model.SemanticHit{{ID: "2_0", Score: 0.9}}, nil
	}
	s := NewSemanticSearcher(vector, 2, 30)
	candidates := []model.CandidateItem{
		{BookmarkID: 1, ShardIndex: 0},
		{BookmarkID: 2, ShardIndex: 1},
	}

	hits, degraded := s.Search(context.Background(), [][]float32{{1}}, candidates)
	require.False(t, degraded)
	require.Equal(t, []model.SemanticHit{
		{ID: "2_0", Score: 0.9},
		{ID: "1_0", Score: 0.5},
	}, hits)
}

func TestSemanticSearchDegradesOnShardFailure(t *testing.T) {
	vector := newFakeVector()
	vector.queryFn = func(shardIdx int, _ []float32, _ int, _ []int64) ([]model.SemanticHit, error) {
		if shardIdx == 1 {
			return nil, errors.New("shard down")
		}
		return []model.SemanticHit{{ID: "1_0", Score: 0.6}}, nil
	}
	s := NewSemanticSearcher(vector, 2, 30)
	candidates := []model.CandidateItem{
		{BookmarkID: 1, ShardIndex: 0},
		{BookmarkID: 2, ShardIndex: 1},
	}

	hits, degraded := s.Search(context.Background(), [][]float32{{1}}, candidates)
	require.True(t, degraded)
	require.Len(t, hits, 1)
}

func TestSemanticSearchEmptyInputs(t *testing.T) {
	vector := newFakeVector()
	s := NewSemanticSearcher(vector, 2, 30)

	hits, degraded := s.Search(context.Background(), nil,
		[]model.CandidateItem{{BookmarkID: 1}})
	require.Nil(t, hits)
	require.False(t, degraded)

	hits, degraded = s.Search(context.Background(), [][]float32{{1}}, nil)
	require.Nil(t, hits)
	require.False(t, degraded)
	require.Empty(t, vector.queries)
}
