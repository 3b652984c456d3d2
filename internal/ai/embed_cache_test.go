package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls [][]string
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (e *countingEmbedder) ModelName() string {
	return "test-model"
}

func TestLRUEmbedderCachesResults(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLRUCacheToEmbedder(next, 16, time.Minute)

	first, err := e.EmbedBatch(context.Background(), []string{"hello"})
	require.NoError(t, err)
	second, err := e.EmbedBatch(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, next.calls, 1)
}

func TestLRUEmbedderFetchesOnlyMisses(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLRUCacheToEmbedder(next, 16, time.Minute)

	_, err := e.EmbedBatch(context.Background(), []string{"aa"})
	require.NoError(t, err)

	out, err := e.EmbedBatch(context.Background(), []string{"aa", "bbb"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{2}, {3}}, out)
	require.Len(t, next.calls, 2)
	require.Equal(t, []string{"bbb"}, next.calls[1])
}

func TestLRUEmbedderReturnsCopies(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLRUCacheToEmbedder(next, 16, time.Minute)

	first, err := e.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err)
	first[0][0] = 999

	second, err := e.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0][0])
}

func TestWrapLRUCacheDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Equal(t, IEmbedder(next), WrapLRUCacheToEmbedder(next, 0, time.Minute))
	require.Equal(t, IEmbedder(next), WrapLRUCacheToEmbedder(next, 16, 0))
}
