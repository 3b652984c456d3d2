package normalizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAndProcessSingleShard(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	shards, err := n.SplitAndProcess(context.Background(), 7, "My Title", "short content")
	require.NoError(t, err)
	require.Len(t, shards, 1)
	require.Equal(t, int64(7), shards[0].BookmarkID)
	require.Equal(t, 0, shards[0].ShardIdx)
	require.Equal(t, "my title", shards[0].Title)
	require.Equal(t, "short content", shards[0].Content)
	require.Equal(t, "My Title", shards[0].RawTitle)
	require.Equal(t, "short content", shards[0].RawContent)
}

func TestSplitAndProcessRespectsBudget(t *testing.T) {
	cfg := testConfig()
	cfg.ShardByteBudget = 24
	cfg.ShardOverlapChars = 4
	n := New(fieldsTokenizer{}, cfg)

	content := strings.Repeat("alpha beta gamma delta ", 4)
	shards, err := n.SplitAndProcess(context.Background(), 1, "t", content)
	require.NoError(t, err)
	require.Greater(t, len(shards), 1)
	for i, shard := range shards {
		require.Equal(t, i, shard.ShardIdx)
		require.LessOrEqual(t, len(shard.Content), cfg.ShardByteBudget)
		require.Equal(t, "t", shard.Title)
		require.Equal(t, "t", shard.RawTitle)
	}
}

func TestSplitAndProcessOverlapCarriesBoundaryText(t *testing.T) {
	cfg := testConfig()
	cfg.ShardByteBudget = 10
	cfg.ShardOverlapChars = 4
	n := New(fieldsTokenizer{}, cfg)

	shards, err := n.SplitAndProcess(context.Background(), 1, "", "abcdefghij klmnopqrst")
	require.NoError(t, err)
	require.Greater(t, len(shards), 1)
	// The left shard's raw text extends past the midpoint cut, so the two
	// raw slices overlap.
	first := shards[0].RawContent
	second := shards[1].RawContent
	overlap := first[len(first)-cfg.ShardOverlapChars:]
	require.True(t, strings.HasPrefix(second, overlap) || strings.Contains(second, overlap))
}

func TestSplitAndProcessTerminatesOnHugeOverlap(t *testing.T) {
	cfg := testConfig()
	cfg.ShardByteBudget = 4
	cfg.ShardOverlapChars = 1000
	n := New(fieldsTokenizer{}, cfg)

	shards, err := n.SplitAndProcess(context.Background(), 1, "", "abcdefghij")
	require.NoError(t, err)
	require.NotEmpty(t, shards)
	for i, shard := range shards {
		require.Equal(t, i, shard.ShardIdx)
	}
}
