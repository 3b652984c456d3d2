package normalizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seekmark/seekmark/internal/config"
)

// fieldsTokenizer splits on whitespace, close enough to a real segmenter for
// latin text and pre-segmented CJK fixtures.
type fieldsTokenizer struct{}

func (fieldsTokenizer) Segment(ctx context.Context, text string, enableModel bool) ([]string, error) {
	return strings.Fields(text), nil
}

// segmentsTokenizer returns a fixed segmentation regardless of input.
type segmentsTokenizer struct {
	segments []string
}

func (t segmentsTokenizer) Segment(ctx context.Context, text string, enableModel bool) ([]string, error) {
	return t.segments, nil
}

func testConfig() config.SearchConfig {
	return config.SearchConfig{
		ShardByteBudget:   2 * 1024 * 1024,
		ShardOverlapChars: 500,
		ChunkTokenBudget:  8096,
		SentenceLookback:  100,
		TitleNearWindow:   20,
		ContentNearWindow: 30,
	}
}

func TestNormalizeLowercasesAndStripsPunctuation(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.Normalize(context.Background(), "Hello, World! (Again)")
	require.NoError(t, err)
	require.Equal(t, "hello world again", out)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.Normalize(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestNormalizeEmitsCJKNGrams(t *testing.T) {
	n := New(segmentsTokenizer{segments: []string{"中文分词"}}, testConfig())
	out, err := n.Normalize(context.Background(), "中文分词")
	require.NoError(t, err)
	require.Equal(t,
		"中 文 分 词 中文 文分 分词 中文分 文分词 中文分词",
		out)
}

func TestNormalizeSkipsNGramsForShortCJK(t *testing.T) {
	n := New(segmentsTokenizer{segments: []string{"中文"}}, testConfig())
	out, err := n.Normalize(context.Background(), "中文")
	require.NoError(t, err)
	require.Equal(t, "中文", out)
}

func TestNormalizeSkipsNGramsWhenContainedInPrevious(t *testing.T) {
	n := New(segmentsTokenizer{segments: []string{"数据库", "数据库"}}, testConfig())
	out, err := n.Normalize(context.Background(), "数据库数据库")
	require.NoError(t, err)
	// The first occurrence expands to n-grams, the repeat does not.
	require.Equal(t,
		"数 据 库 数据 据库 数据库 数据库 数据库",
		out)
}

func TestNormalizeNoNGramsForLatin(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.Normalize(context.Background(), "database systems")
	require.NoError(t, err)
	require.Equal(t, "database systems", out)
}
