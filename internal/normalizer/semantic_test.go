package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 2},         // ceil(5/4)
		{"hi", 1},            // ceil(2/4)
		{"hello world", 5},   // 2 + space + 2
		{"中文", 2},            // one per CJK char
		{"abc123", 2},        // letter run + digit run
		{"😀", 2},             // emoji counts double
		{"a.b", 3},           // two single-letter runs, one punct
		{"混合 text", 4},       // 2 CJK + space + ceil(4/4)
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, EstimateTokens(tc.text), "text=%q", tc.text)
	}
}

func TestSemanticSplitPrefersSentenceBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkTokenBudget = 5
	n := New(fieldsTokenizer{}, cfg)

	chunks := n.SemanticSplit("one two. three four five six")
	require.Greater(t, len(chunks), 1)
	require.Equal(t, "one two.", chunks[0])
	for _, chunk := range chunks {
		require.LessOrEqual(t, EstimateTokens(chunk), cfg.ChunkTokenBudget)
	}
	require.Equal(t, "one two. three four five six", strings.Join(chunks, ""))
}

func TestSemanticSplitFallsBackToSoftBreak(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkTokenBudget = 7
	cfg.SentenceLookback = 100
	n := New(fieldsTokenizer{}, cfg)

	chunks := n.SemanticSplit("aa bb cc dd ee ff gg hh")
	require.Greater(t, len(chunks), 1)
	// Without sentence punctuation the cut lands after a space, never inside
	// a word.
	for _, chunk := range chunks[:len(chunks)-1] {
		require.True(t, strings.HasSuffix(chunk, " "), "chunk=%q", chunk)
	}
	require.Equal(t, "aa bb cc dd ee ff gg hh", strings.Join(chunks, ""))
}

func TestSemanticSplitUnderBudget(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	chunks := n.SemanticSplit("tiny text")
	require.Equal(t, []string{"tiny text"}, chunks)
}

func TestProcessSemanticNormalizes(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	chunks := n.ProcessSemantic("My\u200b Title", "  Some   CONTENT  ")
	require.Equal(t, []string{"my title some content"}, chunks)
}

func TestProcessSemanticEmpty(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	require.Nil(t, n.ProcessSemantic("", "   "))
}
