package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessSearchKeywordSingleTerm(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.ProcessSearchKeyword(context.Background(), "golang")
	require.NoError(t, err)
	require.Equal(t,
		`(title : NEAR("golang", 20)) OR (content : NEAR("golang", 30))`,
		out)
}

func TestProcessSearchKeywordMultiTerm(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.ProcessSearchKeyword(context.Background(), "golang tutorial basics")
	require.NoError(t, err)
	require.Equal(t,
		`(title : NEAR("golang", 20) AND (title : "tutorial" OR title : "basics")) OR `+
			`(content : NEAR("golang", 30) AND (content : "tutorial" OR content : "basics"))`,
		out)
}

func TestProcessSearchKeywordMultiTokenTerm(t *testing.T) {
	n := New(segmentsTokenizer{segments: []string{"数据", "库"}}, testConfig())
	out, err := n.ProcessSearchKeyword(context.Background(), "数据库")
	require.NoError(t, err)
	require.Equal(t,
		`(title : NEAR("数据" "库", 20)) OR (content : NEAR("数据" "库", 30))`,
		out)
}

func TestProcessSearchKeywordStripsOperators(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.ProcessSearchKeyword(context.Background(), `golang AND "injection*`)
	require.NoError(t, err)
	// Quotes and stars are stripped before segmentation, so nothing the user
	// types can reach the FTS parser as syntax.
	require.NotContains(t, out, `"*`)
	require.Contains(t, out, `NEAR("golang", 20)`)
}

func TestProcessSearchKeywordEmpty(t *testing.T) {
	n := New(fieldsTokenizer{}, testConfig())
	out, err := n.ProcessSearchKeyword(context.Background(), "!!! ???")
	require.NoError(t, err)
	require.Equal(t, "", out)
}
