package normalizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// ProcessSearchKeyword builds a structured FTS query from a free-text
// keyword. The first term becomes a required NEAR proximity clause; the
// remaining terms become OR'd exact phrases. Title and content variants are
// OR'd together. Returns "" when nothing searchable remains; callers must
// treat that as "no lexical query".
func (n *Normalizer) ProcessSearchKeyword(ctx context.Context, keyword string) (string, error) {
	cleaned := nonWordRe.ReplaceAllString(keyword, " ")
	var groups [][]string
	for _, term := range strings.Fields(cleaned) {
		segs, err := n.tk.Segment(ctx, term, true)
		if err != nil {
			return "", err
		}
		var toks []string
		for _, s := range segs {
			if s = strings.TrimSpace(s); s != "" {
				toks = append(toks, s)
			}
		}
		if len(toks) > 0 {
			groups = append(groups, toks)
		}
	}
	if len(groups) == 0 {
		return "", nil
	}
	titleExpr := buildColumnQuery("title", groups, n.cfg.TitleNearWindow)
	contentExpr := buildColumnQuery("content", groups, n.cfg.ContentNearWindow)
	return "(" + titleExpr + ") OR (" + contentExpr + ")", nil
}

func buildColumnQuery(column string, groups [][]string, window int) string {
	var sb strings.Builder
	sb.WriteString(column)
	sb.WriteString(" : NEAR(")
	for i, tok := range groups[0] {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(quoteToken(tok))
	}
	fmt.Fprintf(&sb, ", %d)", window)
	if len(groups) > 1 {
		sb.WriteString(" AND (")
		for i, group := range groups[1:] {
			if i > 0 {
				sb.WriteString(" OR ")
			}
			sb.WriteString(column)
			sb.WriteString(" : ")
			sb.WriteString(quoteToken(strings.Join(group, " ")))
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func quoteToken(tok string) string {
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}
