package normalizer

import (
	"context"
	"strings"
	"unicode"

	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/tokenizer"
)

// Normalizer converts raw bookmark text into index-ready forms: a normalized
// lexical token stream, byte-bounded shards, and token-budgeted semantic
// chunks.
type Normalizer struct {
	tk  tokenizer.Tokenizer
	cfg config.SearchConfig
}

func New(tk tokenizer.Tokenizer, cfg config.SearchConfig) *Normalizer {
	return &Normalizer{tk: tk, cfg: cfg}
}

// Normalize segments text in search mode and rebuilds it as a space-joined
// token stream. CJK segments of length >= 3 that are not a substring of the
// preceding segment additionally emit their 1/2/3-char n-grams before the
// segment itself, so the index also matches on raw character sequences when
// segmentation is ambiguous.
func (n *Normalizer) Normalize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	segments, err := n.tk.Segment(ctx, text, true)
	if err != nil {
		return "", err
	}
	out := make([]string, 0, len(segments))
	prev := ""
	for _, seg := range segments {
		cleaned := cleanSegment(seg)
		if cleaned == "" {
			continue
		}
		runes := []rune(cleaned)
		if len(runes) >= 3 && containsCJK(runes) && (prev == "" || !strings.Contains(prev, cleaned)) {
			out = append(out, charNGrams(runes)...)
		}
		out = append(out, cleaned)
		prev = cleaned
	}
	return strings.Join(out, " "), nil
}

func cleanSegment(seg string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(seg) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// charNGrams emits every contiguous run of 1, 2 and 3 characters.
func charNGrams(runes []rune) []string {
	grams := make([]string, 0, 3*len(runes))
	for size := 1; size <= 3; size++ {
		for i := 0; i+size <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+size]))
		}
	}
	return grams
}

func containsCJK(runes []rune) bool {
	for _, r := range runes {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
