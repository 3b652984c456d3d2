package normalizer

import (
	"strings"
	"unicode"
)

var zeroWidthReplacer = strings.NewReplacer(
	"\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "",
)

// ProcessSemantic prepares "{title} {content}" for embedding: lowercase,
// collapse whitespace, strip zero-width characters, then split into chunks
// whose estimated token count fits the chunk budget.
func (n *Normalizer) ProcessSemantic(title, content string) []string {
	text := strings.ToLower(title + " " + content)
	text = zeroWidthReplacer.Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return n.SemanticSplit(text)
}

// SemanticSplit recursively halves text that exceeds the token budget,
// preferring a sentence boundary within the lookback window, then a
// space/comma/colon, then the exact midpoint.
func (n *Normalizer) SemanticSplit(text string) []string {
	if EstimateTokens(text) <= n.cfg.ChunkTokenBudget {
		return []string{text}
	}
	runes := []rune(text)
	if len(runes) < 2 {
		return []string{text}
	}
	cut := n.findCut(runes)
	return append(n.SemanticSplit(string(runes[:cut])), n.SemanticSplit(string(runes[cut:]))...)
}

func (n *Normalizer) findCut(runes []rune) int {
	mid := len(runes) / 2
	low := mid - n.cfg.SentenceLookback
	if low < 1 {
		low = 1
	}
	for i := mid - 1; i >= low; i-- {
		if isSentenceEnd(runes[i]) {
			return i + 1
		}
	}
	for i := mid - 1; i >= low; i-- {
		if isSoftBreak(runes[i]) {
			return i + 1
		}
	}
	return mid
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isSoftBreak(r rune) bool {
	switch r {
	case ' ', ',', ':', '，', '：', '、', '；', ';':
		return true
	}
	return false
}

// EstimateTokens is a deterministic token-count heuristic: CJK characters
// count 1 each, Latin words and digit runs count ceil(len/4), emoji count 2,
// everything else counts 1.
func EstimateTokens(text string) int {
	total := 0
	runLen := 0
	runDigits := false
	flush := func() {
		if runLen > 0 {
			total += (runLen + 3) / 4
			runLen = 0
		}
	}
	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			total++
		case unicode.IsDigit(r):
			if runLen > 0 && !runDigits {
				flush()
			}
			runDigits = true
			runLen++
		case unicode.IsLetter(r):
			if runLen > 0 && runDigits {
				flush()
			}
			runDigits = false
			runLen++
		case isEmoji(r):
			flush()
			total += 2
		default:
			flush()
			total++
		}
	}
	flush()
	return total
}

func isEmoji(r rune) bool {
	return (r >= 0x1F300 && r <= 0x1FAFF) ||
		(r >= 0x2600 && r <= 0x27BF) ||
		(r >= 0x1F000 && r <= 0x1F2FF)
}
