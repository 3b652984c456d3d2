package search

import (
	"strings"
	"unicode"
)

const (
	snippetOpenTag  = "[highlight]"
	snippetCloseTag = "[/highlight]"
	markOpenTag     = "<mark>"
	markCloseTag    = "</mark>"

	// minHighlightWindow is the shortest excerpt returned around a match;
	// windowStride is the scan step when hunting for the densest window.
	minHighlightWindow = 60
	windowStride       = 5
)

// span is a half-open rune range [start, end) inside the original text.
type span struct {
	start int
	end   int
}

// MapHighlight transfers snippet markers from the normalized FTS snippet back
// onto the original text. The snippet was produced over normalized tokens, so
// marker positions cannot be reused directly; instead the marked tokens are
// located in the original by case-insensitive scan and re-wrapped in <mark>
// tags around the densest region.
func MapHighlight(originalText, processedText string) string {
	if strings.Contains(originalText, markOpenTag) {
		return originalText
	}
	orig := []rune(originalText)
	tokens := extractMarkedTokens(processedText)
	if len(tokens) == 0 {
		return leadingExcerpt(orig)
	}
	merged := mergeSpans(findOccurrences(orig, tokens))
	if len(merged) == 0 {
		return leadingExcerpt(orig)
	}

	window := minHighlightWindow
	for _, sp := range merged {
		if l := sp.end - sp.start; l > window {
			window = l
		}
	}
	if len(orig) <= window {
		return wrapSpans(orig, merged, 0, len(orig))
	}

	// Slide the window over the text and keep the position covering the most
	// marked runes.
	bestPos := -1
	bestCovered := 0
	for pos := 0; pos+window <= len(orig); pos += windowStride {
		covered := 0
		for _, sp := range merged {
			if sp.start >= pos && sp.end <= pos+window {
				covered += sp.end - sp.start
			}
		}
		if covered > bestCovered {
			bestCovered = covered
			bestPos = pos
		}
	}
	if bestPos < 0 {
		// The stride skipped over every range; center a minimum window on the
		// first one instead.
		center := (merged[0].start + merged[0].end) / 2
		start := center - minHighlightWindow/2
		if start < 0 {
			start = 0
		}
		end := start + minHighlightWindow
		if end > len(orig) {
			end = len(orig)
		}
		return wrapSpans(orig, merged, start, end)
	}

	var first span
	for _, sp := range merged {
		if sp.start >= bestPos && sp.end <= bestPos+window {
			first = sp
			break
		}
	}
	// Symmetric context around the first contained range, clamped at the text
	// boundaries.
	halo := (minHighlightWindow - (first.end - first.start)) / 2
	if halo < 0 {
		halo = 0
	}
	start := first.start - halo
	if start < 0 {
		start = 0
	}
	end := first.end + halo
	if end > len(orig) {
		end = len(orig)
	}
	return wrapSpans(orig, merged, start, end)
}

func leadingExcerpt(orig []rune) string {
	if len(orig) > minHighlightWindow {
		return string(orig[:minHighlightWindow])
	}
	return string(orig)
}

// extractMarkedTokens pulls the text between each [highlight]...[/highlight]
// pair out of the snippet.
func extractMarkedTokens(processedText string) []string {
	tokens := make([]string, 0, 4)
	rest := processedText
	for {
		open := strings.Index(rest, snippetOpenTag)
		if open < 0 {
			break
		}
		rest = rest[open+len(snippetOpenTag):]
		clos := strings.Index(rest, snippetCloseTag)
		if clos < 0 {
			break
		}
		if token := rest[:clos]; token != "" {
			tokens = append(tokens, token)
		}
		rest = rest[clos+len(snippetCloseTag):]
	}
	return tokens
}

// findOccurrences locates every case-insensitive occurrence of each token in
// the original text. Lowercasing is done rune-by-rune so offsets stay aligned.
func findOccurrences(orig []rune, tokens []string) []span {
	lower := make([]rune, len(orig))
	for i, r := range orig {
		lower[i] = unicode.ToLower(r)
	}
	spans := make([]span, 0, len(tokens))
	for _, token := range tokens {
		needle := []rune(strings.Map(unicode.ToLower, token))
		if len(needle) == 0 {
			continue
		}
		for i := 0; i+len(needle) <= len(lower); i++ {
			match := true
			for j, r := range needle {
				if lower[i+j] != r {
					match = false
					break
				}
			}
			if match {
				spans = append(spans, span{start: i, end: i + len(needle)})
			}
		}
	}
	return spans
}

// mergeSpans sorts by start and collapses overlapping or adjacent ranges.
func mergeSpans(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].start < sorted[j-1].start; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	merged := sorted[:1]
	for _, sp := range sorted[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// wrapSpans renders orig[start:end] with <mark> tags around every span that
// intersects the window, clipping spans at the window edges.
func wrapSpans(orig []rune, spans []span, start, end int) string {
	var b strings.Builder
	pos := start
	for _, sp := range spans {
		if sp.end <= start || sp.start >= end {
			continue
		}
		s, e := sp.start, sp.end
		if s < start {
			s = start
		}
		if e > end {
			e = end
		}
		if s > pos {
			b.WriteString(string(orig[pos:s]))
		}
		b.WriteString(markOpenTag)
		b.WriteString(string(orig[s:e]))
		b.WriteString(markCloseTag)
		pos = e
	}
	if pos < end {
		b.WriteString(string(orig[pos:end]))
	}
	return b.String()
}
