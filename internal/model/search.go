package model

// MatchKind tells which retrieval side produced a fusion record.
type MatchKind string

const (
	MatchKindFTS    MatchKind = "fts"
	MatchKindVector MatchKind = "vector"
	MatchKindHybrid MatchKind = "hybrid"
)

// CandidateItem is one searchable bookmark of a user. A bookmark present in
// only one store keeps the zero value for the other store's field.
type CandidateItem struct {
	BookmarkID int64 `json:"bookmark_id"`
	ShardIndex int   `json:"shard_index"`
	RowID      int64 `json:"row_id"`
}

// LexicalHit is one BM25 match. Score follows the FTS5 convention: more
// negative is a better match.
type LexicalHit struct {
	BookmarkID     int64   `json:"bookmark_id"`
	Score          float64 `json:"score"`
	ContentSnippet string  `json:"content_snippet"`
	TitleSnippet   string  `json:"title_snippet"`
	RawContent     string  `json:"raw_content"`
	RawTitle       string  `json:"raw_title"`
}

// SemanticHit is one vector match; ID is "<bookmarkId>_<chunkIndex>" and
// Score is cosine similarity in [0,1].
type SemanticHit struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}

// FusionRecord is the per-bookmark merge of both hit lists.
type FusionRecord struct {
	BookmarkID       int64     `json:"bookmark_id"`
	VSScore          float32   `json:"vs_score"`
	FTSScore         float64   `json:"fts_score"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	HighlightTitle   string    `json:"highlight_title"`
	HighlightContent string    `json:"highlight_content"`
	Kind             MatchKind `json:"kind"`
	FinalScore       float64   `json:"final_score"`
}

// RankedResult is what Search returns to callers.
type RankedResult struct {
	BookmarkID       int64     `json:"bookmark_id"`
	HighlightTitle   string    `json:"highlight_title"`
	HighlightContent string    `json:"highlight_content"`
	Kind             MatchKind `json:"kind"`
	FinalScore       float64   `json:"final_score"`
}
