package model

// LexicalShard is one byte-bounded partition of a bookmark's content. Content
// holds the normalized index text, RawContent the matching slice of the
// original text. Adjacent shards overlap by a fixed character window.
type LexicalShard struct {
	BookmarkID int64  `json:"bookmark_id"`
	ShardIdx   int    `json:"shard_idx"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	RawTitle   string `json:"raw_title"`
	RawContent string `json:"raw_content"`
}

// SemanticChunk is one token-budgeted slice of a bookmark's text, ready for
// embedding. ID is assigned as "<bookmarkId>_<index>" once the owner is known.
type SemanticChunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// LexicalRow maps an FTS rowid to its owning bookmark.
type LexicalRow struct {
	ID         int64 `json:"id"`
	BookmarkID int64 `json:"bookmark_id"`
}

// RawDocument is the unnormalized title/content of one bookmark, used to
// backfill vector-only results.
type RawDocument struct {
	BookmarkID int64  `json:"bookmark_id"`
	RawTitle   string `json:"raw_title"`
	RawContent string `json:"raw_content"`
}

// ShardAssignment pins a bookmark to one of the vector index shards.
type ShardAssignment struct {
	BookmarkID int64 `json:"bookmark_id"`
	ShardIdx   int   `json:"shard_idx"`
}
