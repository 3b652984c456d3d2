package search

import (
	"context"
	"strings"
	"sync"

	"github.com/seekmark/seekmark/internal/ai"
	"github.com/seekmark/seekmark/internal/model"
)

type fakeLexical struct {
	mu          sync.Mutex
	rows        []model.LexicalRow
	rowsErr     error
	rowsCalls   int
	searchFn    func(rowIDs []int64, match string) ([]model.LexicalHit, error)
	searchCalls [][]int64
	raw         map[int64]model.RawDocument
	rawErr      error
	replaced    map[int64][]model.LexicalShard
	deleted     []int64
}

func newFakeLexical() *fakeLexical {
	return &fakeLexical{
		raw:      make(map[int64]model.RawDocument),
		replaced: make(map[int64][]model.LexicalShard),
	}
}

func (f *fakeLexical) ReplaceShards(ctx context.Context, userID string, bookmarkID int64, shards []model.LexicalShard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced[bookmarkID] = shards
	return nil
}

func (f *fakeLexical) DeleteShards(ctx context.Context, bookmarkID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, bookmarkID)
	return nil
}

func (f *fakeLexical) GetRawByBookmarkIDs(ctx context.Context, ids []int64) ([]model.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rawErr != nil {
		return nil, f.rawErr
	}
	docs := make([]model.RawDocument, 0, len(ids))
	for _, id := range ids {
		if doc, ok := f.raw[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (f *fakeLexical) BM25Search(ctx context.Context, rowIDs []int64, match string) ([]model.LexicalHit, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, append([]int64(nil), rowIDs...))
	f.mu.Unlock()
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(rowIDs, match)
}

func (f *fakeLexical) GetUserRowIDs(ctx context.Context, userID string) ([]model.LexicalRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowsCalls++
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	return f.rows, nil
}

type vectorQuery struct {
	shardIdx int
	ids      []int64
}

type fakeVector struct {
	mu       sync.Mutex
	queryFn  func(shardIdx int, vector []float32, topK int, ids []int64) ([]model.SemanticHit, error)
	queries  []vectorQuery
	upserts  map[int64][]model.SemanticChunk
	upShards map[int64]int
	deleted  []int64
}

func newFakeVector() *fakeVector {
	return &fakeVector{
		upserts:  make(map[int64][]model.SemanticChunk),
		upShards: make(map[int64]int),
	}
}

func (f *fakeVector) Upsert(ctx context.Context, shardIdx int, userID string, bookmarkID int64, chunks []model.SemanticChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[bookmarkID] = chunks
	f.upShards[bookmarkID] = shardIdx
	return nil
}

func (f *fakeVector) DeleteByBookmarkID(ctx context.Context, shardIdx int, bookmarkID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, bookmarkID)
	return nil
}

func (f *fakeVector) Query(ctx context.Context, shardIdx int, vector []float32, topK int, bookmarkIDs []int64) ([]model.SemanticHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, vectorQuery{shardIdx: shardIdx, ids: append([]int64(nil), bookmarkIDs...)})
	f.mu.Unlock()
	if f.queryFn == nil {
		return nil, nil
	}
	return f.queryFn(shardIdx, vector, topK, bookmarkIDs)
}

type fakeShards struct {
	mu          sync.Mutex
	assignments map[int64]int
	userShards  []model.ShardAssignment
	shardsErr   error
	shardsCalls int
	nextShard   int
}

func newFakeShards() *fakeShards {
	return &fakeShards{assignments: make(map[int64]int)}
}

func (f *fakeShards) GetUserVectorShards(ctx context.Context, userID string) ([]model.ShardAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shardsCalls++
	if f.shardsErr != nil {
		return nil, f.shardsErr
	}
	return f.userShards, nil
}

func (f *fakeShards) AssignShard(ctx context.Context, userID string, bookmarkID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx, ok := f.assignments[bookmarkID]; ok {
		return idx, nil
	}
	f.assignments[bookmarkID] = f.nextShard
	return f.nextShard, nil
}

func (f *fakeShards) GetAssignment(ctx context.Context, bookmarkID int64) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.assignments[bookmarkID]
	return idx, ok, nil
}

func (f *fakeShards) DeleteAssignment(ctx context.Context, bookmarkID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assignments, bookmarkID)
	return nil
}

type fakeEmbedder struct {
	fn func(texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fn == nil {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}
	return f.fn(texts)
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-embed"
}

type fakeReranker struct {
	enabled bool
	fn      func(query string, documents []string) ([]ai.RerankResult, error)
}

func (f *fakeReranker) IsEnabled() bool {
	return f.enabled
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string) ([]ai.RerankResult, error) {
	return f.fn(query, documents)
}

// fieldsTokenizer splits on whitespace so engine tests can run the real
// normalizer without a segmentation service.
type fieldsTokenizer struct{}

func (fieldsTokenizer) Segment(ctx context.Context, text string, enableModel bool) ([]string, error) {
	return strings.Fields(text), nil
}
