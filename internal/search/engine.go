package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seekmark/seekmark/internal/ai"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/model"
	"github.com/seekmark/seekmark/internal/normalizer"
	apperrors "github.com/seekmark/seekmark/internal/pkg/errors"
)

// Degraded stage names reported by SearchDetailed.
const (
	StageCandidates = "candidates"
	StageLexical    = "lexical"
	StageSemantic   = "semantic"
	StageRerank     = "rerank"
)

// Deps carries everything the engine needs. All collaborators are required
// except Reranker.
type Deps struct {
	Normalizer *normalizer.Normalizer
	Embedder   ai.IEmbedder
	Reranker   ai.IReranker
	Lexical    LexicalStore
	Vector     VectorStore
	Shards     ShardAssignmentStore
	Resolver   *CandidateResolver
	Config     config.SearchConfig
}

// Engine ties indexing and retrieval together: lexical shards in the FTS
// store, semantic chunks in the vector shards, and a fused ranking on the way
// out.
type Engine struct {
	norm     *normalizer.Normalizer
	embedder ai.IEmbedder
	lexical  LexicalStore
	vector   VectorStore
	shards   ShardAssignmentStore
	resolver *CandidateResolver
	lexSrch  *LexicalSearcher
	semSrch  *SemanticSearcher
	fuser    *Fuser
	cfg      config.SearchConfig
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		norm:     deps.Normalizer,
		embedder: deps.Embedder,
		lexical:  deps.Lexical,
		vector:   deps.Vector,
		shards:   deps.Shards,
		resolver: deps.Resolver,
		lexSrch:  NewLexicalSearcher(deps.Lexical, deps.Config.LexicalGroupSize),
		semSrch:  NewSemanticSearcher(deps.Vector, deps.Config.VectorShardCount, deps.Config.VectorTopK),
		fuser: NewFuser(deps.Lexical, deps.Reranker, deps.Config.SemanticThreshold,
			deps.Config.RRFConstant, deps.Config.LexicalGroupSize),
		cfg: deps.Config,
	}
}

// IndexDocument (re)builds both indexes for one bookmark. Normalization or
// embedding failures degrade to indexing nothing on that side; store errors
// abort.
func (e *Engine) IndexDocument(ctx context.Context, userID string, bookmarkID int64, title, content string) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("user_id", userID), zap.Int64("bookmark_id", bookmarkID))
	if bookmarkID <= 0 {
		return fmt.Errorf("bookmark id must be positive: %w", apperrors.ErrInvalid)
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return fmt.Errorf("bookmark %d has no indexable text: %w", bookmarkID, apperrors.ErrNotFound)
	}
	if e.cfg.MarkdownContent {
		content = normalizer.ExtractPlainText(content)
	}

	shards, err := e.norm.SplitAndProcess(ctx, bookmarkID, title, content)
	if err != nil {
		logger.Warn("lexical normalization failed, indexing no shards", zap.Error(err))
		shards = nil
	}
	chunks := e.buildChunks(ctx, bookmarkID, title, content)

	if err := e.lexical.ReplaceShards(ctx, userID, bookmarkID, shards); err != nil {
		return fmt.Errorf("replace lexical shards: %w", err)
	}
	shardIdx, err := e.shards.AssignShard(ctx, userID, bookmarkID)
	if err != nil {
		return fmt.Errorf("assign vector shard: %w", err)
	}
	if err := e.vector.DeleteByBookmarkID(ctx, shardIdx, bookmarkID); err != nil {
		return fmt.Errorf("clear vector chunks: %w", err)
	}
	if len(chunks) > 0 {
		if err := e.vector.Upsert(ctx, shardIdx, userID, bookmarkID, chunks); err != nil {
			return fmt.Errorf("upsert vector chunks: %w", err)
		}
	}
	logger.Info("document indexed",
		zap.Int("lexical_shards", len(shards)),
		zap.Int("semantic_chunks", len(chunks)),
		zap.Int("vector_shard", shardIdx))
	return nil
}

func (e *Engine) buildChunks(ctx context.Context, bookmarkID int64, title, content string) []model.SemanticChunk {
	texts := e.norm.ProcessSemantic(title, content)
	if len(texts) == 0 {
		return nil
	}
	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding failed, indexing no chunks",
			zap.Int64("bookmark_id", bookmarkID), zap.Error(err))
		return nil
	}
	if len(embeddings) != len(texts) {
		logutil.GetLogger(ctx).Warn("embedding count mismatch, indexing no chunks",
			zap.Int64("bookmark_id", bookmarkID),
			zap.Int("texts", len(texts)), zap.Int("embeddings", len(embeddings)))
		return nil
	}
	chunks := make([]model.SemanticChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, model.SemanticChunk{
			ID:        fmt.Sprintf("%d_%d", bookmarkID, i),
			Text:      text,
			Embedding: embeddings[i],
		})
	}
	return chunks
}

// RemoveDocument drops a bookmark from every index.
func (e *Engine) RemoveDocument(ctx context.Context, userID string, bookmarkID int64) error {
	if err := e.lexical.DeleteShards(ctx, bookmarkID); err != nil {
		return fmt.Errorf("delete lexical shards: %w", err)
	}
	shardIdx, ok, err := e.shards.GetAssignment(ctx, bookmarkID)
	if err != nil {
		return fmt.Errorf("lookup vector shard: %w", err)
	}
	if ok {
		if err := e.vector.DeleteByBookmarkID(ctx, shardIdx, bookmarkID); err != nil {
			return fmt.Errorf("delete vector chunks: %w", err)
		}
		if err := e.shards.DeleteAssignment(ctx, bookmarkID); err != nil {
			return fmt.Errorf("delete shard assignment: %w", err)
		}
	}
	logutil.GetLogger(ctx).Info("document removed",
		zap.String("user_id", userID), zap.Int64("bookmark_id", bookmarkID))
	return nil
}

// Search runs the full hybrid pipeline and returns ranked results.
func (e *Engine) Search(ctx context.Context, userID, keyword string, extraQueryTexts []string) ([]model.RankedResult, error) {
	results, _, err := e.SearchDetailed(ctx, userID, keyword, extraQueryTexts)
	return results, err
}

// SearchDetailed additionally reports which pipeline stages degraded. A
// degraded stage contributed nothing (or only partially) to the result; the
// search itself still succeeds.
func (e *Engine) SearchDetailed(ctx context.Context, userID, keyword string, extraQueryTexts []string) ([]model.RankedResult, []string, error) {
	queryTexts := collectQueryTexts(keyword, extraQueryTexts)
	if len(queryTexts) == 0 {
		return nil, nil, nil
	}
	degraded := make([]string, 0, 4)

	candidates, deg := e.resolver.Resolve(ctx, userID)
	if deg {
		degraded = append(degraded, StageCandidates)
	}
	if len(candidates) == 0 {
		return nil, degraded, nil
	}

	var (
		lexHits []model.LexicalHit
		semHits []model.SemanticHit
		lexDeg  bool
		semDeg  bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		match, err := e.norm.ProcessSearchKeyword(gctx, keyword)
		if err != nil {
			logutil.GetLogger(gctx).Warn("keyword processing failed, skipping lexical search", zap.Error(err))
			lexDeg = true
			return nil
		}
		lexHits, lexDeg = e.lexSrch.Search(gctx, match, candidates)
		return nil
	})
	g.Go(func() error {
		embeddings, err := e.embedQueries(gctx, queryTexts)
		if err != nil {
			logutil.GetLogger(gctx).Warn("query embedding failed, skipping semantic search", zap.Error(err))
			semDeg = true
			return nil
		}
		semHits, semDeg = e.semSrch.Search(gctx, embeddings, candidates)
		return nil
	})
	_ = g.Wait()
	if lexDeg {
		degraded = append(degraded, StageLexical)
	}
	if semDeg {
		degraded = append(degraded, StageSemantic)
	}

	records := e.fuser.Fuse(ctx, lexHits, semHits)
	records, rerankDeg := e.fuser.Rerank(ctx, keyword, records)
	if rerankDeg {
		degraded = append(degraded, StageRerank)
	}

	results := make([]model.RankedResult, 0, len(records))
	for _, rec := range records {
		results = append(results, model.RankedResult{
			BookmarkID:       rec.BookmarkID,
			HighlightTitle:   rec.HighlightTitle,
			HighlightContent: rec.HighlightContent,
			Kind:             rec.Kind,
			FinalScore:       rec.FinalScore,
		})
	}
	return results, degraded, nil
}

// embedQueries turns each query text into one or more embeddings, splitting
// oversized texts at the semantic chunk budget first.
func (e *Engine) embedQueries(ctx context.Context, queryTexts []string) ([][]float32, error) {
	chunks := make([]string, 0, len(queryTexts))
	for _, text := range queryTexts {
		chunks = append(chunks, e.norm.ProcessSemantic("", text)...)
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	return e.embedder.EmbedBatch(ctx, chunks)
}

func collectQueryTexts(keyword string, extras []string) []string {
	texts := make([]string, 0, 1+len(extras))
	if strings.TrimSpace(keyword) != "" {
		texts = append(texts, keyword)
	}
	for _, extra := range extras {
		if strings.TrimSpace(extra) != "" {
			texts = append(texts, extra)
		}
	}
	return texts
}
