package search

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seekmark/seekmark/internal/ai"
	"github.com/seekmark/seekmark/internal/model"
)

// Fuser merges the lexical and semantic result streams into one ranked list.
type Fuser struct {
	lexical           LexicalStore
	reranker          ai.IReranker
	semanticThreshold float32
	rrfK              int
	groupSize         int
}

func NewFuser(lexical LexicalStore, reranker ai.IReranker, semanticThreshold float32, rrfK, groupSize int) *Fuser {
	return &Fuser{
		lexical:           lexical,
		reranker:          reranker,
		semanticThreshold: semanticThreshold,
		rrfK:              rrfK,
		groupSize:         groupSize,
	}
}

// Fuse builds one record per distinct bookmark, scores the set with
// reciprocal rank fusion and returns it sorted best-first.
func (f *Fuser) Fuse(ctx context.Context, lexHits []model.LexicalHit, semHits []model.SemanticHit) []model.FusionRecord {
	byBookmark := make(map[int64]*model.FusionRecord, len(lexHits)+len(semHits))
	order := make([]int64, 0, len(lexHits)+len(semHits))

	// Lexical hits arrive best-first; the first shard of a bookmark wins.
	for _, hit := range lexHits {
		if _, ok := byBookmark[hit.BookmarkID]; ok {
			continue
		}
		byBookmark[hit.BookmarkID] = &model.FusionRecord{
			BookmarkID:       hit.BookmarkID,
			FTSScore:         hit.Score,
			Title:            hit.RawTitle,
			Content:          hit.RawContent,
			HighlightTitle:   hit.TitleSnippet,
			HighlightContent: hit.ContentSnippet,
			Kind:             model.MatchKindFTS,
		}
		order = append(order, hit.BookmarkID)
	}

	// Fold in semantic chunk hits above the threshold. A bookmark seen on
	// both sides becomes a hybrid match; repeated chunks keep the best score.
	needRaw := make([]int64, 0)
	for _, hit := range semHits {
		if hit.Score <= f.semanticThreshold {
			continue
		}
		bookmarkID, ok := parseChunkBookmarkID(hit.ID)
		if !ok {
			logutil.GetLogger(ctx).Warn("skipping malformed chunk id", zap.String("chunk_id", hit.ID))
			continue
		}
		rec, exists := byBookmark[bookmarkID]
		if !exists {
			rec = &model.FusionRecord{
				BookmarkID: bookmarkID,
				VSScore:    hit.Score,
				Kind:       model.MatchKindVector,
			}
			byBookmark[bookmarkID] = rec
			order = append(order, bookmarkID)
			needRaw = append(needRaw, bookmarkID)
			continue
		}
		if hit.Score > rec.VSScore {
			rec.VSScore = hit.Score
		}
		if rec.Kind == model.MatchKindFTS {
			rec.Kind = model.MatchKindHybrid
		}
	}

	f.backfillRaw(ctx, byBookmark, needRaw)

	// Highlight mapping runs only where lexical snippets exist; vector-only
	// records keep their raw text untouched.
	for _, id := range order {
		rec := byBookmark[id]
		if rec.Kind == model.MatchKindVector {
			continue
		}
		rec.HighlightTitle = MapHighlight(rec.Title, rec.HighlightTitle)
		rec.HighlightContent = MapHighlight(rec.Content, rec.HighlightContent)
	}

	records := make([]model.FusionRecord, 0, len(order))
	for _, id := range order {
		records = append(records, *byBookmark[id])
	}
	applyRRF(records, f.rrfK)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinalScore > records[j].FinalScore
	})
	return records
}

// Rerank rescores the fused list with the external reranker, preserving the
// fusion order when reranking is disabled or fails. Records the reranker
// leaves out are dropped.
func (f *Fuser) Rerank(ctx context.Context, keyword string, records []model.FusionRecord) ([]model.FusionRecord, bool) {
	if f.reranker == nil || !f.reranker.IsEnabled() || len(records) == 0 {
		return records, false
	}
	docs := make([]string, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec.HighlightTitle+"\n"+rec.HighlightContent)
	}
	results, err := f.reranker.Rerank(ctx, keyword, docs)
	if err != nil {
		logutil.GetLogger(ctx).Warn("rerank failed, keeping fusion order", zap.Error(err))
		return records, true
	}
	reranked := make([]model.FusionRecord, 0, len(results))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(records) {
			continue
		}
		rec := records[res.Index]
		rec.FinalScore = res.Score
		reranked = append(reranked, rec)
	}
	return reranked, false
}

// backfillRaw fetches title/content for vector-only records in fixed-size
// groups. A failed group leaves its records with empty text rather than
// failing the search.
func (f *Fuser) backfillRaw(ctx context.Context, byBookmark map[int64]*model.FusionRecord, ids []int64) {
	if len(ids) == 0 {
		return
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += f.groupSize {
		end := start + f.groupSize
		if end > len(ids) {
			end = len(ids)
		}
		group := ids[start:end]
		g.Go(func() error {
			docs, err := f.lexical.GetRawByBookmarkIDs(gctx, group)
			if err != nil {
				logutil.GetLogger(gctx).Warn("raw document backfill failed for group",
					zap.Int("group_size", len(group)), zap.Error(err))
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, doc := range docs {
				rec, ok := byBookmark[doc.BookmarkID]
				if !ok {
					continue
				}
				rec.Title = doc.RawTitle
				rec.Content = doc.RawContent
				rec.HighlightTitle = doc.RawTitle
				rec.HighlightContent = doc.RawContent
			}
			return nil
		})
	}
	_ = g.Wait()
}

// applyRRF assigns each record 1/(k+rank) per retrieval side it appears on.
// A record absent from a side takes the worst possible rank, the total record
// count, so single-source matches are penalized but not zeroed.
func applyRRF(records []model.FusionRecord, k int) {
	total := len(records)

	vsOrder := make([]int, 0, total)
	ftsOrder := make([]int, 0, total)
	for i, rec := range records {
		if rec.VSScore > 0 {
			vsOrder = append(vsOrder, i)
		}
		if rec.FTSScore != 0 {
			ftsOrder = append(ftsOrder, i)
		}
	}
	sort.SliceStable(vsOrder, func(a, b int) bool {
		return records[vsOrder[a]].VSScore > records[vsOrder[b]].VSScore
	})
	sort.SliceStable(ftsOrder, func(a, b int) bool {
		return math.Abs(records[ftsOrder[a]].FTSScore) > math.Abs(records[ftsOrder[b]].FTSScore)
	})

	vsRank := make(map[int]int, len(vsOrder))
	for rank, idx := range vsOrder {
		vsRank[idx] = rank + 1
	}
	ftsRank := make(map[int]int, len(ftsOrder))
	for rank, idx := range ftsOrder {
		ftsRank[idx] = rank + 1
	}

	for i := range records {
		rv, ok := vsRank[i]
		if !ok {
			rv = total
		}
		rf, ok := ftsRank[i]
		if !ok {
			rf = total
		}
		records[i].FinalScore = 1/float64(k+rv) + 1/float64(k+rf)
	}
}

// parseChunkBookmarkID extracts the bookmark id from a "<bookmarkID>_<idx>"
// chunk id.
func parseChunkBookmarkID(chunkID string) (int64, bool) {
	sep := strings.Index(chunkID, "_")
	if sep <= 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(chunkID[:sep], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
