package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WrapLRUCacheToEmbedder memoizes per-text embeddings. Query texts repeat far
// more often than documents, so the wrapper sits on the search path only.
func WrapLRUCacheToEmbedder(e IEmbedder, size int, ttl time.Duration) IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := l.cache.Get(l.cacheKey(text)); ok {
			vectors[i] = cloneEmbedding(cached)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.Int("texts", len(texts)))
		return vectors, nil
	}
	fetched, err := l.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i, vec := range fetched {
		vectors[missingIdx[i]] = vec
		l.cache.Add(l.cacheKey(missing[i]), cloneEmbedding(vec))
	}
	return vectors, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func (l *lruEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(l.next.ModelName() + ":" + text))
	return hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
