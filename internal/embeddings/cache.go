package embeddings

import (
	"context"
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds the number of cached vectors. Query texts repeat often
// during a chat session; file contents during ingestion do not, but the
// LRU keeps the memory footprint flat either way.
const cacheSize = 1024

// CachingEmbedder wraps an Embedder with an LRU cache keyed by the
// SHA-256 of the text, so repeated queries skip the embedding service.
type CachingEmbedder struct {
	inner Embedder
	cache *lru.Cache[[32]byte, []float32]
}

// NewCachingEmbedder wraps inner with an LRU vector cache.
func NewCachingEmbedder(inner Embedder) *CachingEmbedder {
	cache, err := lru.New[[32]byte, []float32](cacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &CachingEmbedder{inner: inner, cache: cache}
}

func (c *CachingEmbedder) Name() string {
	return c.inner.Name()
}

func (c *CachingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

func (c *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(sha256.Sum256([]byte(text))); ok {
			results[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	fresh, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range fresh {
		i := missingIdx[j]
		results[i] = vec
		c.cache.Add(sha256.Sum256([]byte(texts[i])), vec)
	}
	return results, nil
}
