package pipeline

import (
	"context"
	"hash/fnv"
	"io"
	"log/slog"
	"math"
	"strings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// hashEmbedder produces deterministic token-hash vectors so texts that
// share words land close together in the vector space.
type hashEmbedder struct {
	dims int
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dims: 64}
}

func (m *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.vector(text)
	}
	return results, nil
}

func (m *hashEmbedder) Dimensions() int { return m.dims }
func (m *hashEmbedder) Name() string    { return "hash" }

func (m *hashEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dims)
	for _, token := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%m.dims] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
