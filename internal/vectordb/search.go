package vectordb

import (
	"context"
	"time"
)

// Search runs a top-K cosine query against a snapshot of the committed
// state, then applies the dynamic relevance threshold. On a
// query-execution fault the index is recreated internally, the
// registered corruption callback fires, and an empty result is returned;
// Search itself never surfaces the fault.
func (s *Store) Search(ctx context.Context, q SearchQuery) []Match {
	// The read lock covers snapshot acquisition only; the snapshot is
	// independent of the lock once taken.
	s.mu.RLock()
	col := s.collection
	s.mu.RUnlock()

	if col == nil {
		return nil
	}

	limit := q.MaxResults
	if limit <= 0 {
		limit = 10
	}
	count := col.Count()
	if count == 0 {
		return nil
	}
	if limit > count {
		limit = count
	}

	results, err := col.QueryEmbedding(ctx, q.Vector, limit, nil, nil)
	if err != nil {
		s.logger.Error("vector query failed, recreating index", "error", err)
		if rerr := s.Recreate(); rerr != nil {
			s.logger.Error("index recovery failed", "error", rerr)
		}
		s.mu.RLock()
		notify := s.onCorruption
		s.mu.RUnlock()
		if notify != nil {
			notify()
		}
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = float64(r.Similarity)
	}
	// Results arrive ordered by decreasing similarity.
	threshold := dynamicThreshold(scores, q.MinScore, scores[0])

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if score <= threshold {
			continue
		}

		indexedAt, _ := time.Parse(time.RFC3339, r.Metadata[metaIndexedAt])
		matches = append(matches, Match{
			Score:     score,
			ID:        r.ID,
			Text:      r.Content,
			Metadata:  r.Metadata,
			IndexedAt: indexedAt,
		})
	}
	return matches
}

// dynamicThreshold computes the per-query relevance cutoff.
//
// Strategy: keep the top 30% of the [baseMinScore, maxScore] interval.
// When the score distribution is nearly flat (range < 0.1), which is
// common with syntactic or structural embeddings, fall back to a
// statistical cut of average - 0.05. baseMinScore is always the absolute
// floor.
func dynamicThreshold(scores []float64, baseMinScore, maxScore float64) float64 {
	scoreRange := maxScore - baseMinScore
	threshold := maxScore - 0.3*scoreRange

	if scoreRange < 0.1 {
		avg := baseMinScore
		if len(scores) > 0 {
			var sum float64
			for _, s := range scores {
				sum += s
			}
			avg = sum / float64(len(scores))
		}
		threshold = max(baseMinScore, avg-0.05)
	}

	return max(baseMinScore, threshold)
}
