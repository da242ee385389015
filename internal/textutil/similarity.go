package textutil

import (
	"cmp"
	"slices"
)

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Match is one ranked similarity result.
type Match struct {
	ID    int64
	Score float64
}

// Rank scores every candidate against query, drops those below minScore,
// and returns at most limit matches ordered by descending score. Ties are
// broken by ascending ID. A non-positive limit returns every match.
func Rank(query *Fingerprint, candidates map[int64]*Fingerprint, minScore float64, limit int) []Match {
	if query == nil {
		return nil
	}
	matches := make([]Match, 0, len(candidates))
	for id, fp := range candidates {
		score := CosineSimilarity(query, fp)
		if score <= 0 || score < minScore {
			continue
		}
		matches = append(matches, Match{ID: id, Score: score})
	}
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
