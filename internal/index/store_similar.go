package index

import (
	"context"
	"errors"
	"fmt"

	"promptindex/internal/textutil"
)

// ErrNoPrompt is returned by Similar when the reference entry has no
// resolved prompt to compare.
var ErrNoPrompt = errors.New("record has no resolved prompt")

// SimilarEntry is an entry ranked by prompt similarity.
type SimilarEntry struct {
	Entry *Entry
	Score float64
}

// Similar ranks the entries whose prompts are closest to the prompt of the
// entry with the given id. Prompts are compared as TF-IDF weighted token
// vectors built over every indexed prompt, so terms shared by the whole
// library carry no weight. The reference entry is never part of the result.
func (s *Store) Similar(ctx context.Context, id int64, minScore float64, limit int) ([]SimilarEntry, error) {
	prompts, err := s.Prompts(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := prompts[id]; !ok {
		return nil, fmt.Errorf("%w (id %d)", ErrNoPrompt, id)
	}

	corpus := textutil.NewCorpus()
	fingerprints := make(map[int64]*textutil.Fingerprint, len(prompts))
	for entryID, prompt := range prompts {
		fp := textutil.NewFingerprint(prompt)
		if fp == nil {
			continue
		}
		corpus.Add(fp)
		fingerprints[entryID] = fp
	}
	idf := corpus.IDF()

	query := fingerprints[id].WithIDF(idf)
	if query == nil {
		return nil, nil
	}
	delete(fingerprints, id)

	candidates := make(map[int64]*textutil.Fingerprint, len(fingerprints))
	for entryID, fp := range fingerprints {
		if weighted := fp.WithIDF(idf); weighted != nil {
			candidates[entryID] = weighted
		}
	}

	matches := textutil.Rank(query, candidates, minScore, limit)
	results := make([]SimilarEntry, 0, len(matches))
	for _, match := range matches {
		entry, err := s.GetByID(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		results = append(results, SimilarEntry{Entry: entry, Score: match.Score})
	}
	return results, nil
}
