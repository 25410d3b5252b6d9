package embedding

import (
	"context"
	"fmt"
)

// RerankCandidate is the materialized form of a search result handed to the
// reranker: "<title>\n<content>\nTags: <tags joined by comma>".
type RerankCandidate struct {
	Text  string
	Index int
}

// RerankMatch is one scored result returned by the reranker, referencing
// its original candidate index.
type RerankMatch struct {
	Index int
	Score float32
}

// Reranker is the external cross-encoder collaborator: given a query and a
// set of candidate texts, it returns scored indices, not necessarily in
// input order and not necessarily covering every candidate.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string) ([]RerankMatch, error)
}

// RerankerConfig carries the reranker's tunable knobs.
type RerankerConfig struct {
	Enabled         bool
	Model           string
	TopKCandidates  int
	FinalTopK       int
}

// DefaultRerankerConfig mirrors the reference defaults: disabled, 50
// candidates considered, 10 returned.
func DefaultRerankerConfig() RerankerConfig {
	return RerankerConfig{Enabled: false, TopKCandidates: 50, FinalTopK: 10}
}

// MakeCandidateText builds the exact string handed to the reranker for one
// result: "<title>\n<content>\nTags: <tags joined by comma>".
func MakeCandidateText(title, content string, tags []string) string {
	joined := ""
	for i, t := range tags {
		if i > 0 {
			joined += ","
		}
		joined += t
	}
	return fmt.Sprintf("%s\n%s\nTags: %s", title, content, joined)
}

// Rerank applies cfg to the reranker over candidates, which must be in the
// same order as the scores slice it narrows. If the reranker is disabled or
// there are no candidates, it passes results through unchanged (by index,
// in input order, scored by their existing relevance).
//
// scores[i] is narrowed from float64 to float32 on overwrite, matching the
// source's "overwrite relevance_score (narrowed from double to single
// precision)".
func Rerank(ctx context.Context, reranker Reranker, cfg RerankerConfig, query string, candidates []string, currentScores []float64) ([]RerankMatch, error) {
	if !cfg.Enabled || reranker == nil || len(candidates) == 0 {
		matches := make([]RerankMatch, len(candidates))
		for i := range candidates {
			matches[i] = RerankMatch{Index: i, Score: float32(currentScores[i])}
		}
		return matches, nil
	}

	topK := cfg.TopKCandidates
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	narrowed := candidates[:topK]

	matches, err := reranker.Rerank(ctx, query, narrowed)
	if err != nil {
		return nil, wrap("rerank", fmt.Errorf("%w: %v", ErrRerankFailed, err))
	}

	finalK := cfg.FinalTopK
	if finalK <= 0 || finalK > len(matches) {
		finalK = len(matches)
	}
	return matches[:finalK], nil
}
