package store

import (
	"context"
	"testing"

	"github.com/octobrain-ai/octobrain/pkg/embedding"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// reverseReranker returns candidates in reverse input order with
// descending scores, so its effect on result order is unambiguous.
type reverseReranker struct{}

func (reverseReranker) Rerank(ctx context.Context, query string, candidates []string) ([]embedding.RerankMatch, error) {
	matches := make([]embedding.RerankMatch, len(candidates))
	for i := range candidates {
		matches[i] = embedding.RerankMatch{
			Index: len(candidates) - 1 - i,
			Score: float32(len(candidates) - i),
		}
	}
	return matches, nil
}

func TestSearchAppliesRerankerWhenConfigured(t *testing.T) {
	s := newTestStore(t)
	s.cfg.Reranker = reverseReranker{}
	s.cfg.RerankerCfg = embedding.RerankerConfig{Enabled: true, TopKCandidates: 10, FinalTopK: 10}
	ctx := context.Background()

	first := memory.New(memory.TypeInsight, "alpha widgets", "alpha widgets are great", nil)
	second := memory.New(memory.TypeInsight, "beta widgets", "beta widgets are also great", nil)
	if err := s.Store(ctx, first); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Store(ctx, second); err != nil {
		t.Fatalf("Store: %v", err)
	}

	query := "widgets"
	results, err := s.Search(ctx, memory.Query{QueryText: &query})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 reranked results, got %d", len(results))
	}
	if results[0].RelevanceScore != 2 || results[1].RelevanceScore != 1 {
		t.Fatalf("expected reranker scores to overwrite relevance, got %+v", results)
	}
}

func TestSearchSkipsRerankWhenDisabled(t *testing.T) {
	s := newTestStore(t)
	s.cfg.Reranker = reverseReranker{}
	s.cfg.RerankerCfg = embedding.RerankerConfig{Enabled: false}
	ctx := context.Background()

	mem := memory.New(memory.TypeInsight, "gamma widgets", "gamma widgets content", nil)
	if err := s.Store(ctx, mem); err != nil {
		t.Fatalf("Store: %v", err)
	}

	query := "widgets"
	results, err := s.Search(ctx, memory.Query{QueryText: &query})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].RelevanceScore == 2 {
		t.Fatalf("disabled reranker should not have overwritten relevance score")
	}
}
