package embedding

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	dim     int
	failErr error
}

func (f *fakeProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	return make([]float32, f.dim), nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.EmbedOne(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestParseModelRef(t *testing.T) {
	ref, err := ParseModelRef("openai:text-embedding-3-small")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Provider != "openai" || ref.Model != "text-embedding-3-small" {
		t.Fatalf("unexpected parse: %+v", ref)
	}
	if ref.String() != "openai:text-embedding-3-small" {
		t.Fatalf("round-trip mismatch: %s", ref.String())
	}
}

func TestParseModelRefRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "openai", ":model", "openai:", "openaimodel"} {
		if _, err := ParseModelRef(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestGatewayDimensionProbe(t *testing.T) {
	gw, err := NewGateway(&fakeProvider{dim: 384}, "openai:test")
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	dim, err := gw.Dimension(context.Background())
	if err != nil {
		t.Fatalf("Dimension: %v", err)
	}
	if dim != 384 {
		t.Fatalf("expected 384, got %d", dim)
	}
}

func TestGatewayDimensionMismatch(t *testing.T) {
	gw, err := NewGateway(&fakeProvider{dim: 8}, "openai:test")
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	if _, err := gw.Dimension(context.Background()); err != nil {
		t.Fatalf("Dimension: %v", err)
	}
	provider := &fakeProvider{dim: 16}
	gw2 := &Gateway{provider: provider, dim: 8}
	if _, err := gw2.EmbedOne(context.Background(), "hello"); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestChunkRespectsBatchSize(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e"}
	chunks := Chunk(texts, BatchConfig{BatchSize: 2, MaxTokensPerBatch: 0})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 2 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunk sizes: %v", chunks)
	}
}

func TestRerankPassThroughWhenDisabled(t *testing.T) {
	matches, err := Rerank(context.Background(), nil, DefaultRerankerConfig(), "q", []string{"a", "b"}, []float64{0.5, 0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 || matches[0].Score != 0.5 || matches[1].Score != 0.9 {
		t.Fatalf("unexpected pass-through: %+v", matches)
	}
}

func TestMakeCandidateText(t *testing.T) {
	got := MakeCandidateText("Title", "Body", []string{"a", "b"})
	want := "Title\nBody\nTags: a,b"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
