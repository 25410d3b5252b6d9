// Package embedding defines the thin contract octobrain's store uses to
// reach a remote embedding provider: a single-text and batch-text embed
// call, with the provider selected by a "provider:model" config string. The
// provider itself is an external collaborator — this package only owns the
// interface, the config parsing, and the dimension-mismatch check the store
// relies on at insert time.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmbeddingFailed is wrapped by any provider failure surfaced through
// Gateway.
var ErrEmbeddingFailed = errors.New("embedding: provider call failed")

// ErrDimensionMismatch is returned when a provider returns a vector whose
// length doesn't match the store's fixed dimension D.
var ErrDimensionMismatch = errors.New("embedding: dimension mismatch")

// ErrRerankFailed is wrapped by any reranker provider failure.
var ErrRerankFailed = errors.New("embedding: reranker call failed")

// Error wraps a provider failure or dimension mismatch, matching octobrain's
// StorageError/StoreError wrapping convention so errors.Is/As keep working
// through it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("embedding: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Provider is implemented by a remote embedding backend. It is the only
// seam between octobrain's core and the opaque external service; the core
// never talks to an HTTP client directly.
type Provider interface {
	// EmbedOne converts a single text into a vector.
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch converts multiple texts into vectors in one round trip.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelRef is a parsed "provider:model" config string, e.g.
// "openai:text-embedding-3-small".
type ModelRef struct {
	Provider string
	Model    string
}

// ParseModelRef splits a "provider:model" string. Both halves must be
// non-empty; anything else is InvalidInput.
func ParseModelRef(spec string) (ModelRef, error) {
	idx := strings.IndexByte(spec, ':')
	if idx <= 0 || idx == len(spec)-1 {
		return ModelRef{}, fmt.Errorf("embedding: malformed model spec %q, want \"provider:model\"", spec)
	}
	return ModelRef{Provider: spec[:idx], Model: spec[idx+1:]}, nil
}

func (r ModelRef) String() string { return r.Provider + ":" + r.Model }

// Gateway wraps a Provider with the store's dimension contract: D is fixed
// once, by probing the provider with the literal text "test", and every
// subsequent embedding is checked against it.
type Gateway struct {
	provider Provider
	model    ModelRef
	dim      int
}

// NewGateway builds a Gateway for the given provider and "provider:model"
// spec. It does not probe the provider; call Dimension to do that lazily on
// first use, matching "D is fixed once at store creation by probing the
// embedder with the literal text 'test'".
func NewGateway(provider Provider, modelSpec string) (*Gateway, error) {
	ref, err := ParseModelRef(modelSpec)
	if err != nil {
		return nil, err
	}
	return &Gateway{provider: provider, model: ref}, nil
}

// Model returns the parsed provider:model reference.
func (g *Gateway) Model() ModelRef { return g.model }

// Dimension returns D, probing the provider with "test" on first call and
// caching the result.
func (g *Gateway) Dimension(ctx context.Context) (int, error) {
	if g.dim > 0 {
		return g.dim, nil
	}
	vec, err := g.provider.EmbedOne(ctx, "test")
	if err != nil {
		return 0, wrap("dimension_probe", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}
	if len(vec) == 0 {
		return 0, wrap("dimension_probe", fmt.Errorf("%w: provider returned an empty vector", ErrEmbeddingFailed))
	}
	g.dim = len(vec)
	return g.dim, nil
}

// EmbedOne embeds a single text, checking the result against D once D has
// been established.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec, err := g.provider.EmbedOne(ctx, text)
	if err != nil {
		return nil, wrap("embed_one", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}
	if err := g.checkDim(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds multiple texts, observing the same dimension contract
// as EmbedOne for every returned vector.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := g.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, wrap("embed_batch", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}
	for _, v := range vecs {
		if err := g.checkDim(v); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (g *Gateway) checkDim(vec []float32) error {
	if g.dim == 0 {
		g.dim = len(vec)
		return nil
	}
	if len(vec) != g.dim {
		return wrap("dimension_check", fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), g.dim))
	}
	return nil
}

// BatchConfig carries the batch_size and max_tokens_per_batch caps that
// Chunk applies when grouping texts for EmbedBatch.
type BatchConfig struct {
	BatchSize        int
	MaxTokensPerBatch int
}

// DefaultBatchConfig mirrors the reference defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{BatchSize: 32, MaxTokensPerBatch: 8192}
}

// Chunk splits texts into groups respecting cfg.BatchSize and a rough
// token estimate (one token per four characters, the ubiquitous heuristic
// for this scale of batching) against cfg.MaxTokensPerBatch.
func Chunk(texts []string, cfg BatchConfig) [][]string {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	var chunks [][]string
	var current []string
	tokens := 0
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			tokens = 0
		}
	}
	for _, t := range texts {
		estimate := len(t)/4 + 1
		if len(current) >= cfg.BatchSize || (cfg.MaxTokensPerBatch > 0 && tokens+estimate > cfg.MaxTokensPerBatch && len(current) > 0) {
			flush()
		}
		current = append(current, t)
		tokens += estimate
	}
	flush()
	return chunks
}
