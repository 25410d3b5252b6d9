// Package localembed provides a deterministic, dependency-free
// embedding.Provider for cmd/octobrain's offline/demo use: embedding is
// treated as an opaque external service, and the teacher itself ships
// no concrete embedder (pkg/sqvect/embedder.go is a bring-your-own
// interface) — this package is the CLI's default stand-in so it can
// memorize and search without a network call, adapted from the
// teacher's BaseEmbedder batch-over-goroutines shape.
package localembed

import (
	"context"
	"strings"
)

// Dimension is the fixed vector width this provider produces.
const Dimension = 64

// Provider hashes each token of the input text into one of Dimension
// buckets and counts occurrences, giving texts that share vocabulary a
// non-trivial cosine similarity. It is not a semantic embedder — it has no
// notion of synonyms or meaning — but it is enough to exercise the store's
// ranking pipeline without a real provider configured.
type Provider struct{}

// New returns a Provider.
func New() Provider { return Provider{} }

// EmbedOne hashes text into a Dimension-length term-count vector.
func (Provider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, Dimension)
	for _, tok := range tokenize(text) {
		h := 2166136261
		for i := 0; i < len(tok); i++ {
			h = (h ^ int(tok[i])) * 16777619
		}
		if h < 0 {
			h = -h
		}
		vec[h%Dimension]++
	}
	return vec, nil
}

// EmbedBatch embeds each text independently, matching the teacher's
// BaseEmbedder.EmbedBatch fan-out but sequential, since this provider does
// no I/O worth parallelizing.
func (p Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.EmbedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_'
	})
}
