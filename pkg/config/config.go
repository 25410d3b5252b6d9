// Package config loads octobrain's system-wide config.toml: embedding
// provider selection, search/hybrid weights, memory defaults, auto-link
// policy, and reranker settings. A missing file is not an error — a
// default template is written on first run and loaded back, mirroring the
// original implementation's load-then-persist fallback.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/octobrain-ai/octobrain/pkg/embedding"
	"github.com/octobrain-ai/octobrain/pkg/graph"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

//go:embed default.toml
var defaultFS embed.FS

// Error wraps a config load/parse failure, surfaced as ConfigError.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("config: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// HybridConfig carries the "search.hybrid" config block.
type HybridConfig struct {
	Enabled              bool
	DefaultVectorWeight  float32
	DefaultKeywordWeight float32
	DefaultRecencyWeight float32
	DefaultImportanceWeight float32
	RecencyDecayDays     float64
	KeywordTitleWeight   float32
	KeywordContentWeight float32
	KeywordTagsWeight    float32
}

// SearchConfig carries the "search" config block.
type SearchConfig struct {
	SimilarityThreshold float32
	MaxResults          int
	Hybrid              HybridConfig
}

// EmbeddingConfig carries the "embedding" config block.
type EmbeddingConfig struct {
	Model             string
	BatchSize         int
	MaxTokensPerBatch int
}

// Config is the fully parsed config.toml.
type Config struct {
	Embedding EmbeddingConfig
	Search    SearchConfig
	Memory    memory.Config
	AutoLink  graph.AutoLinkConfig
	Reranker  embedding.RerankerConfig
}

// tomlDoc is the on-disk shape. toml keys use snake_case and dotted table
// names, matching config.toml's recognized options.
type tomlDoc struct {
	Embedding struct {
		Model             string `toml:"model"`
		BatchSize         int    `toml:"batch_size"`
		MaxTokensPerBatch int    `toml:"max_tokens_per_batch"`
	} `toml:"embedding"`
	Search struct {
		SimilarityThreshold float32 `toml:"similarity_threshold"`
		MaxResults          int     `toml:"max_results"`
		Hybrid              struct {
			Enabled                 bool    `toml:"enabled"`
			DefaultVectorWeight     float32 `toml:"default_vector_weight"`
			DefaultKeywordWeight    float32 `toml:"default_keyword_weight"`
			DefaultRecencyWeight    float32 `toml:"default_recency_weight"`
			DefaultImportanceWeight float32 `toml:"default_importance_weight"`
			RecencyDecayDays        float64 `toml:"recency_decay_days"`
			KeywordTitleWeight      float32 `toml:"keyword_title_weight"`
			KeywordContentWeight    float32 `toml:"keyword_content_weight"`
			KeywordTagsWeight       float32 `toml:"keyword_tags_weight"`
		} `toml:"hybrid"`
	} `toml:"search"`
	Memory struct {
		MaxMemories            int     `toml:"max_memories"`
		AutoCleanupDays        int     `toml:"auto_cleanup_days"`
		CleanupMinImportance   float32 `toml:"cleanup_min_importance"`
		AutoRelationships      bool    `toml:"auto_relationships"`
		RelationshipThreshold  float32 `toml:"relationship_threshold"`
		MaxSearchResults       int     `toml:"max_search_results"`
		DefaultImportance      float32 `toml:"default_importance"`
		DecayEnabled           bool    `toml:"decay_enabled"`
		DecayHalfLifeDays      int     `toml:"decay_half_life_days"`
		AccessBoostFactor      float32 `toml:"access_boost_factor"`
		MinImportanceThreshold float32 `toml:"min_importance_threshold"`
	} `toml:"memory"`
	AutoLink struct {
		Enabled           bool    `toml:"auto_linking_enabled"`
		Threshold         float32 `toml:"auto_link_threshold"`
		MaxLinksPerMemory int     `toml:"max_auto_links_per_memory"`
		Bidirectional     bool    `toml:"bidirectional_links"`
	} `toml:"auto_link"`
	Reranker struct {
		Enabled        bool   `toml:"enabled"`
		Model          string `toml:"model"`
		TopKCandidates int    `toml:"top_k_candidates"`
		FinalTopK      int    `toml:"final_top_k"`
	} `toml:"reranker"`
}

// Load reads config.toml at path, writing and re-reading the embedded
// default template if the file doesn't exist yet.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return Config{}, wrap("load", err)
		}
	}

	var doc tomlDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return Config{}, wrap("load", fmt.Errorf("parsing %s: %w", path, err))
	}
	return fromDoc(doc), nil
}

// writeDefault materializes the embedded default.toml at path, creating
// parent directories as needed.
func writeDefault(path string) error {
	data, err := defaultFS.ReadFile("default.toml")
	if err != nil {
		return fmt.Errorf("reading embedded default: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

func fromDoc(doc tomlDoc) Config {
	maxMemories := doc.Memory.MaxMemories
	autoCleanup := doc.Memory.AutoCleanupDays
	return Config{
		Embedding: EmbeddingConfig{
			Model:             doc.Embedding.Model,
			BatchSize:         doc.Embedding.BatchSize,
			MaxTokensPerBatch: doc.Embedding.MaxTokensPerBatch,
		},
		Search: SearchConfig{
			SimilarityThreshold: doc.Search.SimilarityThreshold,
			MaxResults:          doc.Search.MaxResults,
			Hybrid: HybridConfig{
				Enabled:                 doc.Search.Hybrid.Enabled,
				DefaultVectorWeight:     doc.Search.Hybrid.DefaultVectorWeight,
				DefaultKeywordWeight:    doc.Search.Hybrid.DefaultKeywordWeight,
				DefaultRecencyWeight:    doc.Search.Hybrid.DefaultRecencyWeight,
				DefaultImportanceWeight: doc.Search.Hybrid.DefaultImportanceWeight,
				RecencyDecayDays:        doc.Search.Hybrid.RecencyDecayDays,
				KeywordTitleWeight:      doc.Search.Hybrid.KeywordTitleWeight,
				KeywordContentWeight:    doc.Search.Hybrid.KeywordContentWeight,
				KeywordTagsWeight:       doc.Search.Hybrid.KeywordTagsWeight,
			},
		},
		Memory: memory.Config{
			MaxMemories:            &maxMemories,
			AutoCleanupDays:        &autoCleanup,
			CleanupMinImportance:   doc.Memory.CleanupMinImportance,
			AutoRelationships:      doc.Memory.AutoRelationships,
			RelationshipThreshold:  doc.Memory.RelationshipThreshold,
			MaxSearchResults:       doc.Memory.MaxSearchResults,
			DefaultImportance:      doc.Memory.DefaultImportance,
			DecayEnabled:           doc.Memory.DecayEnabled,
			DecayHalfLifeDays:      doc.Memory.DecayHalfLifeDays,
			AccessBoostFactor:      doc.Memory.AccessBoostFactor,
			MinImportanceThreshold: doc.Memory.MinImportanceThreshold,
		},
		AutoLink: graph.AutoLinkConfig{
			Enabled:           doc.AutoLink.Enabled,
			Threshold:         doc.AutoLink.Threshold,
			MaxLinksPerMemory: doc.AutoLink.MaxLinksPerMemory,
			Bidirectional:     doc.AutoLink.Bidirectional,
		},
		Reranker: embedding.RerankerConfig{
			Enabled:        doc.Reranker.Enabled,
			Model:          doc.Reranker.Model,
			TopKCandidates: doc.Reranker.TopKCandidates,
			FinalTopK:      doc.Reranker.FinalTopK,
		},
	}
}
