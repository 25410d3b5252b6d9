package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/octobrain-ai/octobrain/internal/localembed"
	"github.com/octobrain-ai/octobrain/internal/logging"
	"github.com/octobrain-ai/octobrain/pkg/config"
	"github.com/octobrain-ai/octobrain/pkg/embedding"
	"github.com/octobrain-ai/octobrain/pkg/storage"
	"github.com/octobrain-ai/octobrain/pkg/store"
)

// openStore resolves this project's storage roots, loads config.toml
// (writing the embedded default on first run), and opens the SQLite-backed
// memory store. The embedding provider is always localembed regardless of
// the configured model string — see internal/localembed's doc comment —
// since the real remote provider named by embedding.model is an external
// collaborator this CLI has no network client for.
func openStore(ctx context.Context) (*store.Store, error) {
	roots, err := storage.Resolve(projectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving storage roots: %w", err)
	}
	if err := roots.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("preparing storage directories: %w", err)
	}

	cfg, err := config.Load(roots.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	gw, err := embedding.NewGateway(localembed.New(), cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("configuring embedding gateway: %w", err)
	}

	// Reranker is left nil: cfg.Reranker.Enabled may be true in config.toml,
	// but the cross-encoder it names is an external collaborator this CLI
	// has no client for, so reranking stays a documented no-op here.
	storeCfg := store.Config{
		Memory:                  cfg.Memory,
		HybridEnabled:           cfg.Search.Hybrid.Enabled,
		RecencyDecayDays:        cfg.Search.Hybrid.RecencyDecayDays,
		SimilarityThresh:        cfg.Search.SimilarityThreshold,
		MaxResults:              cfg.Search.MaxResults,
		KeywordTitleWeight:      cfg.Search.Hybrid.KeywordTitleWeight,
		KeywordContentWeight:    cfg.Search.Hybrid.KeywordContentWeight,
		KeywordTagsWeight:       cfg.Search.Hybrid.KeywordTagsWeight,
		DefaultVectorWeight:     cfg.Search.Hybrid.DefaultVectorWeight,
		DefaultKeywordWeight:    cfg.Search.Hybrid.DefaultKeywordWeight,
		DefaultRecencyWeight:    cfg.Search.Hybrid.DefaultRecencyWeight,
		DefaultImportanceWeight: cfg.Search.Hybrid.DefaultImportanceWeight,
		RerankerCfg:             cfg.Reranker,
	}

	dbPath := filepath.Join(roots.StorageDir(), "octobrain.db")
	logger := logging.NewStd(logging.LevelInfo)
	return store.Open(ctx, dbPath, gw, storeCfg, logger)
}
