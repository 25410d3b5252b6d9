// Package store implements octobrain's Memory Store: the columnar
// memories/memory_relationships tables, CRUD, the vector/keyword/hybrid
// search algorithms, cleanup, and bulk wipe. It is defined as an interface
// with one concrete SQLite-backed implementation so callers and tests can
// substitute fakes, matching the teacher's core.Store interface pattern.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/octobrain-ai/octobrain/internal/logging"
	"github.com/octobrain-ai/octobrain/pkg/embedding"
	"github.com/octobrain-ai/octobrain/pkg/index"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// candidateMultiplier is the fixed over-fetch factor vector_search requests
// to allow post-filter rejection. Named per the Open Question decision in
// DESIGN.md: a constant, not a config option.
const candidateMultiplier = 2

// Interface is the Memory Store's public contract. The graph package
// depends on a narrower subset of this same method set via its own Store
// interface, so *Store satisfies both without an adapter.
type Interface interface {
	Store(ctx context.Context, mem memory.Memory) error
	Update(ctx context.Context, mem memory.Memory) error
	Delete(ctx context.Context, id string) error
	DeleteByQuery(ctx context.Context, q memory.Query) (int, error)
	Get(ctx context.Context, id string) (*memory.Memory, error)
	Search(ctx context.Context, q memory.Query) ([]memory.SearchResult, error)
	VectorSearch(ctx context.Context, q memory.Query) ([]memory.SearchResult, error)
	HybridSearch(ctx context.Context, hq memory.HybridSearchQuery) ([]memory.SearchResult, error)
	KeywordSearch(ctx context.Context, keywords []string, filters memory.Query) ([]memory.SearchResult, error)
	SearchByVector(ctx context.Context, vector []float32, limit int) ([]memory.SearchResult, error)
	StoreRelationship(ctx context.Context, rel memory.Relationship) error
	GetMemoryRelationships(ctx context.Context, memoryID string) ([]memory.Relationship, error)
	Cleanup(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats summarizes the store for the "stats" RPC method and CLI command.
type Stats struct {
	TotalMemories      int
	TotalRelationships int
	Dimension          int
	IndexBuilt         bool
}

// Config carries the parts of config.toml the store itself consults:
// memory defaults/decay policy and the hybrid search weights/thresholds.
// pkg/config.Config embeds the pieces this is built from.
type Config struct {
	Memory            memory.Config
	HybridEnabled     bool
	RecencyDecayDays  float64
	SimilarityThresh  float32
	MaxResults        int
	KeywordTitleWeight   float32
	KeywordContentWeight float32
	KeywordTagsWeight    float32

	// DefaultVectorWeight/DefaultKeywordWeight/DefaultRecencyWeight/
	// DefaultImportanceWeight are the "search.hybrid.default_*_weight"
	// knobs: the signal weights Store.Search seeds a dispatched
	// HybridSearchQuery with when the caller (e.g. "remember") supplies
	// only query text and filters, not its own weights. Zero values fall
	// back to memory.DefaultHybridSearchQuery()'s 0.6/0.2/0.1/0.1.
	DefaultVectorWeight     float32
	DefaultKeywordWeight    float32
	DefaultRecencyWeight    float32
	DefaultImportanceWeight float32

	// Reranker and RerankerCfg are the optional second-pass reranking
	// adapter. A nil Reranker (the default) leaves results untouched
	// regardless of RerankerCfg.Enabled, since there is nothing to call.
	Reranker    embedding.Reranker
	RerankerCfg embedding.RerankerConfig
}

// Store is the SQLite-backed implementation of Interface.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	gateway  *embedding.Gateway
	dim      int
	cfg      Config
	logger   logging.Logger
	ivf      *index.IVFIndex
	ivfTrain bool
}

// Open opens (creating if needed) the SQLite database at path, creates the
// memories/memory_relationships tables if absent, probes the embedding
// dimension via gateway, and runs the one-time index tuning decision.
func Open(ctx context.Context, path string, gateway *embedding.Gateway, cfg Config, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	// _journal_mode=WAL: concurrent readers alongside the single writer.
	// _synchronous=NORMAL: balances durability and write latency.
	// _busy_timeout=5000: wait up to 5s for a lock instead of failing.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-2000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapError("open", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	s := &Store{db: db, gateway: gateway, cfg: cfg, logger: logger}

	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, wrapError("open", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	if gateway != nil {
		dim, err := gateway.Dimension(ctx)
		if err != nil {
			db.Close()
			return nil, wrapError("open", err)
		}
		s.dim = dim
	}

	if err := s.EnsureOptimalIndex(ctx); err != nil {
		s.logger.Warn("index tuning skipped", "error", err)
	}

	s.logger.Info("store opened", "path", path, "dimension", s.dim)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureOptimalIndex runs the vector index tuner against the current
// row count and, if it recommends building an index, trains an in-memory
// IVF index over every stored embedding. It is invoked once at Open and is
// never invoked on insert; RebuildIndex exposes the same logic for callers
// that want to rebuild manually after bulk loads.
func (s *Store) EnsureOptimalIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildIndexLocked(ctx)
}

// RebuildIndex re-runs index tuning and training against the store's
// current contents. Safe to call at any time; a no-op if the tuner still
// says brute-force scan is faster.
func (s *Store) RebuildIndex(ctx context.Context) error {
	return s.EnsureOptimalIndex(ctx)
}

func (s *Store) rebuildIndexLocked(ctx context.Context) error {
	var rowCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&rowCount); err != nil {
		return fmt.Errorf("counting rows: %w", err)
	}

	params := index.Tune(rowCount, s.dim)
	if !params.ShouldCreate {
		s.ivf = nil
		s.ivfTrain = false
		return nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, embedding FROM memories WHERE embedding IS NOT NULL")
	if err != nil {
		return fmt.Errorf("loading vectors for index training: %w", err)
	}
	defer rows.Close()

	ivf := index.NewIVFIndex(s.dim, params.NumPartitions)
	var ids []string
	var vectors [][]float32
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return fmt.Errorf("scanning vector row: %w", err)
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating vector rows: %w", err)
	}

	if len(vectors) < params.NumPartitions {
		// Not enough rows to train the requested partition count; stay on
		// brute-force scan rather than fail the whole open.
		s.ivf = nil
		s.ivfTrain = false
		return nil
	}

	if err := ivf.Train(vectors); err != nil {
		return fmt.Errorf("training ivf index: %w", err)
	}
	for i, id := range ids {
		if err := ivf.Add(id, vectors[i]); err != nil {
			return fmt.Errorf("adding vector %s to ivf index: %w", id, err)
		}
	}

	s.ivf = ivf
	s.ivfTrain = true
	return nil
}

// Dimension returns the fixed vector width D this store was opened with.
func (s *Store) Dimension() int { return s.dim }
