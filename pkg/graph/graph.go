// Package graph implements the relationship graph layered on top of the
// memory store: typed, weighted directed edges between memories,
// similarity-driven auto-linking of newly stored memories, and one-hop
// traversal for memory_graph.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// Store is the subset of pkg/store's API the graph needs: point lookup,
// relationship CRUD, and a vector-similarity search used by auto-linking.
// Depending on this narrow interface instead of the concrete store type
// keeps the graph testable with a fake and avoids an import cycle (pkg/store
// does not import pkg/graph).
type Store interface {
	Get(ctx context.Context, id string) (*memory.Memory, error)
	GetMemoryRelationships(ctx context.Context, memoryID string) ([]memory.Relationship, error)
	StoreRelationship(ctx context.Context, rel memory.Relationship) error
	SearchByVector(ctx context.Context, vector []float32, limit int) ([]memory.SearchResult, error)
}

// AutoLinkConfig carries the auto-link config block.
type AutoLinkConfig struct {
	Enabled           bool
	Threshold         float32
	MaxLinksPerMemory int
	Bidirectional     bool
}

// DefaultAutoLinkConfig mirrors the reference defaults: disabled, a 0.78
// similarity threshold, top 5 matches, one-directional edges.
func DefaultAutoLinkConfig() AutoLinkConfig {
	return AutoLinkConfig{
		Enabled:           false,
		Threshold:         0.78,
		MaxLinksPerMemory: 5,
		Bidirectional:     false,
	}
}

// Graph binds a Store to the auto-link policy the store's caller is
// configured with.
type Graph struct {
	store Store
	cfg   AutoLinkConfig
}

// New returns a Graph over store using cfg for AutoLink.
func New(store Store, cfg AutoLinkConfig) *Graph {
	return &Graph{store: store, cfg: cfg}
}

// AutoLink runs a vector search for memories similar to mem, and for every
// match at or above cfg.Threshold (up to cfg.MaxLinksPerMemory, excluding
// mem itself) creates an "auto_linked" relationship from mem to the match.
// If cfg.Bidirectional, the reverse edge is created too. A disabled config
// or a memory with no embedding is a no-op, not an error.
func (g *Graph) AutoLink(ctx context.Context, mem memory.Memory) ([]memory.Relationship, error) {
	if !g.cfg.Enabled || len(mem.Embedding) == 0 {
		return nil, nil
	}

	// Request one extra candidate since mem itself, having just been
	// stored, is its own nearest neighbor.
	results, err := g.store.SearchByVector(ctx, mem.Embedding, g.cfg.MaxLinksPerMemory+1)
	if err != nil {
		return nil, fmt.Errorf("graph: auto_link search: %w", err)
	}

	var created []memory.Relationship
	for _, r := range results {
		if r.Memory.ID == mem.ID {
			continue
		}
		if r.RelevanceScore < g.cfg.Threshold {
			continue
		}
		if len(created) >= g.cfg.MaxLinksPerMemory {
			break
		}

		rel := memory.Relationship{
			ID:               uuid.NewString(),
			SourceID:         mem.ID,
			TargetID:         r.Memory.ID,
			RelationshipType: memory.AutoLinked,
			Strength:         memory.Clamp01(r.RelevanceScore),
			Description:      "auto-linked by vector similarity",
			CreatedAt:        time.Now().UTC(),
		}
		if err := g.store.StoreRelationship(ctx, rel); err != nil {
			return created, fmt.Errorf("graph: storing auto-link: %w", err)
		}
		created = append(created, rel)

		if g.cfg.Bidirectional {
			reverse := memory.Relationship{
				ID:               uuid.NewString(),
				SourceID:         r.Memory.ID,
				TargetID:         mem.ID,
				RelationshipType: memory.AutoLinked,
				Strength:         rel.Strength,
				Description:      "auto-linked by vector similarity",
				CreatedAt:        rel.CreatedAt,
			}
			if err := g.store.StoreRelationship(ctx, reverse); err != nil {
				return created, fmt.Errorf("graph: storing reverse auto-link: %w", err)
			}
			created = append(created, reverse)
		}
	}
	return created, nil
}

// MemoryGraph is the one-hop neighborhood of a root memory: the root
// itself, every memory reachable through a relationship edge, and the
// edges that connect them. Edges whose other endpoint no longer exists are
// silently filtered rather than treated as an error.
type MemoryGraph struct {
	Root      memory.Memory
	Neighbors []memory.Memory
	Edges     []memory.Relationship
}

// MemoryGraph resolves the one-hop neighborhood of rootID.
func (g *Graph) MemoryGraph(ctx context.Context, rootID string) (*MemoryGraph, error) {
	root, err := g.store.Get(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("graph: loading root: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("graph: memory %q not found", rootID)
	}

	edges, err := g.store.GetMemoryRelationships(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("graph: loading relationships: %w", err)
	}

	seen := map[string]bool{rootID: true}
	var neighbors []memory.Memory
	var liveEdges []memory.Relationship

	for _, e := range edges {
		otherID := e.TargetID
		if otherID == rootID {
			otherID = e.SourceID
		}
		other, err := g.store.Get(ctx, otherID)
		if err != nil {
			return nil, fmt.Errorf("graph: loading neighbor %q: %w", otherID, err)
		}
		if other == nil {
			continue // dangling edge, silently filtered
		}
		liveEdges = append(liveEdges, e)
		if !seen[other.ID] {
			seen[other.ID] = true
			neighbors = append(neighbors, *other)
		}
	}

	return &MemoryGraph{Root: *root, Neighbors: neighbors, Edges: liveEdges}, nil
}
