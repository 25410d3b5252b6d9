// Package rpc binds the store and graph to the method names a
// line-delimited JSON-RPC 2.0 server (an external collaborator) exposes to
// pkg/store's Go API: one function per RPC method name, so that
// cmd/octobrain's CLI and any future server can both drive the store
// through the same names the wire contract promises. It deliberately does
// not implement transport framing, request/response envelopes, or
// notification semantics; that belongs to the server that imports it.
package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/octobrain-ai/octobrain/pkg/graph"
	"github.com/octobrain-ai/octobrain/pkg/memory"
	"github.com/octobrain-ai/octobrain/pkg/store"
)

// Server binds a store and its relationship graph to those method names.
type Server struct {
	Store store.Interface
	Graph *graph.Graph
}

// New returns a Server bound to s and g. g may be nil if auto-linking and
// memory_graph traversal are not needed by the caller.
func New(s store.Interface, g *graph.Graph) *Server {
	return &Server{Store: s, Graph: g}
}

// MemorizeRequest carries the fields "memorize" accepts: a new memory's
// type, title, content, and optional metadata overrides.
type MemorizeRequest struct {
	Type     memory.Type
	Title    string
	Content  string
	Metadata *memory.Metadata
}

// Memorize creates and stores a new memory, returning its id.
func (s *Server) Memorize(ctx context.Context, req MemorizeRequest) (string, error) {
	mem := memory.New(req.Type, req.Title, req.Content, req.Metadata)
	if err := s.Store.Store(ctx, mem); err != nil {
		return "", err
	}
	if s.Graph != nil {
		if _, err := s.Graph.AutoLink(ctx, mem); err != nil {
			return mem.ID, fmt.Errorf("rpc: memorize: auto_link: %w", err)
		}
	}
	return mem.ID, nil
}

// Remember runs a search for text against the store, the "remember" and
// "recent"/"by_type"/"for_files"/"by_tags" family all reduce to this with
// different MemoryQuery shapes built by the caller.
func (s *Server) Remember(ctx context.Context, q memory.Query) ([]memory.SearchResult, error) {
	return s.Store.Search(ctx, q)
}

// Recent returns the limit most recently created memories.
func (s *Server) Recent(ctx context.Context, limit int) ([]memory.SearchResult, error) {
	sortBy := memory.SortByCreatedAt
	q := memory.Query{Limit: &limit, SortBy: &sortBy}
	return s.Store.Search(ctx, q)
}

// ByType returns memories of the given type.
func (s *Server) ByType(ctx context.Context, t memory.Type, limit int) ([]memory.SearchResult, error) {
	q := memory.Query{MemoryTypes: []memory.Type{t}, Limit: &limit}
	return s.Store.Search(ctx, q)
}

// ForFiles returns memories whose related_files intersect files.
func (s *Server) ForFiles(ctx context.Context, files []string, limit int) ([]memory.SearchResult, error) {
	q := memory.Query{RelatedFiles: files, Limit: &limit}
	return s.Store.Search(ctx, q)
}

// ByTags returns memories whose tags intersect tags.
func (s *Server) ByTags(ctx context.Context, tags []string, limit int) ([]memory.SearchResult, error) {
	q := memory.Query{Tags: tags, Limit: &limit}
	return s.Store.Search(ctx, q)
}

// CurrentCommit returns memories tagged with the given git commit.
func (s *Server) CurrentCommit(ctx context.Context, commit string, limit int) ([]memory.SearchResult, error) {
	q := memory.Query{GitCommit: &commit, Limit: &limit}
	return s.Store.Search(ctx, q)
}

// ForgetRequest names what to destroy: either a single memory by ID, or
// every memory matching Query's filter conjunction. Exactly one must be
// set, mirroring the original's mutually exclusive memory_id/query CLI
// args (original_source/src/cli.rs's Forget struct).
type ForgetRequest struct {
	ID    *string
	Query *memory.Query
}

// Forget destroys the memory or memories named by req, returning the
// count removed. By-id deletion of a missing id is not an error and
// reports 0 removed; by-query deletion removes every matching memory.
func (s *Server) Forget(ctx context.Context, req ForgetRequest) (int, error) {
	switch {
	case req.ID != nil && req.Query != nil:
		return 0, fmt.Errorf("rpc: forget: %w: id and query are mutually exclusive", store.ErrInvalidInput)
	case req.ID != nil:
		existing, err := s.Store.Get(ctx, *req.ID)
		if err != nil {
			return 0, err
		}
		if err := s.Store.Delete(ctx, *req.ID); err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, nil
		}
		return 1, nil
	case req.Query != nil:
		return s.Store.DeleteByQuery(ctx, *req.Query)
	default:
		return 0, fmt.Errorf("rpc: forget: %w: one of id or query is required", store.ErrInvalidInput)
	}
}

// Get is a point lookup by id.
func (s *Server) Get(ctx context.Context, id string) (*memory.Memory, error) {
	return s.Store.Get(ctx, id)
}

// UpdateRequest carries a partial patch over an existing memory.
type UpdateRequest struct {
	ID       string
	Title    *string
	Content  *string
	Metadata *memory.Metadata
}

// Update applies req's patch to the memory at req.ID and re-stores it.
// Unknown ids surface ErrNotFound.
func (s *Server) Update(ctx context.Context, req UpdateRequest) error {
	mem, err := s.Store.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if mem == nil {
		return fmt.Errorf("rpc: update: %w: %s", store.ErrNotFound, req.ID)
	}
	mem.Update(req.Title, req.Content, req.Metadata)
	return s.Store.Update(ctx, *mem)
}

// Stats returns the store's current contents summary.
func (s *Server) Stats(ctx context.Context) (store.Stats, error) {
	return s.Store.Stats(ctx)
}

// Cleanup removes aged, low-importance memories, returning the count
// removed.
func (s *Server) Cleanup(ctx context.Context) (int, error) {
	return s.Store.Cleanup(ctx)
}

// ClearAll wipes the store, returning the prior total row count.
func (s *Server) ClearAll(ctx context.Context) (int, error) {
	return s.Store.ClearAll(ctx)
}

// RelateRequest carries the fields "relate" accepts to create a
// relationship edge between two memories.
type RelateRequest struct {
	SourceID         string
	TargetID         string
	RelationshipType memory.RelationshipType
	Strength         float32
	Description      string
}

// Relate creates a relationship edge, assigning it a fresh id and the
// current timestamp.
func (s *Server) Relate(ctx context.Context, req RelateRequest) (memory.Relationship, error) {
	rel := memory.Relationship{
		ID:               newRelationshipID(),
		SourceID:         req.SourceID,
		TargetID:         req.TargetID,
		RelationshipType: req.RelationshipType,
		Strength:         memory.Clamp01(req.Strength),
		Description:      req.Description,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.Store.StoreRelationship(ctx, rel); err != nil {
		return memory.Relationship{}, err
	}
	return rel, nil
}

// Relationships and Related both resolve to the same underlying lookup:
// every edge touching memoryID.
func (s *Server) Relationships(ctx context.Context, memoryID string) ([]memory.Relationship, error) {
	return s.Store.GetMemoryRelationships(ctx, memoryID)
}

// Related is an alias for Relationships kept distinct at the RPC layer
// because the wire method table names both; the Go binding is identical.
func (s *Server) Related(ctx context.Context, memoryID string) ([]memory.Relationship, error) {
	return s.Store.GetMemoryRelationships(ctx, memoryID)
}

// AutoLink runs similarity-driven auto-linking for an already-stored
// memory. Requires Graph to be configured.
func (s *Server) AutoLink(ctx context.Context, mem memory.Memory) ([]memory.Relationship, error) {
	if s.Graph == nil {
		return nil, fmt.Errorf("rpc: auto_link: no relationship graph configured")
	}
	return s.Graph.AutoLink(ctx, mem)
}

// MemoryGraph resolves the one-hop neighborhood of rootID. Requires Graph
// to be configured.
func (s *Server) MemoryGraph(ctx context.Context, rootID string) (*graph.MemoryGraph, error) {
	if s.Graph == nil {
		return nil, fmt.Errorf("rpc: memory_graph: no relationship graph configured")
	}
	return s.Graph.MemoryGraph(ctx, rootID)
}
