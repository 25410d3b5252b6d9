package graph

import (
	"context"
	"testing"
	"time"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

type fakeStore struct {
	memories      map[string]memory.Memory
	relationships []memory.Relationship
	searchResults []memory.SearchResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{memories: map[string]memory.Memory{}}
}

func (f *fakeStore) Get(ctx context.Context, id string) (*memory.Memory, error) {
	m, ok := f.memories[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeStore) GetMemoryRelationships(ctx context.Context, memoryID string) ([]memory.Relationship, error) {
	var out []memory.Relationship
	for _, r := range f.relationships {
		if r.SourceID == memoryID || r.TargetID == memoryID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) StoreRelationship(ctx context.Context, rel memory.Relationship) error {
	f.relationships = append(f.relationships, rel)
	return nil
}

func (f *fakeStore) SearchByVector(ctx context.Context, vector []float32, limit int) ([]memory.SearchResult, error) {
	if limit < len(f.searchResults) {
		return f.searchResults[:limit], nil
	}
	return f.searchResults, nil
}

func TestAutoLinkCreatesEdgesAboveThreshold(t *testing.T) {
	store := newFakeStore()
	target := memory.New(memory.TypeCode, "Target memory here", "content", nil)
	store.memories[target.ID] = target
	mem := memory.New(memory.TypeCode, "Source memory here", "content", nil)
	mem.Embedding = []float32{1, 0, 0}

	store.searchResults = []memory.SearchResult{
		{Memory: mem, RelevanceScore: 0.99},
		{Memory: target, RelevanceScore: 0.85},
	}

	g := New(store, AutoLinkConfig{Enabled: true, Threshold: 0.78, MaxLinksPerMemory: 5})
	created, err := g.AutoLink(context.Background(), mem)
	if err != nil {
		t.Fatalf("AutoLink: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 edge (self excluded), got %d", len(created))
	}
	if created[0].RelationshipType != memory.AutoLinked {
		t.Fatalf("expected auto_linked type, got %s", created[0].RelationshipType)
	}
	if created[0].TargetID != target.ID {
		t.Fatalf("expected edge to target, got %s", created[0].TargetID)
	}
}

func TestAutoLinkDisabledIsNoOp(t *testing.T) {
	store := newFakeStore()
	mem := memory.New(memory.TypeCode, "Source memory here", "content", nil)
	mem.Embedding = []float32{1, 0, 0}
	g := New(store, DefaultAutoLinkConfig())
	created, err := g.AutoLink(context.Background(), mem)
	if err != nil || created != nil {
		t.Fatalf("expected no-op, got %v, %v", created, err)
	}
}

func TestAutoLinkBidirectional(t *testing.T) {
	store := newFakeStore()
	target := memory.New(memory.TypeCode, "Target memory here", "content", nil)
	store.memories[target.ID] = target
	mem := memory.New(memory.TypeCode, "Source memory here", "content", nil)
	mem.Embedding = []float32{1, 0, 0}
	store.searchResults = []memory.SearchResult{{Memory: target, RelevanceScore: 0.9}}

	g := New(store, AutoLinkConfig{Enabled: true, Threshold: 0.78, MaxLinksPerMemory: 5, Bidirectional: true})
	created, err := g.AutoLink(context.Background(), mem)
	if err != nil {
		t.Fatalf("AutoLink: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected forward+reverse edges, got %d", len(created))
	}
}

func TestMemoryGraphFiltersDanglingEdges(t *testing.T) {
	store := newFakeStore()
	root := memory.New(memory.TypeCode, "Root memory text", "content", nil)
	live := memory.New(memory.TypeCode, "Live neighbor text", "content", nil)
	store.memories[root.ID] = root
	store.memories[live.ID] = live

	store.relationships = []memory.Relationship{
		{ID: "r1", SourceID: root.ID, TargetID: live.ID, RelationshipType: memory.RelatedTo, CreatedAt: time.Now()},
		{ID: "r2", SourceID: root.ID, TargetID: "deleted-memory-id", RelationshipType: memory.RelatedTo, CreatedAt: time.Now()},
	}

	g := New(store, DefaultAutoLinkConfig())
	mg, err := g.MemoryGraph(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("MemoryGraph: %v", err)
	}
	if len(mg.Neighbors) != 1 || mg.Neighbors[0].ID != live.ID {
		t.Fatalf("expected only the live neighbor, got %+v", mg.Neighbors)
	}
	if len(mg.Edges) != 1 {
		t.Fatalf("expected the dangling edge filtered out, got %d edges", len(mg.Edges))
	}
}
