package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/octobrain-ai/octobrain/pkg/embedding"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

const testDim = 16

// bagOfWordsProvider is a deterministic stand-in for a real embedding
// provider: it hashes each token into one of testDim buckets and counts
// occurrences, so texts sharing vocabulary end up with non-trivial cosine
// similarity, exercising the ranking paths without a network call.
type bagOfWordsProvider struct{}

func (bagOfWordsProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, testDim)
	for _, tok := range tokenize(text) {
		h := 0
		for _, r := range tok {
			h = h*31 + int(r)
		}
		if h < 0 {
			h = -h
		}
		vec[h%testDim]++
	}
	return vec, nil
}

func (p bagOfWordsProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := p.EmbedOne(ctx, t)
		out[i] = v
	}
	return out, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	gw, err := embedding.NewGateway(bagOfWordsProvider{}, "test:bow")
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	cfg := Config{
		Memory:               memory.DefaultConfig(),
		HybridEnabled:        true,
		RecencyDecayDays:     30,
		MaxResults:           50,
		KeywordTitleWeight:   3.0,
		KeywordContentWeight: 1.0,
		KeywordTagsWeight:    2.0,
	}
	s, err := Open(context.Background(), filepath.Join(dir, "octobrain.db"), gw, cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mem := memory.New(memory.TypeCode, "Arc vs Rc", "use Arc for cross-thread", nil)
	mem.AddTag("concurrency")
	if err := s.Store(ctx, mem); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := s.Get(ctx, mem.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a memory, got nil")
	}
	if got.Title != mem.Title || got.Content != mem.Content || got.MemoryType != mem.MemoryType {
		t.Fatalf("round-trip mismatch: %+v vs %+v", got, mem)
	}
	if len(got.Metadata.Tags) != 1 || got.Metadata.Tags[0] != "concurrency" {
		t.Fatalf("expected tags to round-trip, got %v", got.Metadata.Tags)
	}
	if got.Metadata.Importance != mem.Metadata.Importance {
		t.Fatalf("expected importance to round-trip, got %v", got.Metadata.Importance)
	}
}

func TestDeleteRemovesMemoryAndRelationships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := memory.New(memory.TypeCode, "Memory A here", "content a", nil)
	b := memory.New(memory.TypeCode, "Memory B here", "content b", nil)
	if err := s.Store(ctx, a); err != nil {
		t.Fatalf("Store a: %v", err)
	}
	if err := s.Store(ctx, b); err != nil {
		t.Fatalf("Store b: %v", err)
	}
	rel := memory.Relationship{ID: "r1", SourceID: a.ID, TargetID: b.ID, RelationshipType: memory.RelatedTo, Strength: 0.5, CreatedAt: time.Now()}
	if err := s.StoreRelationship(ctx, rel); err != nil {
		t.Fatalf("StoreRelationship: %v", err)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Get(ctx, a.ID); got != nil {
		t.Fatalf("expected a to be gone, got %+v", got)
	}
	rels, err := s.GetMemoryRelationships(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetMemoryRelationships: %v", err)
	}
	if len(rels) != 0 {
		t.Fatalf("expected no relationships referencing deleted memory, got %+v", rels)
	}
}

func TestFilterCompositionByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	types := []memory.Type{memory.TypeCode, memory.TypeTesting, memory.TypeSecurity}
	for _, ty := range types {
		m := memory.New(ty, string(ty)+" memory title", "some content", nil)
		if err := s.Store(ctx, m); err != nil {
			t.Fatalf("Store %s: %v", ty, err)
		}
	}

	limit := 10
	q := memory.Query{MemoryTypes: []memory.Type{memory.TypeSecurity}, Limit: &limit}
	results, err := s.VectorSearch(ctx, q)
	if err != nil {
		t.Fatalf("VectorSearch: %v", err)
	}
	if len(results) != 1 || results[0].Memory.MemoryType != memory.TypeSecurity {
		t.Fatalf("expected exactly the security memory, got %+v", results)
	}
}

func TestCleanupRemovesOldLowImportance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	days30 := 30
	s.cfg.Memory.AutoCleanupDays = &days30
	s.cfg.Memory.CleanupMinImportance = 0.2

	old := memory.New(memory.TypeCode, "Old low importance", "content", nil)
	old.Metadata.Importance = 0.1
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -60)
	old.UpdatedAt = old.CreatedAt

	oldHigh := memory.New(memory.TypeCode, "Old high importance", "content", nil)
	oldHigh.Metadata.Importance = 0.5
	oldHigh.CreatedAt = time.Now().UTC().AddDate(0, 0, -60)
	oldHigh.UpdatedAt = oldHigh.CreatedAt

	recent := memory.New(memory.TypeCode, "Recent low importance", "content", nil)
	recent.Metadata.Importance = 0.1

	for _, m := range []memory.Memory{old, oldHigh, recent} {
		if err := s.Store(ctx, m); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	removed, err := s.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected exactly 1 removed, got %d", removed)
	}
	if got, _ := s.Get(ctx, old.ID); got != nil {
		t.Fatalf("expected old low-importance memory removed")
	}
	if got, _ := s.Get(ctx, oldHigh.ID); got == nil {
		t.Fatalf("expected old high-importance memory kept")
	}
	if got, _ := s.Get(ctx, recent.ID); got == nil {
		t.Fatalf("expected recent memory kept")
	}
}

func TestClearAllReturnsPriorCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := memory.New(memory.TypeCode, "Memory A here", "content", nil)
	b := memory.New(memory.TypeCode, "Memory B here", "content", nil)
	for _, m := range []memory.Memory{a, b} {
		if err := s.Store(ctx, m); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	rel := memory.Relationship{ID: "r1", SourceID: a.ID, TargetID: b.ID, RelationshipType: memory.RelatedTo, CreatedAt: time.Now()}
	if err := s.StoreRelationship(ctx, rel); err != nil {
		t.Fatalf("StoreRelationship: %v", err)
	}

	removed, err := s.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 2 memories + 1 relationship = 3, got %d", removed)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalMemories != 0 || stats.TotalRelationships != 0 {
		t.Fatalf("expected empty store, got %+v", stats)
	}
}

func TestHybridSearchRanksTaggedHigher(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tagged := memory.New(memory.TypeCode, "Systems programming notes", "notes about systems", nil)
	tagged.AddTag("rust")
	untagged := memory.New(memory.TypeCode, "Systems programming notes", "notes about systems", nil)

	if err := s.Store(ctx, tagged); err != nil {
		t.Fatalf("Store tagged: %v", err)
	}
	if err := s.Store(ctx, untagged); err != nil {
		t.Fatalf("Store untagged: %v", err)
	}

	hq := memory.HybridSearchQuery{
		Keywords:         []string{"rust"},
		VectorWeight:     0.5,
		KeywordWeight:    0.5,
		RecencyWeight:    0,
		ImportanceWeight: 0,
	}
	results, err := s.HybridSearch(ctx, hq)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(results))
	}
	if results[0].Memory.ID != tagged.ID {
		t.Fatalf("expected the tagged memory ranked first, got %+v", results[0])
	}
}
