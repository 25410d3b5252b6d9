package store

import (
	"testing"
	"time"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

func TestMatchesFiltersTagIntersection(t *testing.T) {
	mem := memory.New(memory.TypeCode, "Some title here", "content", nil)
	mem.AddTag("rust")
	mem.AddTag("concurrency")

	if !matchesFilters(mem, memory.Query{Tags: []string{"rust", "go"}}) {
		t.Fatal("expected at least one shared tag to match")
	}
	if matchesFilters(mem, memory.Query{Tags: []string{"python"}}) {
		t.Fatal("expected no shared tag to fail")
	}
}

func TestMatchesFiltersImportanceFloor(t *testing.T) {
	mem := memory.New(memory.TypeCode, "Some title here", "content", nil)
	mem.Metadata.Importance = 0.3

	min := float32(0.5)
	if matchesFilters(mem, memory.Query{MinImportance: &min}) {
		t.Fatal("expected importance below threshold to fail")
	}
	min = 0.1
	if !matchesFilters(mem, memory.Query{MinImportance: &min}) {
		t.Fatal("expected importance above threshold to pass")
	}
}

func TestMatchesFiltersCreatedWindow(t *testing.T) {
	mem := memory.New(memory.TypeCode, "Some title here", "content", nil)
	mem.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	after := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if matchesFilters(mem, memory.Query{CreatedAfter: &after}) {
		t.Fatal("expected memory created before CreatedAfter to fail")
	}
	before := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	if matchesFilters(mem, memory.Query{CreatedBefore: &before}) {
		t.Fatal("expected memory created after CreatedBefore to fail")
	}
}

func TestBuildTypeAndCommitPredicateQuotesLiterals(t *testing.T) {
	commit := "a'bc"
	q := memory.Query{MemoryTypes: []memory.Type{memory.TypeCode}, GitCommit: &commit}
	pred := buildTypeAndCommitPredicate(q)
	want := " AND memory_type IN ('code') AND git_commit = 'a''bc'"
	if pred != want {
		t.Fatalf("got %q, want %q", pred, want)
	}
}
