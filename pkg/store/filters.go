package store

import (
	"strings"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// matchesFilters evaluates the conjunction of every filter set on q against
// mem: memory_types (one of), tags (at least one in common),
// related_files (at least one in common), exact git_commit, minimum
// importance/confidence, and a created_at window.
func matchesFilters(mem memory.Memory, q memory.Query) bool {
	if len(q.MemoryTypes) > 0 && !containsType(q.MemoryTypes, mem.MemoryType) {
		return false
	}
	if len(q.Tags) > 0 && !intersects(q.Tags, mem.Metadata.Tags) {
		return false
	}
	if len(q.RelatedFiles) > 0 && !intersects(q.RelatedFiles, mem.Metadata.RelatedFiles) {
		return false
	}
	if q.GitCommit != nil {
		if mem.Metadata.GitCommit == nil || *mem.Metadata.GitCommit != *q.GitCommit {
			return false
		}
	}
	if q.MinImportance != nil && mem.Metadata.Importance < *q.MinImportance {
		return false
	}
	if q.MinConfidence != nil && mem.Metadata.Confidence < *q.MinConfidence {
		return false
	}
	if q.CreatedAfter != nil && mem.CreatedAt.Before(*q.CreatedAfter) {
		return false
	}
	if q.CreatedBefore != nil && mem.CreatedAt.After(*q.CreatedBefore) {
		return false
	}
	return true
}

func containsType(types []memory.Type, t memory.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func intersects(want, have []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if set[w] {
			return true
		}
	}
	return false
}

// buildTypeAndCommitPredicate renders a pushdown WHERE fragment for the two
// filters cheap to evaluate in SQL before rows ever reach Go: memory_type
// membership and an exact git_commit match. Every value is quoted via
// quoteSQLString (doubling embedded single quotes), per the store's safety
// clause — this is the one place in the store that assembles a predicate
// by string concatenation rather than a placeholder, so it is the one
// place that rule actually applies to.
func buildTypeAndCommitPredicate(q memory.Query) string {
	var clauses []string
	if len(q.MemoryTypes) > 0 {
		quoted := make([]string, len(q.MemoryTypes))
		for i, t := range q.MemoryTypes {
			quoted[i] = quoteSQLString(string(t))
		}
		clauses = append(clauses, "memory_type IN ("+strings.Join(quoted, ", ")+")")
	}
	if q.GitCommit != nil {
		clauses = append(clauses, "git_commit = "+quoteSQLString(*q.GitCommit))
	}
	if len(clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(clauses, " AND ")
}
