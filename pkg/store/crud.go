package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/octobrain-ai/octobrain/internal/encoding"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

const minTitleLen = 5
const maxTitleLen = 200

func validateMemory(mem memory.Memory) error {
	if len(mem.Title) < minTitleLen || len(mem.Title) > maxTitleLen {
		return fmt.Errorf("%w: title must be %d-%d characters, got %d", ErrInvalidInput, minTitleLen, maxTitleLen, len(mem.Title))
	}
	return nil
}

// Store computes the embedding of mem's searchable text (if a gateway is
// configured and mem doesn't already carry one), then performs the
// delete-then-append upsert: any prior row with the same id is removed
// before the new row is appended. The index is not touched here
// reserves index (re)building for Open/RebuildIndex.
func (s *Store) Store(ctx context.Context, mem memory.Memory) error {
	if err := validateMemory(mem); err != nil {
		return wrapError("store", err)
	}

	if len(mem.Embedding) == 0 && s.gateway != nil {
		vec, err := s.gateway.EmbedOne(ctx, mem.GetSearchableText())
		if err != nil {
			return wrapError("store", err)
		}
		mem.Embedding = vec
	}

	if len(mem.Embedding) > 0 {
		if err := encoding.ValidateVector(mem.Embedding); err != nil {
			return wrapError("store", fmt.Errorf("%w: %v", ErrStorageError, err))
		}
	}

	row, embBytes, err := rowFromMemory(mem)
	if err != nil {
		return wrapError("store", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Non-atomic by design: delete then append as two
	// sequential statements inside this mutex's critical section, not a SQL
	// transaction. The mutex already serializes intra-process races; the
	// documented non-atomicity is with respect to crash/cancellation
	// mid-upsert, which this doesn't attempt to fix.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", row.ID); err != nil {
		return wrapError("store", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories
			(id, memory_type, title, content, created_at, updated_at, importance, confidence, tags_json, related_files_json, git_commit, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.MemoryType, row.Title, row.Content, row.CreatedAt, row.UpdatedAt,
		row.Importance, row.Confidence, row.TagsJSON, row.RelatedFilesJSON, row.GitCommit, nullableBlob(embBytes),
	)
	if err != nil {
		return wrapError("store", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	return nil
}

// Update is behaviorally identical to Store: the caller is expected to have
// already applied its patch (memory.Memory.Update) before calling this.
func (s *Store) Update(ctx context.Context, mem memory.Memory) error {
	return s.Store(ctx, mem)
}

// Delete removes the memories row for id and best-effort removes any
// memory_relationships row referencing it as source or target. A missing
// id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id); err != nil {
		return wrapError("delete", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM memory_relationships WHERE source_id = ? OR target_id = ?", id, id); err != nil {
		return wrapError("delete", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	return nil
}

// DeleteByQuery deletes every memory matching q's filter conjunction
// (matchesFilters: memory_types, tags, related_files, git_commit,
// importance/confidence thresholds, created_at window), along with their
// relationships, the same as Delete does per id. This is forget's "by
// query match set" destroy path, alongside Delete's by-id path; q.QueryText
// is ignored since this resolves a match set, not a ranked search. Returns
// the count removed.
func (s *Store) DeleteByQuery(ctx context.Context, q memory.Query) (int, error) {
	candidates, err := s.candidateRows(ctx, q)
	if err != nil {
		return 0, wrapError("delete_by_query", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	var ids []string
	for _, mem := range candidates {
		if matchesFilters(mem, q) {
			ids = append(ids, mem.ID)
		}
	}

	removed := 0
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Get is a point lookup by id, returning nil (not an error) if absent.
func (s *Store) Get(ctx context.Context, id string) (*memory.Memory, error) {
	row, err := s.getRow(ctx, id)
	if err != nil {
		return nil, wrapError("get", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	if row == nil {
		return nil, nil
	}
	mem, err := memoryFromRow(*row)
	if err != nil {
		return nil, wrapError("get", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	return &mem, nil
}

func (s *Store) getRow(ctx context.Context, id string) (*memoryRow, error) {
	var row memoryRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, memory_type, title, content, created_at, updated_at, importance, confidence, tags_json, related_files_json, git_commit, embedding
		FROM memories WHERE id = ?`, id).
		Scan(&row.ID, &row.MemoryType, &row.Title, &row.Content, &row.CreatedAt, &row.UpdatedAt,
			&row.Importance, &row.Confidence, &row.TagsJSON, &row.RelatedFilesJSON, &row.GitCommit, &row.Embedding)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func nullableBlob(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
