package store

import (
	"context"
	"fmt"
	"time"

	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// StoreRelationship upserts a relationship row by id (delete-then-append,
// same pattern as Store). Dangling source/target ids are accepted; the
// spec tolerates and filters them at traversal time, not write time.
func (s *Store) StoreRelationship(ctx context.Context, rel memory.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM memory_relationships WHERE id = ?", rel.ID); err != nil {
		return wrapError("store_relationship", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_relationships (id, source_id, target_id, relationship_type, strength, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.SourceID, rel.TargetID, string(rel.RelationshipType), rel.Strength, rel.Description,
		rel.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return wrapError("store_relationship", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	return nil
}

// GetMemoryRelationships returns every relationship where memoryID is
// either the source or the target.
func (s *Store) GetMemoryRelationships(ctx context.Context, memoryID string) ([]memory.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, target_id, relationship_type, strength, description, created_at
		FROM memory_relationships WHERE source_id = ? OR target_id = ?`, memoryID, memoryID)
	if err != nil {
		return nil, wrapError("get_memory_relationships", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	defer rows.Close()

	var out []memory.Relationship
	for rows.Next() {
		var rel memory.Relationship
		var relType, createdAt string
		if err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &relType, &rel.Strength, &rel.Description, &createdAt); err != nil {
			return nil, wrapError("get_memory_relationships", fmt.Errorf("%w: %v", ErrStorageError, err))
		}
		rel.RelationshipType = memory.RelationshipType(relType)
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, wrapError("get_memory_relationships", fmt.Errorf("%w: %v", ErrStorageError, err))
		}
		rel.CreatedAt = ts
		out = append(out, rel)
	}
	return out, rows.Err()
}
