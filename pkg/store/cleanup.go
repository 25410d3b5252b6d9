package store

import (
	"context"
	"fmt"
	"time"
)

// Cleanup deletes memories older than cfg.Memory.AutoCleanupDays whose raw
// importance is below cfg.Memory.CleanupMinImportance, returning the count
// removed. A nil AutoCleanupDays disables cleanup entirely (returns 0, no
// error), matching "if auto_cleanup_days set".
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	if s.cfg.Memory.AutoCleanupDays == nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -*s.cfg.Memory.AutoCleanupDays).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM memories WHERE created_at < ? AND importance < ?",
		cutoff, s.cfg.Memory.CleanupMinImportance)
	if err != nil {
		return 0, wrapError("cleanup", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapError("cleanup", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	return int(n), nil
}

// ClearAll drops and recreates both tables, returning the prior total row
// count across them. SQLite's DROP TABLE doesn't return an affected-row
// count, so the counts are taken before the drop, matching the original's
// count-then-drop ordering (see SPEC_FULL.md).
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var memCount, relCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&memCount); err != nil {
		return 0, wrapError("clear_all", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_relationships").Scan(&relCount); err != nil {
		return 0, wrapError("clear_all", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	if _, err := s.db.ExecContext(ctx, dropTablesSQL); err != nil {
		return 0, wrapError("clear_all", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	if err := s.createTables(ctx); err != nil {
		return 0, wrapError("clear_all", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	s.ivf = nil
	s.ivfTrain = false
	return memCount + relCount, nil
}

// Stats summarizes the store's current contents for the "stats" RPC method
// and CLI command.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var memCount, relCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&memCount); err != nil {
		return Stats{}, wrapError("stats", fmt.Errorf("%w: %v", ErrStorageError, err))
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_relationships").Scan(&relCount); err != nil {
		return Stats{}, wrapError("stats", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	s.mu.Lock()
	indexBuilt := s.ivfTrain
	s.mu.Unlock()

	return Stats{
		TotalMemories:      memCount,
		TotalRelationships: relCount,
		Dimension:          s.dim,
		IndexBuilt:         indexBuilt,
	}, nil
}
