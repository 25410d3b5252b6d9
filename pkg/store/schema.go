package store

import "context"

// createTables creates the two tables if they don't already
// exist: memories (the columnar memory table with a fixed-size vector
// column) and memory_relationships (the edge table). No foreign keys are
// declared — dangling edges are tolerated and filtered at traversal time,
// not cascade-deleted, a deliberate divergence from the teacher's
// FK-heavy schema (see DESIGN.md).
const createTablesSQL = `
CREATE TABLE IF NOT EXISTS memories (
	id                 TEXT PRIMARY KEY,
	memory_type        TEXT NOT NULL,
	title              TEXT NOT NULL,
	content            TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	importance         REAL NOT NULL,
	confidence         REAL NOT NULL,
	tags_json          TEXT,
	related_files_json TEXT,
	git_commit         TEXT,
	embedding          BLOB
);

CREATE INDEX IF NOT EXISTS idx_memories_memory_type ON memories(memory_type);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
CREATE INDEX IF NOT EXISTS idx_memories_git_commit ON memories(git_commit);

CREATE TABLE IF NOT EXISTS memory_relationships (
	id                TEXT PRIMARY KEY,
	source_id         TEXT NOT NULL,
	target_id         TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	strength          REAL NOT NULL,
	description       TEXT,
	created_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relationships_source ON memory_relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON memory_relationships(target_id);
`

const dropTablesSQL = `
DROP TABLE IF EXISTS memories;
DROP TABLE IF EXISTS memory_relationships;
`

func (s *Store) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTablesSQL)
	return err
}
