package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/octobrain-ai/octobrain/internal/encoding"
	"github.com/octobrain-ai/octobrain/pkg/decay"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// memoryRow mirrors one row of the memories table, in the shape
// database/sql scans into before it's decoded into a memory.Memory.
type memoryRow struct {
	ID               string
	MemoryType       string
	Title            string
	Content          string
	CreatedAt        string
	UpdatedAt        string
	Importance       float32
	Confidence       float32
	TagsJSON         *string
	RelatedFilesJSON *string
	GitCommit        *string
	Embedding        []byte
}

// rowFromMemory prepares a memory.Memory for insertion: JSON-encodes tags
// and related files, and little-endian-encodes the embedding vector.
//
// Per the original's own read-back behavior (confirmed against
// original_source/src/memory/store.rs, whose get_memory reconstructs
// MemoryMetadata with ..Default::default() for every field the schema
// doesn't carry), created_by, custom_fields, and the decay bookkeeping
// fields (access_count, last_accessed, decay_rate) are not persisted —
// only base importance and confidence round-trip. A Decay record is
// rebuilt fresh from the stored importance on every read.
func rowFromMemory(mem memory.Memory) (memoryRow, []byte, error) {
	tagsJSON, err := json.Marshal(mem.Metadata.Tags)
	if err != nil {
		return memoryRow{}, nil, fmt.Errorf("encoding tags: %w", err)
	}
	filesJSON, err := json.Marshal(mem.Metadata.RelatedFiles)
	if err != nil {
		return memoryRow{}, nil, fmt.Errorf("encoding related_files: %w", err)
	}
	tagsStr := string(tagsJSON)
	filesStr := string(filesJSON)

	var embBytes []byte
	if len(mem.Embedding) > 0 {
		embBytes, err = encoding.EncodeVector(mem.Embedding)
		if err != nil {
			return memoryRow{}, nil, fmt.Errorf("encoding embedding: %w", err)
		}
	}

	row := memoryRow{
		ID:               mem.ID,
		MemoryType:       string(mem.MemoryType),
		Title:            mem.Title,
		Content:          mem.Content,
		CreatedAt:        mem.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        mem.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Importance:       mem.Metadata.Importance,
		Confidence:       mem.Metadata.Confidence,
		TagsJSON:         &tagsStr,
		RelatedFilesJSON: &filesStr,
		GitCommit:        mem.Metadata.GitCommit,
	}
	return row, embBytes, nil
}

// memoryFromRow reverses rowFromMemory, defaulting the fields the schema
// doesn't carry (see rowFromMemory's doc comment).
func memoryFromRow(row memoryRow) (memory.Memory, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return memory.Memory{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return memory.Memory{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	var tags []string
	if row.TagsJSON != nil && *row.TagsJSON != "" {
		if err := json.Unmarshal([]byte(*row.TagsJSON), &tags); err != nil {
			return memory.Memory{}, fmt.Errorf("decoding tags: %w", err)
		}
	}
	var files []string
	if row.RelatedFilesJSON != nil && *row.RelatedFilesJSON != "" {
		if err := json.Unmarshal([]byte(*row.RelatedFilesJSON), &files); err != nil {
			return memory.Memory{}, fmt.Errorf("decoding related_files: %w", err)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	if files == nil {
		files = []string{}
	}

	vec, err := decodeEmbedding(row.Embedding)
	if err != nil {
		return memory.Memory{}, err
	}

	return memory.Memory{
		ID:         row.ID,
		MemoryType: memory.Type(row.MemoryType),
		Title:      row.Title,
		Content:    row.Content,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Embedding:  vec,
		Metadata: memory.Metadata{
			GitCommit:    row.GitCommit,
			RelatedFiles: files,
			Tags:         tags,
			Importance:   row.Importance,
			Confidence:   row.Confidence,
			CustomFields: map[string]string{},
			Decay:        decay.New(row.Importance),
		},
	}, nil
}

func decodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	vec, err := encoding.DecodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding: %w", err)
	}
	return vec, nil
}

// quoteSQLString escapes a string for inclusion as a SQL string literal in
// a hand-built predicate fragment, doubling embedded single quotes. Used by
// the filter-pushdown IN-list builders in filters.go; every other value in
// this package goes through a parameterized placeholder instead, which
// needs no escaping, but the quoting rule is applied uniformly for
// any filter value injected into a predicate string.
func quoteSQLString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
