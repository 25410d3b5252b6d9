package memory

import (
	"time"

	"github.com/google/uuid"
)

// New creates a Memory with a fresh random UUID, both timestamps set to now,
// and default metadata if none is supplied. Tags and related files are
// deduplicated, preserving first-seen order, per the metadata invariant.
func New(memType Type, title, content string, metadata *Metadata) Memory {
	now := time.Now().UTC()
	md := DefaultMetadata()
	if metadata != nil {
		md = *metadata
	}
	md.Tags = dedupe(md.Tags)
	md.RelatedFiles = dedupe(md.RelatedFiles)
	md.Importance = Clamp01(md.Importance)
	md.Confidence = Clamp01(md.Confidence)
	return Memory{
		ID:         uuid.NewString(),
		MemoryType: memType,
		Title:      title,
		Content:    content,
		Metadata:   md,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Update applies a partial patch: any non-nil argument replaces the
// corresponding field, and UpdatedAt is always refreshed.
func (m *Memory) Update(title, content *string, metadata *Metadata) {
	if title != nil {
		m.Title = *title
	}
	if content != nil {
		m.Content = *content
	}
	if metadata != nil {
		md := *metadata
		md.Tags = dedupe(md.Tags)
		md.RelatedFiles = dedupe(md.RelatedFiles)
		md.Importance = Clamp01(md.Importance)
		md.Confidence = Clamp01(md.Confidence)
		m.Metadata = md
	}
	m.UpdatedAt = time.Now().UTC()
}

// dedupe removes repeated entries from ss, preserving the order of first
// occurrence.
func dedupe(ss []string) []string {
	if len(ss) == 0 {
		return ss
	}
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
