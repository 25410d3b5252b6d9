// Package memory defines the entity types stored and queried by octobrain's
// memory store: the Memory itself, its decay-tracked metadata, typed
// relationships between memories, and the query shapes the store accepts.
package memory

import (
	"fmt"
	"time"

	"github.com/octobrain-ai/octobrain/pkg/decay"
)

// Type is the closed set of memory kinds. Unknown input strings map to
// TypeInsight, matching the fallback behavior of the system this package
// models.
type Type string

const (
	TypeCode           Type = "code"
	TypeArchitecture   Type = "architecture"
	TypeBugFix         Type = "bug_fix"
	TypeFeature        Type = "feature"
	TypeDocumentation  Type = "documentation"
	TypeUserPreference Type = "user_preference"
	TypeDecision       Type = "decision"
	TypeLearning       Type = "learning"
	TypeConfiguration  Type = "configuration"
	TypeTesting        Type = "testing"
	TypePerformance    Type = "performance"
	TypeSecurity       Type = "security"
	TypeInsight        Type = "insight"
)

// ParseType maps a free-form string (case-insensitive, with common aliases)
// onto the closed Type enum, defaulting to TypeInsight for anything it
// doesn't recognize.
func ParseType(s string) Type {
	switch lower(s) {
	case "code":
		return TypeCode
	case "architecture":
		return TypeArchitecture
	case "bug_fix", "bugfix", "bug":
		return TypeBugFix
	case "feature":
		return TypeFeature
	case "documentation", "docs", "doc":
		return TypeDocumentation
	case "user_preference", "preference", "user":
		return TypeUserPreference
	case "decision", "meeting", "planning":
		return TypeDecision
	case "learning", "tutorial", "education":
		return TypeLearning
	case "configuration", "config", "setup", "deployment":
		return TypeConfiguration
	case "testing", "test", "qa":
		return TypeTesting
	case "performance", "perf", "optimization":
		return TypePerformance
	case "security", "vulnerability", "vuln":
		return TypeSecurity
	default:
		return TypeInsight
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// RelationshipType is a closed tagged union with a free-form escape hatch:
// the named constants cover the seven standard edge kinds plus AutoLinked,
// and any other string value is treated as a custom relationship tag.
type RelationshipType string

const (
	RelatedTo  RelationshipType = "related_to"
	DependsOn  RelationshipType = "depends_on"
	Supersedes RelationshipType = "supersedes"
	Similar    RelationshipType = "similar"
	Conflicts  RelationshipType = "conflicts"
	Implements RelationshipType = "implements"
	Extends    RelationshipType = "extends"
	AutoLinked RelationshipType = "auto_linked"
)

// Custom builds a RelationshipType from an arbitrary tag. The closed cases
// above are themselves just string constants, so Custom("related_to") and
// RelatedTo compare equal.
func Custom(tag string) RelationshipType { return RelationshipType(tag) }

// Clamp01 clamps v into [0,1], the bound every importance, confidence,
// relationship strength, and normalized score is clamped to on write.
func Clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Metadata carries the side information attached to every Memory.
type Metadata struct {
	GitCommit    *string           `json:"git_commit,omitempty"`
	RelatedFiles []string          `json:"related_files"`
	Tags         []string          `json:"tags"`
	Importance   float32           `json:"importance"`
	Confidence   float32           `json:"confidence"`
	CreatedBy    *string           `json:"created_by,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	Decay        decay.Decay       `json:"decay"`
}

// DefaultMetadata returns the zero-value metadata used when a caller creates
// a Memory without supplying its own: importance 0.5, confidence 1.0, empty
// tag/file lists, and a fresh Decay record.
func DefaultMetadata() Metadata {
	return Metadata{
		RelatedFiles: []string{},
		Tags:         []string{},
		Importance:   0.5,
		Confidence:   1.0,
		CustomFields: map[string]string{},
		Decay:        decay.New(0.5),
	}
}

// Memory is a single titled, embedded knowledge entry.
type Memory struct {
	ID             string    `json:"id"`
	MemoryType     Type      `json:"memory_type"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Metadata       Metadata  `json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Embedding      []float32 `json:"-"`
	RelevanceScore *float32  `json:"relevance_score,omitempty"`
}

// GetSearchableText returns the exact text sent to the embedder: title,
// content, tags, and related files, space-joined in that order.
func (m *Memory) GetSearchableText() string {
	return fmt.Sprintf("%s %s %s %s",
		m.Title, m.Content, joinSpace(m.Metadata.Tags), joinSpace(m.Metadata.RelatedFiles))
}

func joinSpace(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

// GetCurrentImportance returns the decay-adjusted importance when decay is
// enabled, or the raw base importance otherwise.
func (m *Memory) GetCurrentImportance(decayEnabled bool, minThreshold float32) float32 {
	if decayEnabled {
		return decay.CurrentImportance(m.Metadata.Decay, minThreshold)
	}
	return m.Metadata.Importance
}

// RecordAccess reinforces the memory's decay record for a read that opted
// into access tracking.
func (m *Memory) RecordAccess() {
	m.Metadata.Decay.RecordAccess()
}

// AddTag inserts tag if not already present, preserving first-seen order,
// and touches UpdatedAt only when it actually changes the tag set.
func (m *Memory) AddTag(tag string) {
	for _, t := range m.Metadata.Tags {
		if t == tag {
			return
		}
	}
	m.Metadata.Tags = append(m.Metadata.Tags, tag)
	m.UpdatedAt = time.Now().UTC()
}

// RemoveTag removes tag if present, touching UpdatedAt only on change.
func (m *Memory) RemoveTag(tag string) {
	for i, t := range m.Metadata.Tags {
		if t == tag {
			m.Metadata.Tags = append(m.Metadata.Tags[:i], m.Metadata.Tags[i+1:]...)
			m.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// AddRelatedFile inserts a file path if not already present.
func (m *Memory) AddRelatedFile(path string) {
	for _, f := range m.Metadata.RelatedFiles {
		if f == path {
			return
		}
	}
	m.Metadata.RelatedFiles = append(m.Metadata.RelatedFiles, path)
	m.UpdatedAt = time.Now().UTC()
}

// RemoveRelatedFile removes a file path if present.
func (m *Memory) RemoveRelatedFile(path string) {
	for i, f := range m.Metadata.RelatedFiles {
		if f == path {
			m.Metadata.RelatedFiles = append(m.Metadata.RelatedFiles[:i], m.Metadata.RelatedFiles[i+1:]...)
			m.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// SortBy selects the field MemoryQuery results are ordered by when no
// relevance-based ordering applies.
type SortBy string

const (
	SortByCreatedAt   SortBy = "created_at"
	SortByImportance  SortBy = "importance"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Ascending  SortOrder = "ascending"
	Descending SortOrder = "descending"
)

// Query is the filter/sort/limit contract shared by vector_search and as
// the `filters` field of HybridSearchQuery.
type Query struct {
	QueryText      *string
	MemoryTypes    []Type
	Tags           []string
	RelatedFiles   []string
	GitCommit      *string
	MinImportance  *float32
	MinConfidence  *float32
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	Limit          *int
	MinRelevance   *float32
	SortBy         *SortBy
	SortOrder      *SortOrder
	// RecordAccess opts into decay reinforcement for every memory this
	// query returns. Off by default so that repeated reads don't mutate
	// the store (see SPEC_FULL.md on the get(store(m)) == m invariant).
	RecordAccess bool
}

// HybridSearchQuery combines a vector query, keyword list, and four
// normalized signal weights over the same filters as Query.
type HybridSearchQuery struct {
	VectorQuery      *string
	Keywords         []string
	VectorWeight     float32
	KeywordWeight    float32
	RecencyWeight    float32
	ImportanceWeight float32
	Filters          Query
}

// DefaultHybridSearchQuery returns the default weighting: 0.6 vector, 0.2
// keyword, 0.1 recency, 0.1 importance.
func DefaultHybridSearchQuery() HybridSearchQuery {
	return HybridSearchQuery{
		VectorWeight:     0.6,
		KeywordWeight:    0.2,
		RecencyWeight:    0.1,
		ImportanceWeight: 0.1,
	}
}

// NormalizeWeights rescales the four weights so they sum to 1.0, preserving
// their ratios. A zero-sum weight vector is left untouched.
func (h *HybridSearchQuery) NormalizeWeights() {
	sum := h.VectorWeight + h.KeywordWeight + h.RecencyWeight + h.ImportanceWeight
	if sum <= 0 {
		return
	}
	h.VectorWeight /= sum
	h.KeywordWeight /= sum
	h.RecencyWeight /= sum
	h.ImportanceWeight /= sum
}

// Validate rejects out-of-range weights and queries with neither a vector
// query nor keywords set.
func (h *HybridSearchQuery) Validate() error {
	if h.VectorWeight < 0 || h.VectorWeight > 1 {
		return fmt.Errorf("vector_weight must be in [0,1], got %v", h.VectorWeight)
	}
	if h.KeywordWeight < 0 || h.KeywordWeight > 1 {
		return fmt.Errorf("keyword_weight must be in [0,1], got %v", h.KeywordWeight)
	}
	if h.RecencyWeight < 0 || h.RecencyWeight > 1 {
		return fmt.Errorf("recency_weight must be in [0,1], got %v", h.RecencyWeight)
	}
	if h.ImportanceWeight < 0 || h.ImportanceWeight > 1 {
		return fmt.Errorf("importance_weight must be in [0,1], got %v", h.ImportanceWeight)
	}
	if h.VectorQuery == nil && len(h.Keywords) == 0 {
		return fmt.Errorf("at least one of vector_query or keywords must be provided")
	}
	return nil
}

// SearchResult pairs a Memory with its relevance score and a human-readable
// explanation of which signals produced it.
type SearchResult struct {
	Memory          Memory
	RelevanceScore  float32
	SelectionReason string
}

// Relationship is a typed, weighted directed edge between two memory ids.
// Target and source need not refer to an existing row; dangling edges are
// tolerated and filtered at traversal time.
type Relationship struct {
	ID               string
	SourceID         string
	TargetID         string
	RelationshipType RelationshipType
	Strength         float32
	Description      string
	CreatedAt        time.Time
}

// Config carries the memory-system-wide defaults recognized under the
// "Memory defaults" section of config.toml. The auto-link options live in
// graph.AutoLinkConfig.
type Config struct {
	MaxMemories           *int
	AutoCleanupDays       *int
	CleanupMinImportance  float32
	AutoRelationships     bool
	RelationshipThreshold float32
	MaxSearchResults      int
	DefaultImportance     float32
	DecayEnabled          bool
	DecayHalfLifeDays     int
	AccessBoostFactor     float32
	MinImportanceThreshold float32
}

// DefaultConfig mirrors the reference defaults: 10000 max memories, 365-day
// auto-cleanup at importance below 0.1, decay on with a 90-day half-life.
func DefaultConfig() Config {
	maxMemories := 10000
	autoCleanupDays := 365
	return Config{
		MaxMemories:            &maxMemories,
		AutoCleanupDays:        &autoCleanupDays,
		CleanupMinImportance:   0.1,
		AutoRelationships:      true,
		RelationshipThreshold:  0.7,
		MaxSearchResults:       50,
		DefaultImportance:      0.5,
		DecayEnabled:           true,
		DecayHalfLifeDays:      90,
		AccessBoostFactor:      1.2,
		MinImportanceThreshold: 0.05,
	}
}
