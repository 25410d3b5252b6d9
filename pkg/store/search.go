package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/octobrain-ai/octobrain/internal/encoding"
	"github.com/octobrain-ai/octobrain/pkg/decay"
	"github.com/octobrain-ai/octobrain/pkg/embedding"
	"github.com/octobrain-ai/octobrain/pkg/memory"
)

// Search dispatches to HybridSearch when hybrid search is enabled and the
// query carries text, otherwise to VectorSearch, then applies the optional
// reranker pass over the result.
func (s *Store) Search(ctx context.Context, q memory.Query) ([]memory.SearchResult, error) {
	var results []memory.SearchResult
	var err error
	if s.cfg.HybridEnabled && q.QueryText != nil && strings.TrimSpace(*q.QueryText) != "" {
		hq := s.defaultHybridQuery()
		hq.VectorQuery = q.QueryText
		hq.Filters = q
		results, err = s.HybridSearch(ctx, hq)
	} else {
		results, err = s.VectorSearch(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if q.QueryText == nil {
		return results, nil
	}
	return s.rerank(ctx, *q.QueryText, results)
}

// defaultHybridQuery seeds a HybridSearchQuery from the store's configured
// "search.hybrid.default_*_weight" options, matching the original's
// convert_to_hybrid_query, which builds vector_weight/keyword_weight/
// recency_weight/importance_weight from hybrid_config.default_*_weight
// rather than a fixed constant. Falls back to
// memory.DefaultHybridSearchQuery()'s 0.6/0.2/0.1/0.1 when the store was
// never configured with any of the four (all zero).
func (s *Store) defaultHybridQuery() memory.HybridSearchQuery {
	c := s.cfg
	if c.DefaultVectorWeight == 0 && c.DefaultKeywordWeight == 0 && c.DefaultRecencyWeight == 0 && c.DefaultImportanceWeight == 0 {
		return memory.DefaultHybridSearchQuery()
	}
	return memory.HybridSearchQuery{
		VectorWeight:     c.DefaultVectorWeight,
		KeywordWeight:    c.DefaultKeywordWeight,
		RecencyWeight:    c.DefaultRecencyWeight,
		ImportanceWeight: c.DefaultImportanceWeight,
	}
}

// rerank applies the configured reranker adapter to results, materializing
// each candidate as "<title>\n<content>\nTags: <tags joined by comma>" and
// overwriting RelevanceScore with the reranker's score (narrowed to
// float32). Pass-through if no reranker is configured or it is disabled.
func (s *Store) rerank(ctx context.Context, query string, results []memory.SearchResult) ([]memory.SearchResult, error) {
	if s.cfg.Reranker == nil || !s.cfg.RerankerCfg.Enabled || len(results) == 0 {
		return results, nil
	}

	candidates := make([]string, len(results))
	scores := make([]float64, len(results))
	for i, r := range results {
		candidates[i] = embedding.MakeCandidateText(r.Memory.Title, r.Memory.Content, r.Memory.Metadata.Tags)
		scores[i] = float64(r.RelevanceScore)
	}

	matches, err := embedding.Rerank(ctx, s.cfg.Reranker, s.cfg.RerankerCfg, query, candidates, scores)
	if err != nil {
		return nil, wrapError("rerank", err)
	}

	reranked := make([]memory.SearchResult, 0, len(matches))
	for _, m := range matches {
		if m.Index < 0 || m.Index >= len(results) {
			continue
		}
		r := results[m.Index]
		r.RelevanceScore = m.Score
		reranked = append(reranked, r)
	}
	return reranked, nil
}

// allRows loads every row in the table, decoded into memory.Memory.
func (s *Store) allRows(ctx context.Context) ([]memory.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, memory_type, title, content, created_at, updated_at, importance, confidence, tags_json, related_files_json, git_commit, embedding
		FROM memories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []memory.Memory
	for rows.Next() {
		var row memoryRow
		if err := rows.Scan(&row.ID, &row.MemoryType, &row.Title, &row.Content, &row.CreatedAt, &row.UpdatedAt,
			&row.Importance, &row.Confidence, &row.TagsJSON, &row.RelatedFilesJSON, &row.GitCommit, &row.Embedding); err != nil {
			return nil, err
		}
		mem, err := memoryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

// candidateRows loads rows matching the cheap SQL-pushdown predicate built
// from q (memory_type/git_commit), leaving the rest of matchesFilters to
// run in Go over the smaller candidate set.
func (s *Store) candidateRows(ctx context.Context, q memory.Query) ([]memory.Memory, error) {
	query := `
		SELECT id, memory_type, title, content, created_at, updated_at, importance, confidence, tags_json, related_files_json, git_commit, embedding
		FROM memories WHERE 1=1` + buildTypeAndCommitPredicate(q)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []memory.Memory
	for rows.Next() {
		var row memoryRow
		if err := rows.Scan(&row.ID, &row.MemoryType, &row.Title, &row.Content, &row.CreatedAt, &row.UpdatedAt,
			&row.Importance, &row.Confidence, &row.TagsJSON, &row.RelatedFilesJSON, &row.GitCommit, &row.Embedding); err != nil {
			return nil, err
		}
		mem, err := memoryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

// vectorCandidates narrows the candidate set using the trained IVF index
// when one is available and q carries no SQL-pushdown-able filter (memory
// type / git commit), which would otherwise exclude rows the index doesn't
// know about. IVF partitioning itself runs on Euclidean distance (the
// k-means trainer's native metric); the candidate ids it returns are still
// re-scored by exact cosine similarity in VectorSearch, so approximate
// partitioning never substitutes for the cosine relevance score, only for
// which rows get scored at all. Falls back to the full SQL-filtered scan
// whenever there's no query vector, no trained index, or an empty result
// from the index (e.g. too few rows were indexed at training time).
func (s *Store) vectorCandidates(ctx context.Context, q memory.Query, queryVec []float32, limit int) ([]memory.Memory, error) {
	s.mu.Lock()
	ivf, trained := s.ivf, s.ivfTrain
	s.mu.Unlock()

	usableIVF := trained && ivf != nil && queryVec != nil && buildTypeAndCommitPredicate(q) == ""
	if !usableIVF {
		return s.candidateRows(ctx, q)
	}

	ids, _, err := ivf.Search(queryVec, candidateMultiplier*limit)
	if err != nil || len(ids) == 0 {
		return s.candidateRows(ctx, q)
	}

	out := make([]memory.Memory, 0, len(ids))
	for _, id := range ids {
		row, err := s.getRow(ctx, id)
		if err != nil || row == nil {
			continue
		}
		mem, err := memoryFromRow(*row)
		if err != nil {
			continue
		}
		out = append(out, mem)
	}
	return out, nil
}

// VectorSearch embeds query_text if
// present, rank candidates by cosine similarity weighted by current
// importance, apply filters, and sort/truncate per q.
func (s *Store) VectorSearch(ctx context.Context, q memory.Query) ([]memory.SearchResult, error) {
	limit := 50
	if q.Limit != nil && *q.Limit > 0 {
		limit = *q.Limit
	}
	minRelevance := float32(0)
	if q.MinRelevance != nil {
		minRelevance = *q.MinRelevance
	}

	var queryVec []float32
	if q.QueryText != nil && strings.TrimSpace(*q.QueryText) != "" {
		if s.gateway == nil {
			return nil, wrapError("vector_search", fmt.Errorf("%w: no embedding gateway configured", ErrStorageError))
		}
		vec, err := s.gateway.EmbedOne(ctx, *q.QueryText)
		if err != nil {
			return nil, wrapError("vector_search", err)
		}
		queryVec = vec
	}

	candidates, err := s.vectorCandidates(ctx, q, queryVec, limit)
	if err != nil {
		return nil, wrapError("vector_search", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	var results []memory.SearchResult
	for _, mem := range candidates {
		if !matchesFilters(mem, q) {
			continue
		}

		currentImportance := mem.GetCurrentImportance(s.cfg.Memory.DecayEnabled, s.cfg.Memory.MinImportanceThreshold)

		var score float32
		var reason string
		if queryVec != nil {
			similarity := float32(encoding.CosineSimilarity(queryVec, mem.Embedding))
			score = similarity * currentImportance
			reason = fmt.Sprintf("vector:%.2f importance:%.2f", similarity, currentImportance)
		} else {
			score = currentImportance
			reason = fmt.Sprintf("importance:%.2f", currentImportance)
		}

		if score < minRelevance {
			continue
		}
		if q.RecordAccess {
			mem.RecordAccess()
		}
		results = append(results, memory.SearchResult{Memory: mem, RelevanceScore: score, SelectionReason: reason})
	}

	sortResults(results, q.SortBy, q.SortOrder, s.cfg.Memory.DecayEnabled, s.cfg.Memory.MinImportanceThreshold)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchByVector is the narrow vector-only search the graph package's
// auto-linking uses: no text embedding step, no filters, just nearest
// neighbors by cosine similarity, sorted descending.
func (s *Store) SearchByVector(ctx context.Context, vector []float32, limit int) ([]memory.SearchResult, error) {
	candidates, err := s.allRows(ctx)
	if err != nil {
		return nil, wrapError("search_by_vector", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	var results []memory.SearchResult
	for _, mem := range candidates {
		if len(mem.Embedding) == 0 {
			continue
		}
		similarity := float32(encoding.CosineSimilarity(vector, mem.Embedding))
		results = append(results, memory.SearchResult{Memory: mem, RelevanceScore: similarity})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func sortResults(results []memory.SearchResult, sortBy *memory.SortBy, sortOrder *memory.SortOrder, decayEnabled bool, minThreshold float32) {
	desc := sortOrder == nil || *sortOrder != memory.Ascending

	less := func(i, j int) bool {
		if sortBy == nil {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		switch *sortBy {
		case memory.SortByCreatedAt:
			if desc {
				return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
			}
			return results[i].Memory.CreatedAt.Before(results[j].Memory.CreatedAt)
		case memory.SortByImportance:
			ii := results[i].Memory.GetCurrentImportance(decayEnabled, minThreshold)
			ij := results[j].Memory.GetCurrentImportance(decayEnabled, minThreshold)
			if desc {
				return ii > ij
			}
			return ii < ij
		default:
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
	}
	sort.SliceStable(results, less)
}

// tokenize lowercases s and splits on any rune that isn't alphanumeric or
// underscore, dropping empty tokens. Matches the universal property
// exactly: tokenize("Hello, World! test-case with_underscores") ==
// ["hello","world","test","case","with_underscores"].
func tokenize(s string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// termFrequency returns count(k, tokens(text)) / |tokens(text)|,
// case-insensitive, 0 when the token list is empty.
func termFrequency(keyword, text string) float32 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	k := strings.ToLower(keyword)
	count := 0
	for _, t := range tokens {
		if t == k {
			count++
		}
	}
	return float32(count) / float32(len(tokens))
}

// KeywordSearch performs per-field TF scoring
// weighted by field (title 3.0, content 1.0, tags 2.0, tags joined by
// space), summed across keywords and fields, filtered, then max-normalized
// into [0,1] across the candidate set.
func (s *Store) KeywordSearch(ctx context.Context, keywords []string, filters memory.Query) ([]memory.SearchResult, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	titleW := s.cfg.KeywordTitleWeight
	contentW := s.cfg.KeywordContentWeight
	tagsW := s.cfg.KeywordTagsWeight
	if titleW == 0 && contentW == 0 && tagsW == 0 {
		titleW, contentW, tagsW = 3.0, 1.0, 2.0
	}

	candidates, err := s.candidateRows(ctx, filters)
	if err != nil {
		return nil, wrapError("keyword_search", fmt.Errorf("%w: %v", ErrStorageError, err))
	}

	type scored struct {
		mem   memory.Memory
		score float32
	}
	var scoredList []scored
	maxScore := float32(0)

	for _, mem := range candidates {
		if !matchesFilters(mem, filters) {
			continue
		}
		tagsText := strings.Join(mem.Metadata.Tags, " ")
		var total float32
		for _, kw := range keywords {
			total += termFrequency(kw, mem.Title) * titleW
			total += termFrequency(kw, mem.Content) * contentW
			total += termFrequency(kw, tagsText) * tagsW
		}
		if total > maxScore {
			maxScore = total
		}
		scoredList = append(scoredList, scored{mem: mem, score: total})
	}

	var results []memory.SearchResult
	for _, sc := range scoredList {
		norm := sc.score
		if maxScore > 0 {
			norm = sc.score / maxScore
		}
		results = append(results, memory.SearchResult{
			Memory:          sc.mem,
			RelevanceScore:  norm,
			SelectionReason: fmt.Sprintf("keyword:%.2f", norm),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })
	return results, nil
}

// HybridSearch linearly combines vector,
// keyword, recency, and current-importance signals over a candidate set
// assembled from whichever of vector_query/keywords are present, or the
// full filtered table if neither is (pure recency/importance retrieval).
func (s *Store) HybridSearch(ctx context.Context, hq memory.HybridSearchQuery) ([]memory.SearchResult, error) {
	if err := hq.Validate(); err != nil {
		return nil, wrapError("hybrid_search", fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	hq.NormalizeWeights()

	limit := s.cfg.MaxResults
	if hq.Filters.Limit != nil && *hq.Filters.Limit > 0 {
		limit = *hq.Filters.Limit
	}
	if limit <= 0 {
		limit = 50
	}
	minRelevance := float32(0)
	if hq.Filters.MinRelevance != nil {
		minRelevance = *hq.Filters.MinRelevance
	}

	type components struct {
		mem      memory.Memory
		vec, kw  float32
		rec, imp float32
		hasVec   bool
	}
	candidates := map[string]*components{}

	ensure := func(mem memory.Memory) *components {
		c, ok := candidates[mem.ID]
		if !ok {
			c = &components{mem: mem}
			candidates[mem.ID] = c
		}
		return c
	}

	if hq.VectorQuery != nil {
		vq := hq.Filters
		doubled := 2 * limit
		vq.Limit = &doubled
		vq.QueryText = hq.VectorQuery
		vResults, err := s.VectorSearch(ctx, vq)
		if err != nil {
			return nil, wrapError("hybrid_search", err)
		}
		for _, r := range vResults {
			c := ensure(r.Memory)
			c.vec = r.RelevanceScore
			c.hasVec = true
		}
	}

	if len(hq.Keywords) > 0 {
		kResults, err := s.KeywordSearch(ctx, hq.Keywords, hq.Filters)
		if err != nil {
			return nil, wrapError("hybrid_search", err)
		}
		for _, r := range kResults {
			c := ensure(r.Memory)
			c.kw = r.RelevanceScore
		}
	}

	if hq.VectorQuery == nil && len(hq.Keywords) == 0 {
		all, err := s.candidateRows(ctx, hq.Filters)
		if err != nil {
			return nil, wrapError("hybrid_search", fmt.Errorf("%w: %v", ErrStorageError, err))
		}
		for _, mem := range all {
			if !matchesFilters(mem, hq.Filters) {
				continue
			}
			ensure(mem)
		}
	}

	recencyDays := s.cfg.RecencyDecayDays
	if recencyDays <= 0 {
		recencyDays = 30
	}

	var results []memory.SearchResult
	for _, c := range candidates {
		c.rec = decay.Recency(c.mem.CreatedAt, recencyDays)
		c.imp = c.mem.GetCurrentImportance(s.cfg.Memory.DecayEnabled, s.cfg.Memory.MinImportanceThreshold)

		final := hq.VectorWeight*c.vec + hq.KeywordWeight*c.kw + hq.RecencyWeight*c.rec + hq.ImportanceWeight*c.imp
		if final < minRelevance {
			continue
		}
		mem := c.mem
		if hq.Filters.RecordAccess {
			mem.RecordAccess()
		}
		reason := fmt.Sprintf("vector:%.2f keyword:%.2f recency:%.2f importance:%.2f final:%.2f", c.vec, c.kw, c.rec, c.imp, final)
		results = append(results, memory.SearchResult{Memory: mem, RelevanceScore: final, SelectionReason: reason})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
