package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driving"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

var _ driving.SearchService = (*Search)(nil)

const (
	// DefaultTopK is the result count when the caller passes <= 0.
	DefaultTopK = 5

	// DefaultSimilarityThreshold drops weak matches from results.
	DefaultSimilarityThreshold = 0.6

	// DefaultFreshnessTimeout bounds the pre-search sync wait.
	DefaultFreshnessTimeout = 5 * time.Second
)

// Search retrieves recipes by semantic similarity. Before querying the
// index it asks the coordinator to catch up with the library, so a file
// saved moments before a query is reflected in the results.
type Search struct {
	store     driven.RecipeStore
	vectors   driven.VectorIndex
	embedder  driven.EmbeddingService
	sync      driving.SyncCoordinator
	threshold float64
	timeout   time.Duration
}

// NewSearch creates a search service. sync may be nil when freshness is
// handled elsewhere. threshold <= 0 selects the default.
func NewSearch(
	store driven.RecipeStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	sync driving.SyncCoordinator,
	threshold float64,
) *Search {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Search{
		store:     store,
		vectors:   vectors,
		embedder:  embedder,
		sync:      sync,
		threshold: threshold,
		timeout:   DefaultFreshnessTimeout,
	}
}

// Search returns at most topK recipes ranked by similarity to the query.
func (s *Search) Search(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	topK int,
) ([]domain.SearchResult, *domain.RetrievalReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	stale := s.ensureFresh(ctx)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	// Over-fetch so post-retrieval filtering still fills topK. Filters
	// discard an unknown share of hits, so fetch a larger multiple.
	fetchK := topK * 2
	if !filters.IsZero() {
		fetchK = topK * 3
	}

	hits, err := s.vectors.Search(ctx, embedding, fetchK)
	if err != nil {
		return nil, nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Query %q: %d candidate(s) fetched, threshold %.2f", query, len(hits), s.threshold)

	queryWords := significantWords(query)

	results := make([]domain.SearchResult, 0, topK)
	for _, hit := range hits {
		if hit.Similarity < s.threshold {
			continue
		}
		recipe, err := s.store.Get(ctx, hit.RecipeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index briefly ahead of the store; skip the orphan.
				continue
			}
			return nil, nil, fmt.Errorf("load recipe %s: %w", hit.RecipeID, err)
		}
		if recipe.Deleted || !matchesFilters(recipe, filters) {
			continue
		}

		match := matchScore(queryWords, recipe)
		results = append(results, domain.SearchResult{
			Recipe:     *recipe,
			Similarity: hit.Similarity,
			MatchScore: match,
			Confidence: domain.ConfidenceFor(hit.Similarity, match),
		})
	}

	// Deterministic order: similarity, then newer version, then identity.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].Recipe.Version != results[j].Recipe.Version {
			return results[i].Recipe.Version > results[j].Recipe.Version
		}
		return results[i].Recipe.ID < results[j].Recipe.ID
	})
	if len(results) > topK {
		results = results[:topK]
	}

	report := buildReport(results, stale)
	return results, report, nil
}

// ensureFresh runs a bounded sync cycle, reporting true when the index
// may still lag the library.
func (s *Search) ensureFresh(ctx context.Context) bool {
	if s.sync == nil {
		return false
	}
	report, err := s.sync.EnsureUpToDate(ctx, s.timeout)
	if err != nil {
		logger.Warn("Pre-search sync failed, serving from current index: %v", err)
		return true
	}
	return report != nil && report.Stale
}

// matchesFilters applies post-retrieval attribute filters.
func matchesFilters(r *domain.Recipe, f domain.SearchFilters) bool {
	if f.Cuisine != "" && !strings.EqualFold(r.Cuisine, f.Cuisine) {
		return false
	}
	if f.Diet != "" && !strings.EqualFold(r.Diet, f.Diet) {
		return false
	}
	if f.MaxMinutes > 0 {
		minutes, ok := parseMinutes(r.Time)
		if !ok || minutes > f.MaxMinutes {
			return false
		}
	}
	if f.MaxCalories > 0 {
		if r.Calories == 0 || r.Calories > f.MaxCalories {
			return false
		}
	}
	return true
}

// parseMinutes extracts a minute count from a free-form time string
// such as "15 min", "1 hour" or "1 hour 30 min".
func parseMinutes(s string) (int, bool) {
	fields := strings.Fields(strings.ToLower(s))
	total := 0
	found := false
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || i+1 >= len(fields) {
			continue
		}
		unit := strings.TrimSuffix(fields[i+1], "s")
		switch unit {
		case "min", "minute":
			total += n
			found = true
		case "hour", "hr", "h":
			total += n * 60
			found = true
		}
	}
	return total, found
}

// matchScore is the keyword cross-check on a semantic hit: the share of
// significant query words that appear in the recipe's search text. It
// catches embeddings that drift from the literal question.
func matchScore(queryWords []string, r *domain.Recipe) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	text := strings.ToLower(r.SearchText())
	matched := 0
	for _, w := range queryWords {
		if strings.Contains(text, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// significantWords keeps the words worth matching on, lowercased.
func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// buildReport summarises a result set for the caller.
func buildReport(results []domain.SearchResult, stale bool) *domain.RetrievalReport {
	report := &domain.RetrievalReport{Confidence: domain.ConfidenceLow}
	if stale {
		report.Issues = append(report.Issues, "index may lag recent library changes")
	}
	if len(results) == 0 {
		report.Issues = append(report.Issues, "no recipes matched above the similarity threshold")
		return report
	}

	var simSum, matchSum float64
	for _, r := range results {
		simSum += r.Similarity
		matchSum += r.MatchScore
	}
	report.AvgSimilarity = simSum / float64(len(results))
	report.AvgMatchScore = matchSum / float64(len(results))
	report.Confidence = domain.ConfidenceFor(report.AvgSimilarity, report.AvgMatchScore)

	if report.AvgSimilarity < 0.3 {
		report.Issues = append(report.Issues, "low semantic similarity to the query")
	}
	if report.AvgMatchScore < 0.2 {
		report.Issues = append(report.Issues, "results share few query keywords")
	}
	return report
}
