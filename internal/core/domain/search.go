package domain

// SearchFilters narrows search results by recipe attributes.
// Zero values mean "no constraint".
type SearchFilters struct {
	// Cuisine matches the recipe cuisine exactly (case-insensitive).
	Cuisine string

	// Diet matches the recipe diet exactly (case-insensitive).
	Diet string

	// MaxMinutes keeps recipes whose parsed preparation time is at most
	// this many minutes.
	MaxMinutes int

	// MaxCalories keeps recipes with at most this many calories.
	// Recipes without a calorie count are excluded when set.
	MaxCalories int
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.Cuisine == "" && f.Diet == "" && f.MaxMinutes == 0 && f.MaxCalories == 0
}

// SearchResult is a single retrieval hit.
type SearchResult struct {
	// Recipe is the matched recipe.
	Recipe Recipe

	// Similarity is the cosine similarity of the query to the recipe (0-1).
	Similarity float64

	// MatchScore is the keyword-overlap validation of the match (0-1).
	MatchScore float64

	// Confidence is the coarse confidence level derived from
	// (Similarity + MatchScore) / 2.
	Confidence ConfidenceLevel
}

// RetrievalReport summarises a whole result set.
type RetrievalReport struct {
	// Confidence is the aggregate confidence level.
	Confidence ConfidenceLevel

	// AvgSimilarity is the mean similarity across results.
	AvgSimilarity float64

	// AvgMatchScore is the mean match-validation score across results.
	AvgMatchScore float64

	// Issues lists detected quality problems, empty when none.
	Issues []string
}

// ConfidenceLevel is a coarse confidence bucket.
type ConfidenceLevel string

const (
	// ConfidenceLow is a combined score at or below 0.4.
	ConfidenceLow ConfidenceLevel = "low"

	// ConfidenceMedium is a combined score above 0.4.
	ConfidenceMedium ConfidenceLevel = "medium"

	// ConfidenceHigh is a combined score above 0.7.
	ConfidenceHigh ConfidenceLevel = "high"
)

// ConfidenceFor buckets a combined similarity and validation score.
func ConfidenceFor(similarity, matchScore float64) ConfidenceLevel {
	combined := (similarity + matchScore) / 2
	switch {
	case combined > 0.7:
		return ConfidenceHigh
	case combined > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
