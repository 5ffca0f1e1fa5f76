package driven

import (
	"context"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

// AnswerGenerator drafts an answer to a query from supporting recipes.
// The output may be nondeterministic; the core never depends on it
// being stable, only on validating whatever comes back.
type AnswerGenerator interface {
	// Generate produces candidate answer text for the query.
	Generate(ctx context.Context, query string, sources []domain.SearchResult) (string, error)

	// Close releases resources.
	Close() error
}

// ClaimExtractor splits generated text into atomic factual claims.
// Pluggable so a heuristic splitter can be swapped for a model-backed
// one without touching the validator.
type ClaimExtractor interface {
	// ExtractClaims returns the claims found in text, in order.
	// An empty slice for non-empty text is a valid outcome and is
	// handled by validation policy, not treated as an error.
	ExtractClaims(text string) []string
}
