package driving

import (
	"context"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

// SearchService answers queries against the recipe index.
type SearchService interface {
	// Search returns at most topK recipes ranked by similarity to the
	// query, after applying filters. An empty result is not an error.
	Search(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.SearchResult, *domain.RetrievalReport, error)
}

// AnswerService generates and validates answers.
type AnswerService interface {
	// Answer retrieves supporting recipes, drafts an answer and
	// validates it against the sources.
	Answer(ctx context.Context, query string, filters domain.SearchFilters) (*domain.GeneratedAnswer, error)
}
