package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driving"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

var _ driving.AnswerService = (*Answerer)(nil)

// Answerer retrieves supporting recipes, drafts an answer and validates
// the draft against the retrieved sources before returning it.
type Answerer struct {
	search    driving.SearchService
	generator driven.AnswerGenerator
	validator *Validator
	topK      int
}

// NewAnswerer creates an answer service. topK <= 0 selects the default.
func NewAnswerer(
	search driving.SearchService,
	generator driven.AnswerGenerator,
	validator *Validator,
	topK int,
) *Answerer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Answerer{
		search:    search,
		generator: generator,
		validator: validator,
		topK:      topK,
	}
}

// Answer answers a query from the recipe library. The answer carries
// its validation so callers can surface unsupported claims instead of
// silently trusting generated text.
func (a *Answerer) Answer(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
) (*domain.GeneratedAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	sources, report, err := a.search.Search(ctx, query, filters, a.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve sources: %w", err)
	}
	if len(sources) == 0 {
		return &domain.GeneratedAnswer{
			Query:      query,
			Text:       "I could not find any recipes matching your question.",
			Validation: domain.ValidationResult{Confidence: 1.0},
		}, nil
	}
	logger.Debug("Answering %q from %d source(s), retrieval confidence %s",
		query, len(sources), report.Confidence)

	text, err := a.generator.Generate(ctx, query, sources)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	validation := a.validator.Validate(text, sources)
	if len(validation.Unsupported) > 0 {
		logger.Warn("Answer has %d unsupported claim(s), confidence %.2f",
			len(validation.Unsupported), validation.Confidence)
	}

	return &domain.GeneratedAnswer{
		Query:      query,
		Text:       text,
		Sources:    sources,
		Validation: validation,
	}, nil
}
