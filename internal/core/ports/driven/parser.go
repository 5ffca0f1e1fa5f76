package driven

import "github.com/pantry-labs/forage-cli/internal/core/domain"

// RecipeParser turns raw recipe text into structured fields.
// Treated as a collaborator so the flat-text parser can be replaced by
// a full markdown one without touching the sync engine.
type RecipeParser interface {
	// Parse extracts structured fields from recipe text. The returned
	// recipe carries identity and path but no version bookkeeping.
	Parse(path string, content []byte) (*domain.Recipe, error)

	// Validate reports format problems as human-readable messages.
	// An empty slice means the content is well-formed.
	Validate(content []byte) []string
}
