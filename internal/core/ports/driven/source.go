package driven

import (
	"context"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

// RecipeSource enumerates the recipe library into (identity, content,
// fingerprint) entries. Scan must be repeatable without side effects;
// the change detector owns all comparison state.
type RecipeSource interface {
	// Scan reads every recipe file currently in the library.
	// Unreadable individual files are skipped and reported via the
	// returned per-file errors; they do not fail the scan.
	Scan(ctx context.Context) ([]domain.SourceEntry, []error)

	// Watch pushes a signal whenever the library plausibly changed.
	// The signal carries no payload: consumers respond by scanning, so
	// the idempotence and at-least-once contracts of polling still hold.
	// Returns an error if watching is unsupported or setup fails.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources.
	Close() error
}
