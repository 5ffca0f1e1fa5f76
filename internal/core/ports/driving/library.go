package driving

import (
	"context"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

// LibraryService exposes recipe history and management operations.
type LibraryService interface {
	// List returns all active recipes.
	List(ctx context.Context) ([]domain.Recipe, error)

	// Get retrieves a recipe by identity.
	Get(ctx context.Context, recipeID string) (*domain.Recipe, error)

	// History returns a recipe's full version history, oldest first.
	History(ctx context.Context, recipeID string) ([]domain.VersionRecord, error)

	// Rollback restores the content of targetVersion as a new, forward
	// version and re-indexes the recipe. History is never rewritten.
	Rollback(ctx context.Context, recipeID string, targetVersion int) (*domain.VersionRecord, error)

	// Changes returns the most recent version records across the
	// library, newest first.
	Changes(ctx context.Context, limit int) ([]domain.VersionRecord, error)

	// Stats summarises the library.
	Stats(ctx context.Context) (*LibraryStats, error)
}

// LibraryStats summarises the indexed library.
type LibraryStats struct {
	// TotalRecipes is the count of active recipes.
	TotalRecipes int

	// IndexedRecipes is the count of vectors in the index.
	IndexedRecipes int

	// CuisineCounts maps cuisine label to recipe count.
	CuisineCounts map[string]int

	// RecentChanges is the number of version records in the recent
	// change window.
	RecentChanges int
}
