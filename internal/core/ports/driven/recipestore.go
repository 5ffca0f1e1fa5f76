package driven

import (
	"context"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

// RecipeStore persists recipes and their append-only version history.
// Backed by SQLite for durable storage.
//
// Writes are serialized per recipe by the store; history records are
// never mutated after creation. A write either completes fully or
// leaves the prior state unchanged.
type RecipeStore interface {
	// Upsert stores a new revision of a recipe and appends a version
	// record with version = previous version + 1 (1 for a new recipe).
	// The returned record is the one appended.
	Upsert(ctx context.Context, recipe *domain.Recipe) (*domain.VersionRecord, error)

	// MarkDeleted appends a delete record and excludes the recipe from
	// active queries. Content is retained for history.
	// Returns domain.ErrNotFound for an unknown recipe.
	MarkDeleted(ctx context.Context, recipeID string) (*domain.VersionRecord, error)

	// Get retrieves the current state of a recipe, including deleted ones.
	// Returns domain.ErrNotFound for an unknown recipe.
	Get(ctx context.Context, recipeID string) (*domain.Recipe, error)

	// History returns the full version history, oldest first.
	// Returns domain.ErrNotFound for an unknown recipe.
	History(ctx context.Context, recipeID string) ([]domain.VersionRecord, error)

	// GetVersion retrieves one version record.
	// Returns domain.ErrNotFound when the recipe or version is unknown.
	GetVersion(ctx context.Context, recipeID string, version int) (*domain.VersionRecord, error)

	// ListActive returns all non-deleted recipes.
	ListActive(ctx context.Context) ([]domain.Recipe, error)

	// Rollback appends a new version whose content is copied from an
	// earlier one. History is never rewritten; the restored state gets
	// the next version number and records which version it came from.
	// Returns domain.ErrNotFound when the recipe or version is unknown,
	// domain.ErrInvalidInput when the target version is a delete record.
	Rollback(ctx context.Context, recipeID string, version int) (*domain.VersionRecord, error)

	// RecentChanges returns the most recent version records across all
	// recipes, newest first, at most limit entries.
	RecentChanges(ctx context.Context, limit int) ([]domain.VersionRecord, error)

	// Close releases resources.
	Close() error
}
