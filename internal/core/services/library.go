package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driving"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

var _ driving.LibraryService = (*Library)(nil)

// recentChangeWindow is the number of change records Stats considers.
const recentChangeWindow = 20

// Library exposes recipe history and management on top of the store
// and the index.
type Library struct {
	store   driven.RecipeStore
	indexer *Indexer
}

// NewLibrary creates a library service.
func NewLibrary(store driven.RecipeStore, indexer *Indexer) *Library {
	return &Library{store: store, indexer: indexer}
}

// List returns all active recipes.
func (l *Library) List(ctx context.Context) ([]domain.Recipe, error) {
	return l.store.ListActive(ctx)
}

// Get retrieves a recipe by identity.
func (l *Library) Get(ctx context.Context, recipeID string) (*domain.Recipe, error) {
	return l.store.Get(ctx, recipeID)
}

// History returns a recipe's full version history, oldest first.
func (l *Library) History(ctx context.Context, recipeID string) ([]domain.VersionRecord, error) {
	return l.store.History(ctx, recipeID)
}

// Rollback restores an earlier version's content as a new, forward
// version and re-indexes the recipe so search reflects the restored
// state immediately.
func (l *Library) Rollback(ctx context.Context, recipeID string, targetVersion int) (*domain.VersionRecord, error) {
	record, err := l.store.Rollback(ctx, recipeID, targetVersion)
	if err != nil {
		return nil, err
	}
	logger.Info("Rolled back %s to the content of version %d (new version %d)",
		recipeID, targetVersion, record.Version)

	recipe, err := l.store.Get(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("reload after rollback: %w", err)
	}

	ev := domain.ChangeEvent{
		EventID:     uuid.NewString(),
		RecipeID:    recipe.ID,
		Path:        recipe.Path,
		Type:        domain.ChangeModified,
		Fingerprint: recipe.Fingerprint,
		DetectedAt:  time.Now(),
	}
	if err := l.indexer.Apply(ctx, ev, recipe); err != nil {
		return nil, fmt.Errorf("re-index after rollback: %w", err)
	}
	return record, nil
}

// Changes returns the most recent version records, newest first.
func (l *Library) Changes(ctx context.Context, limit int) ([]domain.VersionRecord, error) {
	if limit <= 0 {
		limit = recentChangeWindow
	}
	return l.store.RecentChanges(ctx, limit)
}

// Stats summarises the library.
func (l *Library) Stats(ctx context.Context) (*driving.LibraryStats, error) {
	recipes, err := l.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	cuisines := make(map[string]int)
	for _, r := range recipes {
		if r.Cuisine != "" {
			cuisines[r.Cuisine]++
		}
	}

	changes, err := l.store.RecentChanges(ctx, recentChangeWindow)
	if err != nil {
		return nil, err
	}

	return &driving.LibraryStats{
		TotalRecipes:   len(recipes),
		IndexedRecipes: l.indexer.Size(),
		CuisineCounts:  cuisines,
		RecentChanges:  len(changes),
	}, nil
}
