// Package memory provides in-memory driven adapters, used in tests and
// for ephemeral runs that do not need durable history.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure RecipeStore implements the interface.
var _ driven.RecipeStore = (*RecipeStore)(nil)

// RecipeStore is an in-memory implementation of driven.RecipeStore.
// History is append-only and version numbers strictly increase, the
// same contract the SQLite store upholds.
type RecipeStore struct {
	parser driven.RecipeParser

	mu       sync.RWMutex
	recipes  map[string]domain.Recipe
	versions map[string][]domain.VersionRecord
}

// NewRecipeStore creates a new in-memory recipe store. The parser is
// used to rebuild structured fields when a rollback restores content.
func NewRecipeStore(parser driven.RecipeParser) *RecipeStore {
	return &RecipeStore{
		parser:   parser,
		recipes:  make(map[string]domain.Recipe),
		versions: make(map[string][]domain.VersionRecord),
	}
}

// Upsert stores a new revision of a recipe and appends a version record.
func (s *RecipeStore) Upsert(_ context.Context, recipe *domain.Recipe) (*domain.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	kind := domain.ChangeKindCreate
	prev, exists := s.recipes[recipe.ID]
	if exists {
		kind = domain.ChangeKindUpdate
		recipe.CreatedAt = prev.CreatedAt
	} else {
		recipe.CreatedAt = now
	}
	recipe.Version = len(s.versions[recipe.ID]) + 1
	recipe.UpdatedAt = now
	recipe.Deleted = false

	record := domain.VersionRecord{
		RecipeID:    recipe.ID,
		Version:     recipe.Version,
		Kind:        kind,
		Content:     recipe.RawContent,
		ContentHash: recipe.Fingerprint.ContentHash,
		CreatedAt:   now,
	}
	s.recipes[recipe.ID] = *recipe
	s.versions[recipe.ID] = append(s.versions[recipe.ID], record)
	return &record, nil
}

// MarkDeleted appends a delete record and hides the recipe from active
// queries.
func (s *RecipeStore) MarkDeleted(_ context.Context, recipeID string) (*domain.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[recipeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if recipe.Deleted {
		// Already deleted; repeat deletes do not grow history.
		records := s.versions[recipeID]
		last := records[len(records)-1]
		return &last, nil
	}

	recipe.Deleted = true
	recipe.Version = len(s.versions[recipeID]) + 1
	recipe.UpdatedAt = time.Now()

	record := domain.VersionRecord{
		RecipeID:  recipeID,
		Version:   recipe.Version,
		Kind:      domain.ChangeKindDelete,
		CreatedAt: recipe.UpdatedAt,
	}
	s.recipes[recipeID] = recipe
	s.versions[recipeID] = append(s.versions[recipeID], record)
	return &record, nil
}

// Get retrieves the current state of a recipe, including deleted ones.
func (s *RecipeStore) Get(_ context.Context, recipeID string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recipe, ok := s.recipes[recipeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &recipe, nil
}

// History returns the full version history, oldest first.
func (s *RecipeStore) History(_ context.Context, recipeID string) ([]domain.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.versions[recipeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.VersionRecord, len(records))
	copy(out, records)
	return out, nil
}

// GetVersion retrieves one version record.
func (s *RecipeStore) GetVersion(_ context.Context, recipeID string, version int) (*domain.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.versions[recipeID]
	if !ok || version < 1 || version > len(records) {
		return nil, domain.ErrNotFound
	}
	record := records[version-1]
	return &record, nil
}

// Rollback appends a new version whose content is copied from an
// earlier one.
func (s *RecipeStore) Rollback(_ context.Context, recipeID string, version int) (*domain.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[recipeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	records := s.versions[recipeID]
	if version < 1 || version > len(records) {
		return nil, domain.ErrNotFound
	}
	target := records[version-1]
	if target.Kind == domain.ChangeKindDelete {
		return nil, fmt.Errorf("%w: version %d is a delete record", domain.ErrInvalidInput, version)
	}

	restored, err := s.parser.Parse(recipe.Path, []byte(target.Content))
	if err != nil {
		return nil, fmt.Errorf("parse restored content: %w", err)
	}

	now := time.Now()
	restored.Fingerprint = domain.NewFingerprint([]byte(target.Content), now)
	restored.Version = len(records) + 1
	restored.Deleted = false
	restored.CreatedAt = recipe.CreatedAt
	restored.UpdatedAt = now

	record := domain.VersionRecord{
		RecipeID:     recipeID,
		Version:      restored.Version,
		Kind:         domain.ChangeKindRollback,
		Content:      target.Content,
		ContentHash:  target.ContentHash,
		RestoredFrom: version,
		CreatedAt:    now,
	}
	s.recipes[recipeID] = *restored
	s.versions[recipeID] = append(records, record)
	return &record, nil
}

// ListActive returns all non-deleted recipes.
func (s *RecipeStore) ListActive(_ context.Context) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Recipe
	for _, recipe := range s.recipes {
		if !recipe.Deleted {
			out = append(out, recipe)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// RecentChanges returns the most recent version records, newest first.
func (s *RecipeStore) RecentChanges(_ context.Context, limit int) ([]domain.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []domain.VersionRecord
	for _, records := range s.versions {
		all = append(all, records...)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].RecipeID < all[j].RecipeID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Close releases resources.
func (s *RecipeStore) Close() error {
	return nil
}
