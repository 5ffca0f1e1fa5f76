package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

// Indexer owns the vector index state. It maps each recipe identity to
// the version and fingerprint its stored vector reflects, and applies
// change events under a per-identity lock: at most one apply in flight
// per identity, unrelated identities proceed concurrently.
type Indexer struct {
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService

	locks keyedMutex

	mu      sync.RWMutex
	entries map[string]indexEntry
}

// indexEntry records what the stored vector for an identity reflects.
type indexEntry struct {
	version     int
	contentHash string
}

// NewIndexer creates an index manager over a vector index and an
// embedding service.
func NewIndexer(vectors driven.VectorIndex, embedder driven.EmbeddingService) *Indexer {
	return &Indexer{
		vectors:  vectors,
		embedder: embedder,
		entries:  make(map[string]indexEntry),
	}
}

// Apply applies one change event. For created/modified the recipe is
// re-embedded and its index slot replaced in a single step; for deleted
// the slot is removed. Applying the same event twice is a no-op the
// second time, detected by comparing the event fingerprint against the
// entry's recorded hash.
func (ix *Indexer) Apply(ctx context.Context, ev domain.ChangeEvent, recipe *domain.Recipe) error {
	unlock := ix.locks.lock(ev.RecipeID)
	defer unlock()

	if ev.Type == domain.ChangeDeleted {
		return ix.remove(ctx, ev.RecipeID)
	}

	ix.mu.RLock()
	entry, exists := ix.entries[ev.RecipeID]
	ix.mu.RUnlock()
	if exists && entry.contentHash == ev.Fingerprint.ContentHash {
		logger.Debug("Index apply no-op for %s (fingerprint unchanged)", ev.RecipeID)
		return nil
	}

	if recipe == nil {
		return fmt.Errorf("%w: apply %s without content", domain.ErrInvalidInput, ev.Type)
	}

	embedding, err := ix.embedder.Embed(ctx, recipe.SearchText())
	if err != nil {
		return fmt.Errorf("%w: embed %s: %v", domain.ErrEmbedding, recipe.ID, err)
	}

	if err := ix.vectors.Add(ctx, recipe.ID, embedding); err != nil {
		return fmt.Errorf("add vector %s: %w", recipe.ID, err)
	}

	ix.mu.Lock()
	ix.entries[recipe.ID] = indexEntry{
		version:     recipe.Version,
		contentHash: ev.Fingerprint.ContentHash,
	}
	ix.mu.Unlock()

	return nil
}

// remove deletes an identity's vector and entry. Removing an absent
// identity is a no-op, which makes redelivered deletes idempotent.
func (ix *Indexer) remove(ctx context.Context, recipeID string) error {
	if err := ix.vectors.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("delete vector %s: %w", recipeID, err)
	}
	ix.mu.Lock()
	delete(ix.entries, recipeID)
	ix.mu.Unlock()
	return nil
}

// Rebuild repopulates the index from the store's active recipes.
// Used at startup: the index never needs historical change replay, the
// current state of the store is enough.
func (ix *Indexer) Rebuild(ctx context.Context, store driven.RecipeStore) (int, error) {
	recipes, err := store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recipes: %w", err)
	}

	rebuilt := 0
	for i := range recipes {
		r := &recipes[i]
		ev := domain.ChangeEvent{
			RecipeID:    r.ID,
			Path:        r.Path,
			Type:        domain.ChangeModified,
			Fingerprint: r.Fingerprint,
		}
		if err := ix.Apply(ctx, ev, r); err != nil {
			logger.Warn("Rebuild skipped %s: %v", r.ID, err)
			continue
		}
		rebuilt++
	}

	logger.Info("Index rebuilt: %d/%d recipes", rebuilt, len(recipes))
	return rebuilt, nil
}

// Contains reports whether the identity has a fully applied entry.
func (ix *Indexer) Contains(recipeID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.entries[recipeID]
	return ok
}

// Version returns the version the identity's vector reflects.
func (ix *Indexer) Version(recipeID string) (int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entry, ok := ix.entries[recipeID]
	return entry.version, ok
}

// Size returns the number of indexed identities.
func (ix *Indexer) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// keyedMutex provides one mutex per key. Keys are never removed; the
// set of recipe identities is small and stable.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
