// Package memvec is a brute-force in-memory vector index with cosine
// similarity. At library scale (hundreds of recipes) a linear scan is
// faster than anything with an external dependency, and the index is
// rebuilt from the store at startup anyway.
package memvec

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores one vector per recipe identity under a single lock.
// Add replaces the slot for an identity in one step, so a concurrent
// Search never observes a half-updated entry.
type Index struct {
	dimensions int

	mu      sync.RWMutex
	vectors map[string][]float32
}

// New creates an index that accepts vectors of the given dimension.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}
}

// Add inserts or replaces the vector for the given recipe ID.
func (ix *Index) Add(_ context.Context, recipeID string, embedding []float32) error {
	if len(embedding) != ix.dimensions {
		return fmt.Errorf("dimension mismatch: got %d, want %d", len(embedding), ix.dimensions)
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	ix.mu.Lock()
	ix.vectors[recipeID] = vec
	ix.mu.Unlock()
	return nil
}

// Delete removes a vector. Deleting an absent ID is not an error.
func (ix *Index) Delete(_ context.Context, recipeID string) error {
	ix.mu.Lock()
	delete(ix.vectors, recipeID)
	ix.mu.Unlock()
	return nil
}

// Search finds the k nearest recipes by cosine similarity, best first.
// Ties are broken by recipe ID so result order is deterministic.
func (ix *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d", len(query), ix.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(ix.vectors))
	for id, vec := range ix.vectors {
		hits = append(hits, driven.VectorHit{
			RecipeID:   id,
			Similarity: cosine(query, vec),
		})
	}
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].RecipeID < hits[j].RecipeID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Contains reports whether a vector exists for the recipe ID.
func (ix *Index) Contains(_ context.Context, recipeID string) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.vectors[recipeID]
	return ok, nil
}

// Size returns the number of stored vectors.
func (ix *Index) Size(_ context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors), nil
}

// Close releases resources.
func (ix *Index) Close() error {
	return nil
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
