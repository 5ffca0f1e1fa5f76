package driven

import "context"

// VectorIndex stores one embedding per recipe and answers similarity
// queries. Add on an existing ID replaces the stored vector as a single
// step: a concurrent Search sees either the old vector or the new one,
// never a partial state.
type VectorIndex interface {
	// Add inserts or replaces the vector for the given recipe ID.
	Add(ctx context.Context, recipeID string, embedding []float32) error

	// Delete removes a vector from the index. Deleting an absent ID is
	// not an error.
	Delete(ctx context.Context, recipeID string) error

	// Search finds the k nearest recipes to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Contains reports whether a vector exists for the recipe ID.
	Contains(ctx context.Context, recipeID string) (bool, error)

	// Size returns the number of stored vectors.
	Size(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// RecipeID is the matched recipe.
	RecipeID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
