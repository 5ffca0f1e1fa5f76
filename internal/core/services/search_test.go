package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantry-labs/forage-cli/internal/adapters/driven/storage/memory"
	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/source/filesystem"
)

// searchFixture seeds a store with a few recipes and returns it with a
// vector index whose hits the test controls.
func searchFixture(t *testing.T) (*memory.RecipeStore, *mockVectorIndex) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewRecipeStore(filesystem.NewParser())

	recipes := []*domain.Recipe{
		{
			ID: domain.RecipeID("aglio.md"), Path: "aglio.md",
			Title: "Spaghetti Aglio e Olio", Cuisine: "Italian", Diet: "Vegetarian",
			Time: "15 min", Calories: 450,
			Ingredients: []string{"spaghetti", "garlic", "olive oil"},
		},
		{
			ID: domain.RecipeID("curry.md"), Path: "curry.md",
			Title: "Chickpea Curry", Cuisine: "Indian", Diet: "Vegan",
			Time: "40 min", Calories: 520,
			Ingredients: []string{"chickpeas", "coconut milk", "curry paste"},
		},
		{
			ID: domain.RecipeID("stew.md"), Path: "stew.md",
			Title: "Beef Stew", Cuisine: "French",
			Time: "2 hours", Calories: 700,
			Ingredients: []string{"beef", "carrots", "red wine"},
		},
	}
	for _, r := range recipes {
		r.Fingerprint = domain.NewFingerprint([]byte(r.Title), time0)
		_, err := store.Upsert(ctx, r)
		require.NoError(t, err)
	}
	return store, newMockVectorIndex()
}

func TestSearch_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked results above the threshold", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.92},
			{RecipeID: domain.RecipeID("curry.md"), Similarity: 0.75},
			{RecipeID: domain.RecipeID("stew.md"), Similarity: 0.35},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, report, err := search.Search(ctx, "garlic pasta", domain.SearchFilters{}, 5)

		require.NoError(t, err)
		require.Len(t, results, 2, "hit below threshold is dropped")
		assert.Equal(t, "Spaghetti Aglio e Olio", results[0].Recipe.Title)
		assert.Equal(t, "Chickpea Curry", results[1].Recipe.Title)
		require.NotNil(t, report)
		assert.InDelta(t, 0.835, report.AvgSimilarity, 0.001)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		store, vectors := searchFixture(t)
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		_, _, err := search.Search(ctx, "   ", domain.SearchFilters{}, 5)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("truncates to topK after filtering", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.92},
			{RecipeID: domain.RecipeID("curry.md"), Similarity: 0.85},
			{RecipeID: domain.RecipeID("stew.md"), Similarity: 0.80},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, _, err := search.Search(ctx, "dinner", domain.SearchFilters{}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Spaghetti Aglio e Olio", results[0].Recipe.Title)
	})

	t.Run("applies cuisine and diet filters", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.92},
			{RecipeID: domain.RecipeID("curry.md"), Similarity: 0.85},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, _, err := search.Search(ctx, "dinner", domain.SearchFilters{Cuisine: "indian"}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Chickpea Curry", results[0].Recipe.Title)

		results, _, err = search.Search(ctx, "dinner", domain.SearchFilters{Diet: "Vegan"}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Chickpea Curry", results[0].Recipe.Title)
	})

	t.Run("applies time and calorie filters", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.92},
			{RecipeID: domain.RecipeID("curry.md"), Similarity: 0.85},
			{RecipeID: domain.RecipeID("stew.md"), Similarity: 0.80},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, _, err := search.Search(ctx, "dinner", domain.SearchFilters{MaxMinutes: 30}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1, "only the 15 min recipe fits")

		results, _, err = search.Search(ctx, "dinner", domain.SearchFilters{MaxCalories: 600}, 5)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("excludes deleted recipes", func(t *testing.T) {
		store, vectors := searchFixture(t)
		_, err := store.MarkDeleted(ctx, domain.RecipeID("aglio.md"))
		require.NoError(t, err)

		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.92},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, report, err := search.Search(ctx, "garlic pasta", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NotEmpty(t, report.Issues)
	})

	t.Run("skips hits unknown to the store", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: "rcp_deadbeefdeadbeef", Similarity: 0.95},
			{RecipeID: domain.RecipeID("curry.md"), Similarity: 0.85},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, _, err := search.Search(ctx, "curry", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Chickpea Curry", results[0].Recipe.Title)
	})

	t.Run("match score reflects keyword overlap", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.9},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, _, err := search.Search(ctx, "spaghetti garlic", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1.0, results[0].MatchScore)
		assert.Equal(t, domain.ConfidenceHigh, results[0].Confidence)

		results, _, err = search.Search(ctx, "chocolate brownies", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 0.0, results[0].MatchScore)
		assert.Equal(t, domain.ConfidenceMedium, results[0].Confidence)
	})

	t.Run("report flags low similarity and low keyword overlap", func(t *testing.T) {
		store, vectors := searchFixture(t)
		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.25},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0.1)

		_, report, err := search.Search(ctx, "chocolate brownies", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		assert.Contains(t, report.Issues, "low semantic similarity to the query")
		assert.Contains(t, report.Issues, "results share few query keywords")

		vectors.hits[0].Similarity = 0.9
		_, report, err = search.Search(ctx, "spaghetti garlic", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		assert.Empty(t, report.Issues)
	})

	t.Run("embedding failure is reported", func(t *testing.T) {
		store, vectors := searchFixture(t)
		search := NewSearch(store, vectors, &mockEmbedder{embedErr: assert.AnError}, nil, 0)

		_, _, err := search.Search(ctx, "dinner", domain.SearchFilters{}, 5)
		assert.ErrorIs(t, err, domain.ErrEmbedding)
	})

	t.Run("equal similarity breaks ties by newer version then identity", func(t *testing.T) {
		store, vectors := searchFixture(t)
		// Bump curry to version 2.
		curry, err := store.Get(ctx, domain.RecipeID("curry.md"))
		require.NoError(t, err)
		_, err = store.Upsert(ctx, curry)
		require.NoError(t, err)

		vectors.hits = []driven.VectorHit{
			{RecipeID: domain.RecipeID("aglio.md"), Similarity: 0.8},
			{RecipeID: domain.RecipeID("curry.md"), Similarity: 0.8},
		}
		search := NewSearch(store, vectors, &mockEmbedder{}, nil, 0)

		results, _, err := search.Search(ctx, "zzzz", domain.SearchFilters{}, 5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Chickpea Curry", results[0].Recipe.Title, "version 2 outranks version 1")
	})
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"15 min", 15, true},
		{"40 minutes", 40, true},
		{"1 hour", 60, true},
		{"2 hours", 120, true},
		{"1 hour 30 min", 90, true},
		{"overnight", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			minutes, ok := parseMinutes(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.minutes, minutes)
		})
	}
}
