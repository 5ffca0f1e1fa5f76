package memvec

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks by cosine similarity", func(t *testing.T) {
		index := New(3)
		require.NoError(t, index.Add(ctx, "exact", []float32{1, 0, 0}))
		require.NoError(t, index.Add(ctx, "close", []float32{1, 1, 0}))
		require.NoError(t, index.Add(ctx, "orthogonal", []float32{0, 0, 1}))

		hits, err := index.Search(ctx, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "exact", hits[0].RecipeID)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
		assert.Equal(t, "close", hits[1].RecipeID)
		assert.Equal(t, "orthogonal", hits[2].RecipeID)
		assert.InDelta(t, 0.0, hits[2].Similarity, 1e-9)
	})

	t.Run("limits to k", func(t *testing.T) {
		index := New(2)
		require.NoError(t, index.Add(ctx, "a", []float32{1, 0}))
		require.NoError(t, index.Add(ctx, "b", []float32{0, 1}))

		hits, err := index.Search(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("equal scores tie-break by identity", func(t *testing.T) {
		index := New(2)
		require.NoError(t, index.Add(ctx, "b", []float32{1, 0}))
		require.NoError(t, index.Add(ctx, "a", []float32{1, 0}))

		hits, err := index.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "a", hits[0].RecipeID)
	})

	t.Run("rejects mismatched dimensions", func(t *testing.T) {
		index := New(3)
		assert.Error(t, index.Add(ctx, "a", []float32{1, 0}))
		_, err := index.Search(ctx, []float32{1, 0}, 1)
		assert.Error(t, err)
	})
}

func TestIndex_AddDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("add replaces the slot", func(t *testing.T) {
		index := New(2)
		require.NoError(t, index.Add(ctx, "a", []float32{1, 0}))
		require.NoError(t, index.Add(ctx, "a", []float32{0, 1}))

		size, err := index.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, size)

		hits, err := index.Search(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		index := New(2)
		require.NoError(t, index.Add(ctx, "a", []float32{1, 0}))
		require.NoError(t, index.Delete(ctx, "a"))
		require.NoError(t, index.Delete(ctx, "a"))

		ok, err := index.Contains(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("caller cannot mutate a stored vector", func(t *testing.T) {
		index := New(2)
		vec := []float32{1, 0}
		require.NoError(t, index.Add(ctx, "a", vec))
		vec[0] = 0
		vec[1] = 1

		hits, err := index.Search(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	})

	t.Run("concurrent adds and searches are safe", func(t *testing.T) {
		index := New(2)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_ = index.Add(ctx, string(rune('a'+i)), []float32{float32(i), 1})
			}(i)
			go func() {
				defer wg.Done()
				_, _ = index.Search(ctx, []float32{1, 0}, 5)
			}()
		}
		wg.Wait()

		size, err := index.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, size)
	})
}
