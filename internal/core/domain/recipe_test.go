package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecipeID(t *testing.T) {
	t.Run("is stable for the same path", func(t *testing.T) {
		a := RecipeID("recipes/zucchini-noodles.md")
		b := RecipeID("recipes/zucchini-noodles.md")

		assert.Equal(t, a, b)
	})

	t.Run("differs for different paths", func(t *testing.T) {
		a := RecipeID("recipes/zucchini-noodles.md")
		b := RecipeID("recipes/caprese-salad.md")

		assert.NotEqual(t, a, b)
	})

	t.Run("has the rcp_ prefix and fixed length", func(t *testing.T) {
		id := RecipeID("recipes/pad-thai.md")

		assert.Len(t, id, len("rcp_")+16)
		assert.Equal(t, "rcp_", id[:4])
	})
}

func TestRecipe_SearchText(t *testing.T) {
	t.Run("joins title, labels, ingredients and steps", func(t *testing.T) {
		r := Recipe{
			Title:       "Zucchini Noodles",
			Cuisine:     "Italian",
			Diet:        "Low-carb",
			Ingredients: []string{"2 zucchini", "olive oil"},
			Steps:       []string{"Spiralize zucchini", "Saute briefly"},
		}

		text := r.SearchText()

		assert.Contains(t, text, "Zucchini Noodles")
		assert.Contains(t, text, "Italian")
		assert.Contains(t, text, "Low-carb")
		assert.Contains(t, text, "olive oil")
		assert.Contains(t, text, "Saute briefly")
	})

	t.Run("skips empty fields", func(t *testing.T) {
		r := Recipe{Title: "Plain Rice"}

		assert.Equal(t, "Plain Rice", r.SearchText())
	})
}

func TestFingerprint(t *testing.T) {
	now := time.Now()

	t.Run("equal for identical content regardless of mtime", func(t *testing.T) {
		a := NewFingerprint([]byte("Title: Soup"), now)
		b := NewFingerprint([]byte("Title: Soup"), now.Add(time.Hour))

		assert.True(t, a.Equal(b))
	})

	t.Run("differs for different content", func(t *testing.T) {
		a := NewFingerprint([]byte("Title: Soup"), now)
		b := NewFingerprint([]byte("Title: Stew"), now)

		assert.False(t, a.Equal(b))
	})

	t.Run("zero value is zero", func(t *testing.T) {
		var f Fingerprint

		assert.True(t, f.IsZero())
		assert.False(t, NewFingerprint([]byte("x"), now).IsZero())
	})
}
