package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

func sources(titles ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(titles))
	for i, title := range titles {
		out[i] = domain.SearchResult{
			Recipe: domain.Recipe{
				Title:       title,
				Ingredients: []string{"ingredient of " + title},
			},
		}
	}
	return out
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("sends prompt and returns trimmed answer", func(t *testing.T) {
		var got generateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"response": "  Boil the pasta first.\n", "done": true}`)
		}))
		defer server.Close()

		generator := NewGenerator(Config{BaseURL: server.URL, Model: "llama3.2"})
		answer, err := generator.Generate(ctx, "how do I start?", sources("Pasta"))

		require.NoError(t, err)
		assert.Equal(t, "Boil the pasta first.", answer)
		assert.Equal(t, "llama3.2", got.Model)
		assert.False(t, got.Stream)
		assert.Contains(t, got.Prompt, "Recipe: Pasta")
		assert.Contains(t, got.Prompt, "Question: how do I start?")
	})

	t.Run("caps context at three recipes", func(t *testing.T) {
		prompt := buildPrompt("q", sources("One", "Two", "Three", "Four"))
		assert.Contains(t, prompt, "Recipe: Three")
		assert.NotContains(t, prompt, "Recipe: Four")
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		generator := NewGenerator(Config{BaseURL: server.URL})
		_, err := generator.Generate(ctx, "q", sources("Pasta"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("passes temperature only when set", func(t *testing.T) {
		var got generateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"response": "ok", "done": true}`)
		}))
		defer server.Close()

		generator := NewGenerator(Config{BaseURL: server.URL, Temperature: 0.7})
		_, err := generator.Generate(ctx, "q", nil)
		require.NoError(t, err)
		require.NotNil(t, got.Options)
		assert.InDelta(t, 0.7, got.Options.Temperature, 1e-9)
	})
}
