// Package qdrant is a REST client for a Qdrant collection, an
// alternative vector index for libraries too large to hold in memory.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// pointNamespace seeds the deterministic point UUIDs. Qdrant only
// accepts UUID or integer point IDs, so recipe identities are mapped
// through uuid.NewSHA1 and carried in the payload.
var pointNamespace = uuid.MustParse("8f8a1c2e-0b5d-4a57-9a44-78f2b4f7a911")

// Config holds connection settings for a Qdrant collection.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// Index talks to one Qdrant collection with cosine distance.
type Index struct {
	cfg    Config
	client *http.Client
}

// New creates a Qdrant index client and ensures the collection exists.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, errors.New("qdrant: dimensions must be positive")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	ix := &Index{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.Dimensions,
			"distance": "Cosine",
		},
	}
	// PUT is a no-op when the collection already exists with the same
	// schema.
	if err := ix.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s", cfg.URL, cfg.Collection), body, nil); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return ix, nil
}

// Add inserts or replaces the vector for the given recipe ID.
func (ix *Index) Add(ctx context.Context, recipeID string, embedding []float32) error {
	body := map[string]any{
		"points": []map[string]any{{
			"id":      pointID(recipeID),
			"vector":  embedding,
			"payload": map[string]any{"recipe_id": recipeID},
		}},
	}
	return ix.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points?wait=true", ix.cfg.URL, ix.cfg.Collection), body, nil)
}

// Delete removes a vector. Deleting an absent ID is not an error.
func (ix *Index) Delete(ctx context.Context, recipeID string) error {
	body := map[string]any{
		"points": []string{pointID(recipeID)},
	}
	return ix.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/delete?wait=true", ix.cfg.URL, ix.cfg.Collection), body, nil)
}

// Search finds the k nearest recipes to the query vector.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	body := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := ix.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", ix.cfg.URL, ix.cfg.Collection), body, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		id, ok := r.Payload["recipe_id"].(string)
		if !ok {
			continue
		}
		hits = append(hits, driven.VectorHit{RecipeID: id, Similarity: r.Score})
	}
	return hits, nil
}

// Contains reports whether a vector exists for the recipe ID.
func (ix *Index) Contains(ctx context.Context, recipeID string) (bool, error) {
	var resp struct {
		Result []struct {
			ID any `json:"id"`
		} `json:"result"`
	}
	body := map[string]any{"ids": []string{pointID(recipeID)}}
	if err := ix.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points", ix.cfg.URL, ix.cfg.Collection), body, &resp); err != nil {
		return false, err
	}
	return len(resp.Result) > 0, nil
}

// Size returns the number of stored vectors.
func (ix *Index) Size(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := ix.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/count", ix.cfg.URL, ix.cfg.Collection), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (ix *Index) Close() error {
	ix.client.CloseIdleConnections()
	return nil
}

// pointID maps a recipe identity onto a deterministic UUID.
func pointID(recipeID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recipeID)).String()
}

// doJSON performs one JSON request and decodes the response into out
// when non-nil.
func (ix *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("qdrant: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("qdrant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ix.cfg.APIKey != "" {
		req.Header.Set("api-key", ix.cfg.APIKey)
	}

	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: %s %s: %s", method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}
