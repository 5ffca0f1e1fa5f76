// Package ollama provides an answer generator adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.AnswerGenerator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second

	// maxSourceRecipes bounds the prompt context; the strongest hits
	// come first, so three is enough for a recipe question.
	maxSourceRecipes = 3
)

// Config holds configuration for the Ollama answer generator.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Temperature controls sampling randomness (0 means model default).
	Temperature float64
}

// Generator drafts answers with an Ollama-hosted model.
type Generator struct {
	client      *http.Client
	baseURL     string
	model       string
	temperature float64
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewGenerator creates a new Ollama answer generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Generator{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Generate produces candidate answer text for the query from the
// retrieved recipes.
func (g *Generator) Generate(ctx context.Context, query string, sources []domain.SearchResult) (string, error) {
	reqBody := generateRequest{
		Model:  g.model,
		Prompt: buildPrompt(query, sources),
		Stream: false,
	}
	if g.temperature > 0 {
		reqBody.Options = &options{Temperature: g.temperature}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(genResp.Response), nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}

// buildPrompt assembles the grounding context from the top recipes:
// title and ingredients, the fields a cooking answer draws on.
func buildPrompt(query string, sources []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Use these recipes to answer the question.\n\n")
	for i, src := range sources {
		if i >= maxSourceRecipes {
			break
		}
		fmt.Fprintf(&b, "Recipe: %s\n", src.Recipe.Title)
		fmt.Fprintf(&b, "Ingredients: %s\n\n", strings.Join(src.Recipe.Ingredients, ", "))
	}
	fmt.Fprintf(&b, "Question: %s\nAnswer based on the recipes:", query)
	return b.String()
}
