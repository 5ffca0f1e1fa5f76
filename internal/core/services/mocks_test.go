package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// --- Mock implementations shared across the package tests ---

// time0 is the fixed mod time mocks stamp on fingerprints. Mod times
// are never compared, so any constant works.
var time0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// mockSource implements driven.RecipeSource over a mutable map of
// path -> content.
type mockSource struct {
	mu      sync.Mutex
	files   map[string]string
	scanErr []error
	watchCh chan struct{}
}

func newMockSource() *mockSource {
	return &mockSource{
		files:   make(map[string]string),
		watchCh: make(chan struct{}, 1),
	}
}

func (m *mockSource) put(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *mockSource) remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

func (m *mockSource) Scan(_ context.Context) ([]domain.SourceEntry, []error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []domain.SourceEntry
	for path, content := range m.files {
		entries = append(entries, domain.SourceEntry{
			RecipeID:    domain.RecipeID(path),
			Path:        path,
			Content:     []byte(content),
			Fingerprint: domain.NewFingerprint([]byte(content), time0),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, m.scanErr
}

func (m *mockSource) Watch(_ context.Context) (<-chan struct{}, error) {
	return m.watchCh, nil
}

func (m *mockSource) Close() error { return nil }

// mockEmbedder implements driven.EmbeddingService deterministically:
// the vector depends only on the text length and first byte.
type mockEmbedder struct {
	embedErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	var first float32
	if len(text) > 0 {
		first = float32(text[0])
	}
	return []float32{float32(len(text)), first, 1}, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockVectorIndex implements driven.VectorIndex. Search returns the
// preset hits; stored vectors are tracked for assertions.
type mockVectorIndex struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	hits      []driven.VectorHit
	addErr    error
	deleteErr error
	searchErr error
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{vectors: make(map[string][]float32)}
}

func (m *mockVectorIndex) Add(_ context.Context, recipeID string, embedding []float32) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[recipeID] = embedding
	return nil
}

func (m *mockVectorIndex) Delete(_ context.Context, recipeID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, recipeID)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Contains(_ context.Context, recipeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vectors[recipeID]
	return ok, nil
}

func (m *mockVectorIndex) Size(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors), nil
}

func (m *mockVectorIndex) Close() error { return nil }

func (m *mockVectorIndex) has(recipeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vectors[recipeID]
	return ok
}

// mockGenerator implements driven.AnswerGenerator.
type mockGenerator struct {
	answer string
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, _ string, _ []domain.SearchResult) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockGenerator) Close() error { return nil }

// mockExtractor implements driven.ClaimExtractor with a fixed output.
type mockExtractor struct {
	claims []string
}

func (m *mockExtractor) ExtractClaims(_ string) []string { return m.claims }

// sentenceExtractor splits on periods like the production extractor.
type sentenceExtractor struct{}

func (sentenceExtractor) ExtractClaims(text string) []string {
	var claims []string
	for _, part := range strings.Split(text, ".") {
		part = strings.TrimSpace(part)
		if len(part) > 10 {
			claims = append(claims, part)
		}
	}
	return claims
}

// failingStore wraps a RecipeStore and fails Upsert a set number of
// times before delegating.
type failingStore struct {
	driven.RecipeStore
	failures int
	attempts int
}

func (f *failingStore) Upsert(ctx context.Context, recipe *domain.Recipe) (*domain.VersionRecord, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return nil, fmt.Errorf("%w: injected failure %d", domain.ErrStorage, f.attempts)
	}
	return f.RecipeStore.Upsert(ctx, recipe)
}
