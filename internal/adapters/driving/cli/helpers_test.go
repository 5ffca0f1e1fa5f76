package cli

import (
	"context"
	"sort"
	"time"

	"github.com/pantry-labs/forage-cli/internal/adapters/driven/claims"
	configfile "github.com/pantry-labs/forage-cli/internal/adapters/driven/config/file"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/embedding/local"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/index/memvec"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/storage/memory"
	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/services"
	"github.com/pantry-labs/forage-cli/internal/source/filesystem"
)

const testDimensions = 64

var testModTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// stubSource serves recipe content from memory so commands can be
// exercised without touching the filesystem.
type stubSource struct {
	recipes map[string]string
}

func (s *stubSource) Scan(_ context.Context) ([]domain.SourceEntry, []error) {
	paths := make([]string, 0, len(s.recipes))
	for path := range s.recipes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]domain.SourceEntry, 0, len(paths))
	for _, path := range paths {
		content := []byte(s.recipes[path])
		entries = append(entries, domain.SourceEntry{
			RecipeID:    domain.RecipeID(path),
			Path:        path,
			Content:     content,
			Fingerprint: domain.NewFingerprint(content, testModTime),
		})
	}
	return entries, nil
}

func (s *stubSource) Watch(_ context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	return ch, nil
}

func (s *stubSource) Close() error { return nil }

// stubGenerator answers with a fixed sentence so validation output is
// deterministic.
type stubGenerator struct {
	text string
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ []domain.SearchResult) (string, error) {
	return g.text, nil
}

func (g *stubGenerator) Close() error { return nil }

// testSearchService keeps the wired search service reachable so tests
// can build alternative answerers on top of it.
var testSearchService *services.Search

// testSource lets tests mutate the recipe set between sync cycles.
var testSource *stubSource

// newAnswererWithText builds an answer service whose generator always
// returns text.
func newAnswererWithText(text string) *services.Answerer {
	validator := services.NewValidator(claims.NewExtractor())
	return services.NewAnswerer(testSearchService, &stubGenerator{text: text}, validator, 5)
}

const testRecipe = `Title: Spaghetti Aglio e Olio
Time: 15 min
Calories: 450
Diet: Vegetarian
Cuisine: Italian

Ingredients:
- 200g spaghetti
- 4 cloves garlic

Steps:
1. Boil the spaghetti in salted water.
2. Fry the garlic and toss with the spaghetti.
`

// setupTestServices wires the command package to in-memory services
// with one synced recipe. The returned cleanup restores the globals.
func setupTestServices() func() {
	// Flag variables survive across executions; start each test clean.
	searchTopK = 0
	searchCuisine = ""
	searchDiet = ""
	searchMaxMinutes = 0
	searchMaxCalories = 0
	searchJSON = false
	askJSON = false
	recipesJSON = false
	historyJSON = false

	appConfig = configfile.DefaultConfig()
	recipeParser = filesystem.NewParser()

	store := memory.NewRecipeStore(recipeParser)
	vectors := memvec.New(testDimensions)
	embedder := local.NewEmbeddingService(testDimensions)

	src := &stubSource{recipes: map[string]string{
		"italian/aglio.md": testRecipe,
	}}
	testSource = src
	detector := services.NewDetector(src)
	indexer := services.NewIndexer(vectors, embedder)
	coordinator := services.NewCoordinator(
		detector, store, indexer, recipeParser, src, time.Second,
	)
	if _, err := coordinator.EnsureUpToDate(context.Background(), 5*time.Second); err != nil {
		panic(err)
	}

	search := services.NewSearch(store, vectors, embedder, coordinator, 0.01)
	validator := services.NewValidator(claims.NewExtractor())

	recipeStore = store
	syncCoordinator = coordinator
	searchService = search
	answerService = services.NewAnswerer(
		search,
		&stubGenerator{text: "Boil the spaghetti in salted water."},
		validator,
		appConfig.Search.TopK,
	)
	libraryService = services.NewLibrary(store, indexer)

	testSearchService = search

	return func() {
		appConfig = nil
		recipeParser = nil
		recipeStore = nil
		syncCoordinator = nil
		searchService = nil
		answerService = nil
		libraryService = nil
	}
}
