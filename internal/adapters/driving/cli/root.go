// Package cli implements the forage command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pantry-labs/forage-cli/internal/adapters/driven/claims"
	configfile "github.com/pantry-labs/forage-cli/internal/adapters/driven/config/file"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/pantry-labs/forage-cli/internal/adapters/driven/embedding/ollama"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/index/memvec"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/index/qdrant"
	ollamallm "github.com/pantry-labs/forage-cli/internal/adapters/driven/llm/ollama"
	"github.com/pantry-labs/forage-cli/internal/adapters/driven/storage/sqlite"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driving"
	"github.com/pantry-labs/forage-cli/internal/core/services"
	"github.com/pantry-labs/forage-cli/internal/logger"
	"github.com/pantry-labs/forage-cli/internal/source/filesystem"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag bool
	configFlag  string
)

// Services wired by initServices, shared by the commands.
var (
	appConfig       *configfile.Config
	recipeStore     driven.RecipeStore
	recipeParser    *filesystem.Parser
	syncCoordinator driving.SyncCoordinator
	searchService   driving.SearchService
	answerService   driving.AnswerService
	libraryService  driving.LibraryService

	dataLock *flock.Flock
)

var rootCmd = &cobra.Command{
	Use:   "forage",
	Short: "Searchable, always-current index over a recipe library",
	Long: `Forage keeps a vector index synchronised with a directory of
recipe files and answers questions against it. Edits, additions and
deletions in the directory are picked up automatically; every recipe
keeps a full version history that can be rolled back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		if searchService != nil {
			// Already wired, e.g. by tests.
			return nil
		}
		return initServices(cmd.Context())
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return shutdownServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path (default ~/.forage/config.toml)")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads configuration and wires the application graph.
func initServices(ctx context.Context) error {
	// A .env next to the binary overrides nothing that's already set.
	_ = godotenv.Load()

	cfgPath := configFlag
	if cfgPath == "" {
		var err error
		cfgPath, err = configfile.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate config: %w", err)
		}
	}
	cfg, err := configfile.Load(cfgPath)
	if err != nil {
		return err
	}
	appConfig = cfg

	dataDir := cfg.Library.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate data directory: %w", err)
		}
		dataDir = filepath.Join(home, ".forage", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// One process owns the database and the index at a time.
	dataLock = flock.New(filepath.Join(dataDir, "forage.lock"))
	locked, err := dataLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another forage process is using %s", dataDir)
	}

	recipeParser = filesystem.NewParser()

	store, err := sqlite.NewStore(dataDir, recipeParser)
	if err != nil {
		return fmt.Errorf("open recipe store: %w", err)
	}
	recipeStore = store

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	vectors, err := buildVectorIndex(ctx, cfg)
	if err != nil {
		return err
	}

	src := filesystem.New(cfg.Library.RecipesDir)
	detector := services.NewDetector(src)
	indexer := services.NewIndexer(vectors, embedder)

	coordinator := services.NewCoordinator(
		detector, store, indexer, recipeParser, src, cfg.ScanInterval(),
	)
	if err := coordinator.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	syncCoordinator = coordinator

	search := services.NewSearch(
		store, vectors, embedder, coordinator, cfg.Search.SimilarityThreshold,
	)
	searchService = search

	generator := ollamallm.NewGenerator(ollamallm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	validator := services.NewValidator(claims.NewExtractor())
	answerService = services.NewAnswerer(search, generator, validator, cfg.Search.TopK)

	libraryService = services.NewLibrary(store, indexer)

	return nil
}

func buildEmbedder(cfg *configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "", "local":
		return local.NewEmbeddingService(cfg.Embedding.Dimensions), nil
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildVectorIndex(ctx context.Context, cfg *configfile.Config) (driven.VectorIndex, error) {
	switch cfg.Index.Provider {
	case "", "memory":
		return memvec.New(cfg.Embedding.Dimensions), nil
	case "qdrant":
		ix, err := qdrant.New(ctx, qdrant.Config{
			URL:        cfg.Index.BaseURL,
			APIKey:     cfg.Index.APIKey,
			Collection: cfg.Index.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		return ix, nil
	default:
		return nil, fmt.Errorf("unknown index provider %q", cfg.Index.Provider)
	}
}

func shutdownServices() error {
	if recipeStore != nil {
		if err := recipeStore.Close(); err != nil {
			logger.Warn("closing recipe store: %v", err)
		}
	}
	if dataLock != nil {
		if err := dataLock.Unlock(); err != nil {
			logger.Warn("releasing data lock: %v", err)
		}
	}
	return nil
}
