// Package file provides TOML-based configuration storage in the
// forage config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values, mirroring the engine defaults.
const (
	DefaultScanInterval        = 2 * time.Second
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.6
	DefaultDimensions          = 384
)

// Config holds the full forage configuration. Zero values are filled
// with defaults on load, so a partial config file is valid.
type Config struct {
	Library   LibraryConfig   `toml:"library"`
	Sync      SyncConfig      `toml:"sync"`
	Search    SearchConfig    `toml:"search"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	LLM       LLMConfig       `toml:"llm"`
}

// LibraryConfig locates the recipe files and the local data directory.
type LibraryConfig struct {
	// RecipesDir is the root directory of recipe files.
	RecipesDir string `toml:"recipes_dir"`

	// DataDir holds the SQLite database. Empty means ~/.forage/data.
	DataDir string `toml:"data_dir"`
}

// SyncConfig tunes the change-detection loop.
type SyncConfig struct {
	// ScanIntervalSeconds is the polling period between scans.
	ScanIntervalSeconds int `toml:"scan_interval_seconds"`

	// FreshnessTimeoutSeconds bounds the pre-query sync wait.
	FreshnessTimeoutSeconds int `toml:"freshness_timeout_seconds"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	TopK                int     `toml:"top_k"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "local" or "ollama".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// IndexConfig selects and configures the vector index.
type IndexConfig struct {
	// Provider is "memory" or "qdrant".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	Collection string `toml:"collection"`
	APIKey     string `toml:"api_key"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			RecipesDir: "recipes",
		},
		Sync: SyncConfig{
			ScanIntervalSeconds:     int(DefaultScanInterval / time.Second),
			FreshnessTimeoutSeconds: 5,
		},
		Search: SearchConfig{
			TopK:                DefaultTopK,
			SimilarityThreshold: DefaultSimilarityThreshold,
		},
		Embedding: EmbeddingConfig{
			Provider:   "local",
			Dimensions: DefaultDimensions,
		},
		Index: IndexConfig{
			Provider:   "memory",
			Collection: "recipes",
		},
		LLM: LLMConfig{},
	}
}

// DefaultPath returns the standard config file location,
// ~/.forage/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".forage", "config.toml"), nil
}

// Load reads the config file at path, fills defaults for anything the
// file leaves unset, and applies FORAGE_* environment overrides. A
// missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the config as TOML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ScanInterval returns the scan interval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Sync.ScanIntervalSeconds) * time.Second
}

// FreshnessTimeout returns the pre-query sync wait as a duration.
func (c *Config) FreshnessTimeout() time.Duration {
	return time.Duration(c.Sync.FreshnessTimeoutSeconds) * time.Second
}

// applyEnv overrides config values from FORAGE_* environment
// variables. Environment wins over the file.
func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	setString("FORAGE_RECIPES_DIR", &c.Library.RecipesDir)
	setString("FORAGE_DATA_DIR", &c.Library.DataDir)
	setInt("FORAGE_SCAN_INTERVAL_SECONDS", &c.Sync.ScanIntervalSeconds)
	setInt("FORAGE_TOP_K", &c.Search.TopK)
	setFloat("FORAGE_SIMILARITY_THRESHOLD", &c.Search.SimilarityThreshold)
	setString("FORAGE_EMBEDDING_PROVIDER", &c.Embedding.Provider)
	setString("FORAGE_EMBEDDING_BASE_URL", &c.Embedding.BaseURL)
	setString("FORAGE_EMBEDDING_MODEL", &c.Embedding.Model)
	setInt("FORAGE_EMBEDDING_DIMENSIONS", &c.Embedding.Dimensions)
	setString("FORAGE_INDEX_PROVIDER", &c.Index.Provider)
	setString("FORAGE_QDRANT_URL", &c.Index.BaseURL)
	setString("FORAGE_QDRANT_COLLECTION", &c.Index.Collection)
	setString("FORAGE_QDRANT_API_KEY", &c.Index.APIKey)
	setString("FORAGE_LLM_BASE_URL", &c.LLM.BaseURL)
	setString("FORAGE_LLM_MODEL", &c.LLM.Model)
	setFloat("FORAGE_LLM_TEMPERATURE", &c.LLM.Temperature)
}

// fillDefaults replaces zero values left by a partial file.
func (c *Config) fillDefaults() {
	if c.Library.RecipesDir == "" {
		c.Library.RecipesDir = "recipes"
	}
	if c.Sync.ScanIntervalSeconds <= 0 {
		c.Sync.ScanIntervalSeconds = int(DefaultScanInterval / time.Second)
	}
	if c.Sync.FreshnessTimeoutSeconds <= 0 {
		c.Sync.FreshnessTimeoutSeconds = 5
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = DefaultTopK
	}
	if c.Search.SimilarityThreshold <= 0 {
		c.Search.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = DefaultDimensions
	}
	if c.Index.Provider == "" {
		c.Index.Provider = "memory"
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "recipes"
	}
}
