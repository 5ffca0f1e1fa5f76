// Package sqlite implements the durable recipe store on SQLite with
// WAL journaling and embedded schema migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pantry-labs/forage-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecipeStore = (*Store)(nil)

// Store is the SQLite-backed recipe store: a `recipes` table holding
// current state and an append-only `recipe_versions` history table.
// Every write runs in a transaction, so a version record and its state
// update land together or not at all.
type Store struct {
	db     *sql.DB
	parser driven.RecipeParser
	path   string
}

// NewStore opens (creating if needed) the recipe database under
// dataDir. If dataDir is empty, defaults to ~/.forage/data. The parser
// rebuilds structured fields when a rollback restores old content.
func NewStore(dataDir string, parser driven.RecipeParser) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".forage", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "recipes.db")

	// WAL lets the sync loop write while the CLI reads.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, parser: parser, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Upsert stores a new revision of a recipe and appends a version record.
func (s *Store) Upsert(ctx context.Context, recipe *domain.Recipe) (*domain.VersionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin upsert", err)
	}
	defer tx.Rollback()

	current, err := getRecipeTx(ctx, tx, recipe.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	kind := domain.ChangeKindCreate
	recipe.CreatedAt = now
	if current != nil {
		kind = domain.ChangeKindUpdate
		recipe.CreatedAt = current.CreatedAt
	}

	version, err := nextVersionTx(ctx, tx, recipe.ID)
	if err != nil {
		return nil, err
	}
	recipe.Version = version
	recipe.UpdatedAt = now
	recipe.Deleted = false

	if err := saveRecipeTx(ctx, tx, recipe); err != nil {
		return nil, err
	}

	record := domain.VersionRecord{
		RecipeID:    recipe.ID,
		Version:     version,
		Kind:        kind,
		Content:     recipe.RawContent,
		ContentHash: recipe.Fingerprint.ContentHash,
		CreatedAt:   now,
	}
	if err := appendVersionTx(ctx, tx, &record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit upsert", err)
	}
	return &record, nil
}

// MarkDeleted appends a delete record and hides the recipe from active
// queries. Repeating a delete returns the existing delete record.
func (s *Store) MarkDeleted(ctx context.Context, recipeID string) (*domain.VersionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin delete", err)
	}
	defer tx.Rollback()

	current, err := getRecipeTx(ctx, tx, recipeID)
	if err != nil {
		return nil, err
	}
	if current.Deleted {
		return s.GetVersion(ctx, recipeID, current.Version)
	}

	now := time.Now().UTC()
	version, err := nextVersionTx(ctx, tx, recipeID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE recipes SET deleted = 1, version = ?, updated_at = ? WHERE id = ?",
		version, now, recipeID)
	if err != nil {
		return nil, storageErr("marking deleted", err)
	}

	record := domain.VersionRecord{
		RecipeID:  recipeID,
		Version:   version,
		Kind:      domain.ChangeKindDelete,
		CreatedAt: now,
	}
	if err := appendVersionTx(ctx, tx, &record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit delete", err)
	}
	return &record, nil
}

// Get retrieves the current state of a recipe, including deleted ones.
func (s *Store) Get(ctx context.Context, recipeID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, title, time, calories, diet, cuisine, ingredients,
		       steps, raw_content, content_hash, mod_time, version, deleted,
		       created_at, updated_at
		FROM recipes WHERE id = ?
	`, recipeID)
	return scanRecipe(row)
}

// History returns the full version history, oldest first.
func (s *Store) History(ctx context.Context, recipeID string) ([]domain.VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recipe_id, version, kind, content, content_hash, restored_from, created_at
		FROM recipe_versions WHERE recipe_id = ? ORDER BY version ASC
	`, recipeID)
	if err != nil {
		return nil, storageErr("querying history", err)
	}
	defer rows.Close()

	records, err := scanVersions(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	return records, nil
}

// GetVersion retrieves one version record.
func (s *Store) GetVersion(ctx context.Context, recipeID string, version int) (*domain.VersionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT recipe_id, version, kind, content, content_hash, restored_from, created_at
		FROM recipe_versions WHERE recipe_id = ? AND version = ?
	`, recipeID, version)

	var record domain.VersionRecord
	err := row.Scan(&record.RecipeID, &record.Version, &record.Kind,
		&record.Content, &record.ContentHash, &record.RestoredFrom, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("scanning version", err)
	}
	return &record, nil
}

// Rollback appends a new version whose content is copied from an
// earlier one and re-derives the structured fields from that content.
func (s *Store) Rollback(ctx context.Context, recipeID string, version int) (*domain.VersionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin rollback", err)
	}
	defer tx.Rollback()

	current, err := getRecipeTx(ctx, tx, recipeID)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT kind, content, content_hash FROM recipe_versions
		WHERE recipe_id = ? AND version = ?
	`, recipeID, version)
	var kind domain.ChangeKind
	var content, contentHash string
	if err := row.Scan(&kind, &content, &contentHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("reading target version", err)
	}
	if kind == domain.ChangeKindDelete {
		return nil, fmt.Errorf("%w: version %d is a delete record", domain.ErrInvalidInput, version)
	}

	restored, err := s.parser.Parse(current.Path, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("parse restored content: %w", err)
	}

	now := time.Now().UTC()
	newVersion, err := nextVersionTx(ctx, tx, recipeID)
	if err != nil {
		return nil, err
	}
	restored.Fingerprint = domain.NewFingerprint([]byte(content), now)
	restored.Version = newVersion
	restored.Deleted = false
	restored.CreatedAt = current.CreatedAt
	restored.UpdatedAt = now

	if err := saveRecipeTx(ctx, tx, restored); err != nil {
		return nil, err
	}

	record := domain.VersionRecord{
		RecipeID:     recipeID,
		Version:      newVersion,
		Kind:         domain.ChangeKindRollback,
		Content:      content,
		ContentHash:  contentHash,
		RestoredFrom: version,
		CreatedAt:    now,
	}
	if err := appendVersionTx(ctx, tx, &record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit rollback", err)
	}
	return &record, nil
}

// ListActive returns all non-deleted recipes ordered by path.
func (s *Store) ListActive(ctx context.Context) ([]domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, title, time, calories, diet, cuisine, ingredients,
		       steps, raw_content, content_hash, mod_time, version, deleted,
		       created_at, updated_at
		FROM recipes WHERE deleted = 0 ORDER BY path ASC
	`)
	if err != nil {
		return nil, storageErr("listing recipes", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating recipes", err)
	}
	return recipes, nil
}

// RecentChanges returns the most recent version records, newest first.
func (s *Store) RecentChanges(ctx context.Context, limit int) ([]domain.VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recipe_id, version, kind, content, content_hash, restored_from, created_at
		FROM recipe_versions ORDER BY created_at DESC, recipe_id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageErr("querying changes", err)
	}
	defer rows.Close()
	return scanVersions(rows)
}

// --- helpers ---

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner) (*domain.Recipe, error) {
	var r domain.Recipe
	var ingredients, steps string
	var modTime sql.NullTime
	var deleted int
	err := row.Scan(&r.ID, &r.Path, &r.Title, &r.Time, &r.Calories, &r.Diet,
		&r.Cuisine, &ingredients, &steps, &r.RawContent,
		&r.Fingerprint.ContentHash, &modTime, &r.Version, &deleted,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("scanning recipe", err)
	}

	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, storageErr("decoding ingredients", err)
	}
	if err := json.Unmarshal([]byte(steps), &r.Steps); err != nil {
		return nil, storageErr("decoding steps", err)
	}
	if modTime.Valid {
		r.Fingerprint.ModTime = modTime.Time
	}
	r.Deleted = deleted != 0
	return &r, nil
}

func scanVersions(rows *sql.Rows) ([]domain.VersionRecord, error) {
	var records []domain.VersionRecord
	for rows.Next() {
		var record domain.VersionRecord
		if err := rows.Scan(&record.RecipeID, &record.Version, &record.Kind,
			&record.Content, &record.ContentHash, &record.RestoredFrom,
			&record.CreatedAt); err != nil {
			return nil, storageErr("scanning version", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating versions", err)
	}
	return records, nil
}

func getRecipeTx(ctx context.Context, tx *sql.Tx, recipeID string) (*domain.Recipe, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, path, title, time, calories, diet, cuisine, ingredients,
		       steps, raw_content, content_hash, mod_time, version, deleted,
		       created_at, updated_at
		FROM recipes WHERE id = ?
	`, recipeID)
	return scanRecipe(row)
}

func nextVersionTx(ctx context.Context, tx *sql.Tx, recipeID string) (int, error) {
	var max int
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM recipe_versions WHERE recipe_id = ?", recipeID)
	if err := row.Scan(&max); err != nil {
		return 0, storageErr("reading max version", err)
	}
	return max + 1, nil
}

func saveRecipeTx(ctx context.Context, tx *sql.Tx, r *domain.Recipe) error {
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return storageErr("encoding ingredients", err)
	}
	steps, err := json.Marshal(r.Steps)
	if err != nil {
		return storageErr("encoding steps", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, path, title, time, calories, diet, cuisine,
			ingredients, steps, raw_content, content_hash, mod_time, version,
			deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			time = excluded.time,
			calories = excluded.calories,
			diet = excluded.diet,
			cuisine = excluded.cuisine,
			ingredients = excluded.ingredients,
			steps = excluded.steps,
			raw_content = excluded.raw_content,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			version = excluded.version,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at
	`, r.ID, r.Path, r.Title, r.Time, r.Calories, r.Diet, r.Cuisine,
		string(ingredients), string(steps), r.RawContent,
		r.Fingerprint.ContentHash, r.Fingerprint.ModTime, r.Version,
		boolToInt(r.Deleted), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return storageErr("saving recipe", err)
	}
	return nil
}

func appendVersionTx(ctx context.Context, tx *sql.Tx, record *domain.VersionRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO recipe_versions (recipe_id, version, kind, content,
			content_hash, restored_from, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.RecipeID, record.Version, record.Kind, record.Content,
		record.ContentHash, record.RestoredFrom, record.CreatedAt)
	if err != nil {
		return storageErr("appending version", err)
	}
	return nil
}

// storageErr wraps a database failure in the retryable sentinel.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
