// Package filesystem reads the recipe library from a local directory
// tree, with fsnotify change notification to nudge the sync loop
// between polls.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RecipeSource = (*Source)(nil)

// recipeExtensions are the file types treated as recipes.
var recipeExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// Source is a filesystem implementation of driven.RecipeSource rooted
// at a single directory.
type Source struct {
	root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// New creates a filesystem source for the given root directory.
func New(root string) *Source {
	return &Source{root: root}
}

// Scan reads every recipe file under the root. Hidden files and
// directories are skipped. Individual read failures are collected and
// returned alongside the entries that did succeed.
func (s *Source) Scan(ctx context.Context) ([]domain.SourceEntry, []error) {
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return nil, []error{fmt.Errorf("recipe directory %s does not exist", s.root)}
	}

	var entries []domain.SourceEntry
	var errs []error

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !recipeExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			return nil
		}

		canonical := s.canonicalPath(path)
		entries = append(entries, domain.SourceEntry{
			RecipeID:    domain.RecipeID(canonical),
			Path:        canonical,
			Content:     content,
			Fingerprint: domain.NewFingerprint(content, fi.ModTime()),
		})
		return nil
	})
	if walkErr != nil && walkErr != ctx.Err() {
		errs = append(errs, walkErr)
	}
	return entries, errs
}

// Watch signals whenever anything under the root changes. The signal
// is coalesced and payload-free; callers respond by scanning.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.root, err)
	}

	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.watcher = watcher
	s.mu.Unlock()

	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New directories must be watched too.
				if ev.Op.Has(fsnotify.Create) {
					if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
						_ = watcher.Add(ev.Name)
					}
				}
				select {
				case signals <- struct{}{}:
				default:
					// A signal is already pending; scans coalesce.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()
	return signals, nil
}

// Close releases the watcher, if any.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}

// canonicalPath is the library-relative, slash-separated path used to
// derive recipe identity. Identity must not depend on where the
// library happens to be mounted.
func (s *Source) canonicalPath(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
