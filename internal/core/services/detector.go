package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

// Detector observes the recipe source and classifies changes against
// its last-known fingerprint table.
//
// The table is advanced only through Commit, after an event has been
// handed off and applied. An event whose apply failed is therefore
// re-emitted on the next scan (at-least-once delivery); the indexer's
// fingerprint check makes the redelivery a no-op when it already took.
type Detector struct {
	source driven.RecipeSource

	mu    sync.Mutex
	known map[string]knownEntry
}

type knownEntry struct {
	path        string
	fingerprint domain.Fingerprint
}

// NewDetector creates a change detector over a recipe source.
func NewDetector(source driven.RecipeSource) *Detector {
	return &Detector{
		source: source,
		known:  make(map[string]knownEntry),
	}
}

// Seed initialises the last-known table from recipes already in the
// store, so a restart does not re-emit events for unchanged files.
func (d *Detector) Seed(recipes []domain.Recipe) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range recipes {
		r := &recipes[i]
		d.known[r.ID] = knownEntry{path: r.Path, fingerprint: r.Fingerprint}
	}
}

// Scan enumerates the source and returns exactly one event per changed
// identity, plus the scanned content for created/modified identities so
// downstream apply does not re-read files. Per-file read failures are
// skipped: the identity stays unknown and is retried next scan.
func (d *Detector) Scan(ctx context.Context) ([]domain.ChangeEvent, map[string]domain.SourceEntry, error) {
	entries, readErrs := d.source.Scan(ctx)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, err := range readErrs {
		logger.Warn("Scan skipped a file: %v", err)
	}

	now := time.Now()
	present := make(map[string]bool, len(entries))
	contents := make(map[string]domain.SourceEntry, len(entries))
	var events []domain.ChangeEvent

	d.mu.Lock()
	for _, entry := range entries {
		present[entry.RecipeID] = true
		last, seen := d.known[entry.RecipeID]

		switch {
		case !seen:
			events = append(events, d.newEvent(entry.RecipeID, entry.Path, domain.ChangeCreated, entry.Fingerprint, now))
			contents[entry.RecipeID] = entry
		case !last.fingerprint.Equal(entry.Fingerprint):
			events = append(events, d.newEvent(entry.RecipeID, entry.Path, domain.ChangeModified, entry.Fingerprint, now))
			contents[entry.RecipeID] = entry
		}
	}

	for id, last := range d.known {
		if !present[id] {
			events = append(events, d.newEvent(id, last.path, domain.ChangeDeleted, domain.Fingerprint{}, now))
		}
	}
	d.mu.Unlock()

	// Stable order keeps batches reproducible in logs and tests.
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	return events, contents, nil
}

// Commit records that an event was successfully handed off and applied,
// advancing the last-known table for its identity.
func (d *Detector) Commit(ev domain.ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ev.Type == domain.ChangeDeleted {
		delete(d.known, ev.RecipeID)
		return
	}
	d.known[ev.RecipeID] = knownEntry{path: ev.Path, fingerprint: ev.Fingerprint}
}

func (d *Detector) newEvent(
	id, path string,
	t domain.ChangeType,
	fp domain.Fingerprint,
	at time.Time,
) domain.ChangeEvent {
	return domain.ChangeEvent{
		EventID:     uuid.NewString(),
		RecipeID:    id,
		Path:        path,
		Type:        t,
		Fingerprint: fp,
		DetectedAt:  at,
	}
}
