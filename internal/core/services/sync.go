package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driving"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

// Ensure Coordinator implements the interface.
var _ driving.SyncCoordinator = (*Coordinator)(nil)

// Coordinator drives the sync loop: detector scan, store update, index
// apply. One scan cycle runs at a time; a new scan never starts while a
// previous apply phase is still running. Per-event failures are logged,
// counted and retried on the next scan, never fatal to the batch.
type Coordinator struct {
	detector *Detector
	store    driven.RecipeStore
	indexer  *Indexer
	parser   driven.RecipeParser
	source   driven.RecipeSource
	interval time.Duration
	retry    retryPolicy

	// cycleMu serialises scan-and-apply cycles.
	cycleMu sync.Mutex

	mu       sync.Mutex
	running  bool
	scanning bool
	last     *driving.SyncReport
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCoordinator creates a sync coordinator.
func NewCoordinator(
	detector *Detector,
	store driven.RecipeStore,
	indexer *Indexer,
	parser driven.RecipeParser,
	source driven.RecipeSource,
	interval time.Duration,
) *Coordinator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Coordinator{
		detector: detector,
		store:    store,
		indexer:  indexer,
		parser:   parser,
		source:   source,
		interval: interval,
		retry:    defaultRetry,
	}
}

// Bootstrap prepares for serving after a restart: the index is rebuilt
// from the store's active recipes and the detector is seeded with their
// fingerprints. No historical change replay is needed.
func (c *Coordinator) Bootstrap(ctx context.Context) error {
	recipes, err := c.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	c.detector.Seed(recipes)

	if _, err := c.indexer.Rebuild(ctx, c.store); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// Start runs the background scan loop. Blocks until the context is
// cancelled or Stop is called. A watch signal from the source triggers
// an immediate cycle; the poll ticker guarantees progress either way.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return domain.ErrSyncInProgress
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	var watchCh <-chan struct{}
	if ch, err := c.source.Watch(ctx); err != nil {
		logger.Warn("Watch unavailable, polling only: %v", err)
	} else {
		watchCh = ch
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// First cycle immediately so startup does not wait a full interval.
	c.runGuardedCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			c.runGuardedCycle(ctx)
		case _, ok := <-watchCh:
			if !ok {
				watchCh = nil
				continue
			}
			c.runGuardedCycle(ctx)
		}
	}
}

// Stop shuts the loop down and waits for an in-flight cycle.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// EnsureUpToDate performs one synchronous scan-and-apply cycle. On
// timeout the best-effort report is returned with Stale set; callers
// must treat the result as possibly lagging the library.
func (c *Coordinator) EnsureUpToDate(ctx context.Context, timeout time.Duration) (*driving.SyncReport, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := c.runCycle(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		// Possibly stale, not an error: the next scan will catch up.
		if report != nil {
			report.Stale = true
		}
		return report, nil
	}
	return report, err
}

// Status reports the coordinator's current state.
func (c *Coordinator) Status() driving.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	var last *driving.SyncReport
	if c.last != nil {
		cp := *c.last
		last = &cp
	}
	return driving.SyncStatus{
		Running:  c.running,
		Scanning: c.scanning,
		LastReport: last,
	}
}

// runGuardedCycle runs one cycle from the background loop, tracking it
// so Stop can wait for completion.
func (c *Coordinator) runGuardedCycle(ctx context.Context) {
	c.wg.Add(1)
	defer c.wg.Done()
	if _, err := c.runCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Sync cycle failed: %v", err)
	}
}

// runCycle performs one scan-and-apply cycle under the cycle lock.
func (c *Coordinator) runCycle(ctx context.Context) (*driving.SyncReport, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	c.setScanning(true)
	defer c.setScanning(false)

	report := &driving.SyncReport{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now(),
	}

	logger.Section("Sync Cycle")

	events, contents, err := c.detector.Scan(ctx)
	if err != nil {
		return c.finish(report), err
	}
	report.Scanned = len(events)
	logger.Debug("Batch %s: %d change(s) detected", report.BatchID, len(events))

	for _, ev := range events {
		if ctx.Err() != nil {
			report.Stale = true
			logger.Warn("Batch %s interrupted: %d event(s) deferred to next scan",
				report.BatchID, report.Scanned-report.Applied-report.Failed)
			return c.finish(report), ctx.Err()
		}

		entry, hasContent := contents[ev.RecipeID]
		if err := c.applyEvent(ctx, ev, entry, hasContent); err != nil {
			report.Failed++
			logger.Warn("Apply %s for %s failed: %v", ev.Type, ev.Path, err)
			continue
		}
		c.detector.Commit(ev)
		report.Applied++
		logger.Debug("Applied %s for %s", ev.Type, ev.Path)
	}

	if report.Scanned > 0 {
		logger.Info("Batch %s: %d applied, %d failed", report.BatchID, report.Applied, report.Failed)
	}
	return c.finish(report), nil
}

// applyEvent handles one event: store update, then index apply.
func (c *Coordinator) applyEvent(
	ctx context.Context,
	ev domain.ChangeEvent,
	entry domain.SourceEntry,
	hasContent bool,
) error {
	if ev.Type == domain.ChangeDeleted {
		err := c.retry.run(ctx, func() error {
			_, err := c.store.MarkDeleted(ctx, ev.RecipeID)
			return err
		})
		// A recipe that never made it into the store has nothing to delete.
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("mark deleted: %w", err)
		}
		return c.indexer.Apply(ctx, ev, nil)
	}

	if !hasContent {
		return fmt.Errorf("%w: no content for %s", domain.ErrInvalidInput, ev.RecipeID)
	}

	recipe, err := c.parser.Parse(entry.Path, entry.Content)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	recipe.Fingerprint = entry.Fingerprint

	// A redelivered event may already be in the store from a cycle whose
	// index apply failed. Upserting identical content again would append
	// a duplicate version record, so reuse the stored version instead.
	if current, getErr := c.store.Get(ctx, ev.RecipeID); getErr == nil &&
		!current.Deleted &&
		current.Fingerprint.ContentHash == entry.Fingerprint.ContentHash {
		recipe.Version = current.Version
		return c.indexer.Apply(ctx, ev, recipe)
	}

	var record *domain.VersionRecord
	err = c.retry.run(ctx, func() error {
		var upsertErr error
		record, upsertErr = c.store.Upsert(ctx, recipe)
		return upsertErr
	})
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	recipe.Version = record.Version

	return c.indexer.Apply(ctx, ev, recipe)
}

func (c *Coordinator) setScanning(v bool) {
	c.mu.Lock()
	c.scanning = v
	c.mu.Unlock()
}

func (c *Coordinator) finish(report *driving.SyncReport) *driving.SyncReport {
	report.FinishedAt = time.Now()
	c.mu.Lock()
	c.last = report
	c.mu.Unlock()
	return report
}
