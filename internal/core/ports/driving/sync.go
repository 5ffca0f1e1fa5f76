package driving

import (
	"context"
	"time"
)

// SyncCoordinator keeps the index consistent with the recipe library.
type SyncCoordinator interface {
	// Start runs the background scan loop until the context is
	// cancelled or Stop is called. Blocks.
	Start(ctx context.Context) error

	// Stop shuts the loop down and waits for an in-flight cycle.
	Stop() error

	// EnsureUpToDate performs one synchronous scan-and-apply cycle,
	// blocking until every resulting event is applied or the timeout
	// elapses. On timeout it returns the best-effort report with
	// Stale set rather than an error.
	EnsureUpToDate(ctx context.Context, timeout time.Duration) (*SyncReport, error)

	// Status reports the coordinator's current state.
	Status() SyncStatus
}

// SyncReport aggregates the outcome of one scan-and-apply cycle.
// Per-recipe failures are isolated and counted, never fatal to the batch.
type SyncReport struct {
	// BatchID correlates log lines for this cycle.
	BatchID string

	// Scanned is the number of change events the scan produced.
	Scanned int

	// Applied is the number of events applied successfully.
	Applied int

	// Failed is the number of events whose apply failed; these are
	// retried on the next scan.
	Failed int

	// Stale indicates the cycle did not complete within its deadline
	// and the index may lag the library by up to one scan interval.
	Stale bool

	// StartedAt and FinishedAt bound the cycle.
	StartedAt  time.Time
	FinishedAt time.Time
}

// SyncStatus is a point-in-time view of the coordinator.
type SyncStatus struct {
	// Running indicates the background loop is active.
	Running bool

	// Scanning indicates a scan-and-apply cycle is in flight.
	Scanning bool

	// LastReport is the most recent completed cycle, nil before the first.
	LastReport *SyncReport
}
