package domain

import "time"

// ChangeType is the classification of an observed library change.
type ChangeType int

const (
	// ChangeCreated indicates a recipe file that was not previously known.
	ChangeCreated ChangeType = iota

	// ChangeModified indicates a known file whose fingerprint differs.
	ChangeModified

	// ChangeDeleted indicates a previously known file that is now absent.
	ChangeDeleted
)

// String returns a human-readable name for the change type.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ChangeEvent describes one observed change to a recipe file.
// Events are transient: they are produced by a scan, consumed once by
// the coordinator, and may be redelivered on a later scan if the apply
// did not complete (downstream apply is idempotent on the fingerprint).
type ChangeEvent struct {
	// EventID uniquely identifies this emission, for log correlation.
	EventID string

	// RecipeID is the affected recipe.
	RecipeID string

	// Path is the file the event was observed at.
	Path string

	// Type is the change classification.
	Type ChangeType

	// Fingerprint is the observed content fingerprint. Zero for deletes.
	Fingerprint Fingerprint

	// DetectedAt is when the scan observed the change.
	DetectedAt time.Time
}

// SourceEntry is one enumerable item of a recipe source: identity,
// raw content and fingerprint, as produced by a side-effect-free scan.
type SourceEntry struct {
	// RecipeID is the identity derived from the canonical path.
	RecipeID string

	// Path is the file location.
	Path string

	// Content is the raw file bytes.
	Content []byte

	// Fingerprint is the content fingerprint at read time.
	Fingerprint Fingerprint
}
