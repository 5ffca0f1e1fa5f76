package domain

import "time"

// ChangeKind is the kind of change a version record captures.
type ChangeKind string

const (
	// ChangeKindCreate marks the first version of a recipe.
	ChangeKindCreate ChangeKind = "create"

	// ChangeKindUpdate marks a content change.
	ChangeKindUpdate ChangeKind = "update"

	// ChangeKindDelete marks removal of the source file.
	ChangeKindDelete ChangeKind = "delete"

	// ChangeKindRollback marks a forward-moving restore of an earlier version.
	ChangeKindRollback ChangeKind = "rollback"
)

// VersionRecord is an immutable snapshot of a recipe at a point in time.
// Records form an append-only, oldest-first sequence per recipe; version
// numbers are strictly increasing and never reused. A rollback appends a
// new record whose content equals the target version's content, it never
// rewrites history.
type VersionRecord struct {
	// RecipeID is the recipe this record belongs to.
	RecipeID string

	// Version is the version number, starting at 1.
	Version int

	// Kind is what happened at this version.
	Kind ChangeKind

	// Content is the raw recipe text at this version. Empty for deletes.
	Content string

	// ContentHash is the hex SHA-256 of Content.
	ContentHash string

	// RestoredFrom is the version a rollback restored, 0 otherwise.
	RestoredFrom int

	// CreatedAt is when the record was appended.
	CreatedAt time.Time
}
