package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Recipe is the canonical representation of an indexed recipe.
// It is the parsed form of a recipe file, plus the bookkeeping the
// sync engine needs: a content fingerprint and the current version.
type Recipe struct {
	// ID is the stable identity, derived from the canonical source path.
	ID string

	// Path is the location of the recipe file within the library.
	Path string

	// Title is the recipe title.
	Title string

	// Time is the preparation time as written (e.g. "15 min").
	Time string

	// Calories is the calorie count, 0 when not stated.
	Calories int

	// Diet is the dietary category (e.g. "Vegetarian"), may be empty.
	Diet string

	// Cuisine is the cuisine label (e.g. "Italian"), may be empty.
	Cuisine string

	// Ingredients is the ordered ingredient list.
	Ingredients []string

	// Steps is the ordered preparation steps.
	Steps []string

	// RawContent is the original file text before parsing.
	RawContent string

	// Fingerprint identifies this exact content revision.
	Fingerprint Fingerprint

	// Version is the current version number, strictly increasing per recipe.
	Version int

	// Deleted marks a recipe whose file was removed. History is retained;
	// deleted recipes are excluded from search and listing.
	Deleted bool

	// CreatedAt is when the recipe was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the current version was stored.
	UpdatedAt time.Time
}

// RecipeID derives the stable identity for a recipe from its canonical path.
func RecipeID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return "rcp_" + hex.EncodeToString(sum[:])[:16]
}

// SearchText composes the text that is embedded for semantic search:
// title, cuisine, diet, ingredients and steps joined into one passage.
func (r *Recipe) SearchText() string {
	parts := []string{r.Title, r.Cuisine, r.Diet}
	parts = append(parts, r.Ingredients...)
	parts = append(parts, r.Steps...)

	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Fingerprint identifies a recipe file revision cheaply.
// The content hash is authoritative; the modification time is carried
// for diagnostics only and never compared, so touch-without-modify does
// not produce spurious updates and clock skew does not hide real ones.
type Fingerprint struct {
	// ContentHash is the hex SHA-256 of the raw file content.
	ContentHash string

	// ModTime is the file modification time at observation.
	ModTime time.Time
}

// NewFingerprint computes the fingerprint for raw file content.
func NewFingerprint(content []byte, modTime time.Time) Fingerprint {
	sum := sha256.Sum256(content)
	return Fingerprint{
		ContentHash: hex.EncodeToString(sum[:]),
		ModTime:     modTime,
	}
}

// Equal reports whether two fingerprints denote the same content.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.ContentHash == other.ContentHash
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f.ContentHash == ""
}
