package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
)

func TestDetector_Scan(t *testing.T) {
	ctx := context.Background()

	t.Run("emits created for unknown files", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")
		source.put("b.md", "Title: B\n")

		detector := NewDetector(source)
		events, contents, err := detector.Scan(ctx)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.ChangeCreated, events[0].Type)
		assert.Equal(t, "a.md", events[0].Path)
		assert.Equal(t, domain.ChangeCreated, events[1].Type)
		assert.Len(t, contents, 2)
	})

	t.Run("quiet scan emits nothing", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		events, _, err := detector.Scan(ctx)
		require.NoError(t, err)
		for _, ev := range events {
			detector.Commit(ev)
		}

		events, contents, err := detector.Scan(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Empty(t, contents)
	})

	t.Run("emits modified when content changes", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		events, _, _ := detector.Scan(ctx)
		for _, ev := range events {
			detector.Commit(ev)
		}

		source.put("a.md", "Title: A revised\n")
		events, contents, err := detector.Scan(ctx)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ChangeModified, events[0].Type)
		assert.Contains(t, contents, events[0].RecipeID)
	})

	t.Run("emits deleted for vanished files", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		events, _, _ := detector.Scan(ctx)
		for _, ev := range events {
			detector.Commit(ev)
		}

		source.remove("a.md")
		events, contents, err := detector.Scan(ctx)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ChangeDeleted, events[0].Type)
		assert.True(t, events[0].Fingerprint.IsZero())
		assert.Empty(t, contents)
	})

	t.Run("one event per identity even after multiple edits", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		events, _, _ := detector.Scan(ctx)
		for _, ev := range events {
			detector.Commit(ev)
		}

		// Two edits between scans collapse into a single modified event
		// carrying the latest fingerprint.
		source.put("a.md", "Title: A v2\n")
		source.put("a.md", "Title: A v3\n")

		events, contents, err := detector.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		entry := contents[events[0].RecipeID]
		assert.Equal(t, "Title: A v3\n", string(entry.Content))
		assert.True(t, events[0].Fingerprint.Equal(entry.Fingerprint))
	})

	t.Run("uncommitted event is re-emitted", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		first, _, err := detector.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, first, 1)

		// Apply failed, so nothing was committed.
		second, _, err := detector.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, first[0].RecipeID, second[0].RecipeID)
		assert.Equal(t, first[0].Type, second[0].Type)
		assert.NotEqual(t, first[0].EventID, second[0].EventID)
	})

	t.Run("touch without modify is invisible", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		events, _, _ := detector.Scan(ctx)
		for _, ev := range events {
			detector.Commit(ev)
		}

		// Rewriting identical bytes yields the same fingerprint.
		source.put("a.md", "Title: A\n")
		events, _, err := detector.Scan(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("returns context error when cancelled", func(t *testing.T) {
		source := newMockSource()
		detector := NewDetector(source)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := detector.Scan(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDetector_Seed(t *testing.T) {
	t.Run("seeded recipes do not re-emit", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A\n")

		detector := NewDetector(source)
		detector.Seed([]domain.Recipe{{
			ID:          domain.RecipeID("a.md"),
			Path:        "a.md",
			Fingerprint: domain.NewFingerprint([]byte("Title: A\n"), time0),
		}})

		events, _, err := detector.Scan(context.Background())
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("seeded recipe changed while offline emits modified", func(t *testing.T) {
		source := newMockSource()
		source.put("a.md", "Title: A changed offline\n")

		detector := NewDetector(source)
		detector.Seed([]domain.Recipe{{
			ID:          domain.RecipeID("a.md"),
			Path:        "a.md",
			Fingerprint: domain.NewFingerprint([]byte("Title: A\n"), time0),
		}})

		events, _, err := detector.Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ChangeModified, events[0].Type)
	})
}
