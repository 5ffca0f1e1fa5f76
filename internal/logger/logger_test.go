package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseToggle(t *testing.T) {
	defer SetVerbose(false)

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetVerbose(false)

	t.Run("gated levels are silent when verbose disabled", func(t *testing.T) {
		buf.Reset()
		SetVerbose(false)

		Debug("debug %d", 1)
		Info("info")
		Section("section")

		assert.Empty(t, buf.String())
	})

	t.Run("warnings print even when verbose disabled", func(t *testing.T) {
		buf.Reset()
		SetVerbose(false)

		Warn("watch unavailable")

		assert.Contains(t, buf.String(), "[WARN] watch unavailable")
	})

	t.Run("prints levels when verbose enabled", func(t *testing.T) {
		buf.Reset()
		SetVerbose(true)

		Debug("found %d changes", 3)
		Info("applied")
		Warn("embed failed")
		Section("Sync Cycle")

		out := buf.String()
		assert.Contains(t, out, "[DEBUG] found 3 changes")
		assert.Contains(t, out, "[INFO] applied")
		assert.Contains(t, out, "[WARN] embed failed")
		assert.Contains(t, out, "=== Sync Cycle ===")
	})
}
