package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_ExtractClaims(t *testing.T) {
	extractor := NewExtractor()

	t.Run("splits sentences into separate claims", func(t *testing.T) {
		got := extractor.ExtractClaims("The stew simmers for two hours. It uses red wine and beef stock.")

		assert.Equal(t, []string{
			"The stew simmers for two hours",
			"It uses red wine and beef stock",
		}, got)
	})

	t.Run("drops short fragments", func(t *testing.T) {
		got := extractor.ExtractClaims("Yes. The pasta needs twelve minutes of boiling.")

		assert.Equal(t, []string{"The pasta needs twelve minutes of boiling"}, got)
	})

	t.Run("treats list items as claims", func(t *testing.T) {
		got := extractor.ExtractClaims("You will need:\n- fresh basil leaves\n- extra virgin olive oil")

		assert.Equal(t, []string{
			"You will need:",
			"fresh basil leaves",
			"extra virgin olive oil",
		}, got)
	})

	t.Run("handles text without terminators", func(t *testing.T) {
		got := extractor.ExtractClaims("simmer the sauce until thick")

		assert.Equal(t, []string{"simmer the sauce until thick"}, got)
	})

	t.Run("empty text yields no claims", func(t *testing.T) {
		assert.Empty(t, extractor.ExtractClaims(""))
		assert.Empty(t, extractor.ExtractClaims("   \n  "))
	})

	t.Run("question and exclamation marks end claims", func(t *testing.T) {
		got := extractor.ExtractClaims("Serve it immediately while hot! Garnish with parsley before plating.")

		assert.Equal(t, []string{
			"Serve it immediately while hot",
			"Garnish with parsley before plating",
		}, got)
	})

	t.Run("custom minimum length", func(t *testing.T) {
		short := NewExtractor(WithMinLength(3))
		got := short.ExtractClaims("Yes. No.")

		assert.Equal(t, []string{"Yes", "No"}, got)
	})
}
