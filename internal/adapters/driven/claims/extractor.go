// Package claims provides a heuristic claim extractor that splits
// generated text into sentence-level claims.
package claims

import (
	"strings"

	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.ClaimExtractor = (*Extractor)(nil)

// minClaimLength drops sentence fragments too short to verify,
// such as "Yes." or a stray abbreviation.
const minClaimLength = 10

// sentenceTerminators end a claim.
const sentenceTerminators = ".!?"

// Extractor splits text into claims on sentence boundaries. It is a
// heuristic: each sentence is treated as one atomic claim.
type Extractor struct {
	minLength int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinLength overrides the minimum claim length.
func WithMinLength(n int) Option {
	return func(e *Extractor) {
		e.minLength = n
	}
}

// NewExtractor creates a sentence-splitting claim extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{minLength: minClaimLength}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractClaims returns the sentences in text that are long enough to
// be checked, in order of appearance. Newlines are treated as sentence
// boundaries too, so list items become separate claims.
func (e *Extractor) ExtractClaims(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, sentence := range splitSentences(line) {
			claim := strings.TrimSpace(sentence)
			claim = strings.TrimSpace(strings.TrimLeft(claim, "-*"))
			if len(claim) >= e.minLength {
				out = append(out, claim)
			}
		}
	}
	return out
}

// splitSentences cuts s at terminator runs, keeping the remainder as a
// final sentence when it lacks one.
func splitSentences(s string) []string {
	var (
		out   []string
		start int
	)
	for i, r := range s {
		if !strings.ContainsRune(sentenceTerminators, r) {
			continue
		}
		if i > start {
			out = append(out, s[start:i])
		}
		start = i + 1
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
