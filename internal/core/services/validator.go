package services

import (
	"strings"

	"github.com/pantry-labs/forage-cli/internal/core/domain"
	"github.com/pantry-labs/forage-cli/internal/core/ports/driven"
	"github.com/pantry-labs/forage-cli/internal/logger"
)

// wordOverlapThreshold is the minimum share of a claim's significant
// words that must appear in a source for the claim to count as
// supported.
const wordOverlapThreshold = 0.3

// Validator checks generated answers against the recipes they were
// generated from. It never blocks an answer; it scores how much of the
// answer the sources actually back up.
type Validator struct {
	extractor driven.ClaimExtractor
}

// NewValidator creates a validator using the given claim extractor.
func NewValidator(extractor driven.ClaimExtractor) *Validator {
	return &Validator{extractor: extractor}
}

// Validate scores answer text against the source recipes. Confidence is
// supported claims over total claims; an answer with zero extractable
// claims scores 1.0, since there is nothing to contradict.
func (v *Validator) Validate(answer string, sources []domain.SearchResult) domain.ValidationResult {
	texts := v.extractor.ExtractClaims(answer)

	result := domain.ValidationResult{
		Claims: make([]domain.Claim, 0, len(texts)),
	}
	if len(texts) == 0 {
		if strings.TrimSpace(answer) != "" {
			logger.Debug("%v, treating answer as fully supported", domain.ErrValidationAmbiguous)
		}
		result.Confidence = 1.0
		return result
	}

	supporting := make(map[string]bool)
	supported := 0
	for _, text := range texts {
		claim := domain.Claim{Text: text}
		words := significantWords(text)

		for _, src := range sources {
			if claimSupported(words, &src.Recipe) {
				claim.Supported = true
				claim.SupportedBy = src.Recipe.ID
				break
			}
		}

		if claim.Supported {
			supported++
			supporting[claim.SupportedBy] = true
		} else {
			result.Unsupported = append(result.Unsupported, text)
		}
		result.Claims = append(result.Claims, claim)
	}

	result.Confidence = float64(supported) / float64(len(texts))
	for _, src := range sources {
		if supporting[src.Recipe.ID] {
			result.SupportingRecipes = append(result.SupportingRecipes, src.Recipe.ID)
		}
	}
	return result
}

// claimSupported reports whether a recipe backs a claim: enough of the
// claim's significant words must appear in the recipe text.
func claimSupported(claimWords []string, r *domain.Recipe) bool {
	if len(claimWords) == 0 {
		return false
	}
	text := strings.ToLower(r.RawContent)
	if text == "" {
		text = strings.ToLower(r.SearchText())
	}
	matched := 0
	for _, w := range claimWords {
		if strings.Contains(text, w) {
			matched++
		}
	}
	return float64(matched)/float64(len(claimWords)) > wordOverlapThreshold
}
