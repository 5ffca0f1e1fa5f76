package domain

// Claim is an atomic factual statement extracted from generated text.
// Claims are the unit checked during answer validation.
type Claim struct {
	// Text is the claim as extracted.
	Text string

	// Supported reports whether the claim was found in a source recipe.
	Supported bool

	// SupportedBy is the recipe that supports the claim, empty when
	// Supported is false.
	SupportedBy string
}

// ValidationResult is the outcome of validating a generated answer
// against its supporting recipes.
type ValidationResult struct {
	// Confidence is supported claims over total claims, in [0,1].
	// Defined as 1.0 when the answer yields zero claims.
	Confidence float64

	// Claims holds every extracted claim with its support status,
	// in extraction order.
	Claims []Claim

	// SupportingRecipes lists the identities of recipes that supported
	// at least one claim.
	SupportingRecipes []string

	// Unsupported lists the texts of claims with no support, so callers
	// can highlight them individually.
	Unsupported []string
}

// GeneratedAnswer pairs generated answer text with its validation.
type GeneratedAnswer struct {
	// Query is the question that was answered.
	Query string

	// Text is the generated answer.
	Text string

	// Sources are the retrieval results the answer was generated from.
	Sources []SearchResult

	// Validation scores the answer against the sources.
	Validation ValidationResult
}
