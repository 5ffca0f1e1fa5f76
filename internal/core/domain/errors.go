package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested recipe or version does not exist.
	// Surfaced immediately, never retried.
	ErrNotFound = errors.New("not found")

	// ErrStorage indicates an I/O failure on the persistence layer.
	// Retried with bounded backoff before being surfaced.
	ErrStorage = errors.New("storage failure")

	// ErrEmbedding indicates the external embedding call failed.
	// During sync the affected recipe is skipped and retried on the next
	// scan; on the query path it is fatal to that query.
	ErrEmbedding = errors.New("embedding failure")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRecipe indicates recipe text that fails format validation.
	ErrInvalidRecipe = errors.New("invalid recipe format")

	// ErrSyncInProgress indicates a scan cycle is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrValidationAmbiguous indicates claim extraction produced zero
	// claims for non-empty text. Treated as confidence 1.0 by policy and
	// logged as a tuning signal, never a hard failure.
	ErrValidationAmbiguous = errors.New("validation ambiguous: no extractable claims")

	// ErrGenerationUnavailable indicates the answer generator is not
	// configured. Search still works; `ask` is disabled.
	ErrGenerationUnavailable = errors.New("answer generation unavailable")
)
