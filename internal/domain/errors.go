package domain

import "errors"

// Failure taxonomy. Callers match with errors.Is; adapters wrap these
// with context using fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidConfiguration marks a caller bug in chunking or compile
	// parameters. Never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmbeddingUnavailable is returned after the embedding backend
	// failed and a single retry did not recover it.
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")

	// ErrModelUnavailable is returned when the generation backend fails.
	ErrModelUnavailable = errors.New("generation model unavailable")

	// ErrVisionUnavailable is returned when the vision backend fails for
	// one image; the rest of the batch continues.
	ErrVisionUnavailable = errors.New("vision model unavailable")

	// ErrUnsafeQuery marks a generated SQL statement that failed
	// validation. The statement is never executed.
	ErrUnsafeQuery = errors.New("unsafe query rejected")

	// ErrQueryExecutionFailed wraps a runtime database error from an
	// already-validated statement. Not retried.
	ErrQueryExecutionFailed = errors.New("query execution failed")

	// ErrIndexCorruption marks a persisted collection that could not be
	// read back and could not be rebuilt from its chunk log. Fatal for
	// that collection only.
	ErrIndexCorruption = errors.New("index corruption")
)
