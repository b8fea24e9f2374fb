package contract

import "errors"

var (
	// ErrParseAmbiguous is latent: recognizer priorities currently resolve
	// every overlap deterministically, but callers still classify on it.
	ErrParseAmbiguous = errors.New("ambiguous intent")

	ErrNotFound           = errors.New("product not found")
	ErrInvalidComputation = errors.New("invalid computation")
	ErrToolUnavailable    = errors.New("tool provider unavailable")
	ErrStoreUnavailable   = errors.New("product store unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrTimeout            = errors.New("query deadline exceeded")
)
