package errors

import (
	"fmt"
)

/*
APIError is the error currency of the recall services.  Every failure a
handler can surface carries a stable machine-readable code, the HTTP status
it maps to, and a human-readable message.
*/
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`

	cause error
}

/*
Error implements the error interface for APIError.
*/
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause so errors.Is/As can walk the chain.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is matches on the stable code, so a copy produced by WithMessagef or Wrap
// still compares equal to its sentinel.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// Sentinel errors for the capture/retrieval pipeline.  Handlers translate
// these into HTTP responses; everything else becomes a 500.
var (
	ErrInvalidArgument   = &APIError{Status: 400, Code: "invalid_argument", Message: "Invalid argument"}
	ErrUnauthorized      = &APIError{Status: 401, Code: "unauthorized", Message: "Unauthorized"}
	ErrNotFound          = &APIError{Status: 404, Code: "not_found", Message: "Memory not found"}
	ErrEmbeddingFailure  = &APIError{Status: 502, Code: "embedding_failure", Message: "Embedding generation failed"}
	ErrGenerationFailure = &APIError{Status: 502, Code: "generation_failure", Message: "Text generation failed"}
	ErrMetadataParse     = &APIError{Status: 502, Code: "metadata_parse", Message: "Failed to parse metadata response"}
	ErrSearchUnavailable = &APIError{Status: 503, Code: "search_unavailable", Message: "Semantic search is unavailable"}
	ErrChatGeneration    = &APIError{Status: 502, Code: "chat_generation", Message: "Failed to generate chat answer"}
	ErrDimensionMismatch = &APIError{Status: 500, Code: "dimension_mismatch", Message: "Embedding dimensions do not match"}
)

// WithMessagef creates a *copy* of an APIError with a formatted message.
// It does not modify the original error variable.
func (e *APIError) WithMessagef(format string, args ...any) *APIError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

// Wrap creates a *copy* of an APIError carrying the underlying cause.
func (e *APIError) Wrap(err error) *APIError {
	newErr := *e
	newErr.cause = err
	return &newErr
}
