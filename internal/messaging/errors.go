package messaging

import "errors"

// Error taxonomy codes returned to HTTP callers.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidRecipient   = "INVALID_RECIPIENT"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrNotFound covers both absent resources and resources the caller
	// may not see; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Code maps an error from this package to its taxonomy code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRecipient):
		return CodeInvalidRecipient
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
