package errors

import "errors"

var (
	// Device API errors
	ErrUnverifiableResponse = errors.New("response from server is unverifiable")
	ErrMissingField         = errors.New("missing field in response")
	ErrInvalidLevel         = errors.New("invalid battery level")

	// Configuration errors
	ErrMissingBaseURL = errors.New("base url is not set")
	ErrMissingSecret  = errors.New("secret is not set")
	ErrUnknownSink    = errors.New("unknown sink")

	// Sink errors
	ErrDuplicatePoint = errors.New("point already stored")
	ErrSinkClosed     = errors.New("sink is closed")
)

// VerificationError is returned when a response envelope fails signature
// verification. The cause is neither part of the message nor of the unwrap
// chain.
type VerificationError struct {
	cause error
}

// NewVerificationError wraps cause into a VerificationError.
func NewVerificationError(cause error) *VerificationError {
	return &VerificationError{cause: cause}
}

func (e *VerificationError) Error() string {
	return ErrUnverifiableResponse.Error()
}

// Is reports whether target is ErrUnverifiableResponse.
func (e *VerificationError) Is(target error) bool {
	return target == ErrUnverifiableResponse
}
