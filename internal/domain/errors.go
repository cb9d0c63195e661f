package domain

import "errors"

// Sentinel errors for the failure taxonomy. Input errors are the caller's
// fault and map to 400; everything else surfaces as a server-side failure.
var (
	ErrEmptyPrompt       = errors.New("prompt must not be empty")
	ErrUnknownModel      = errors.New("unknown model")
	ErrMissingCredential = errors.New("generation provider credential is not configured")
	ErrNoOutput          = errors.New("provider returned no output")
)

// IsInputError reports whether err was caused by invalid caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyPrompt) || errors.Is(err, ErrUnknownModel)
}
