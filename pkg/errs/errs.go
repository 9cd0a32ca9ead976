// Package errs provides common domain error types for the minv CLI.
//
// This package defines sentinel errors for the conditions the interactive
// session and the external adapters need to distinguish. Using typed errors
// enables consistent error handling patterns with errors.Is() checks.
//
// Usage:
//
//	import "github.com/otherjamesbrown/minv/pkg/errs"
//
//	// Return a domain error
//	return fmt.Errorf("%w: duration must be between 0 and 24 hours", errs.ErrValidation)
//
//	// Check for domain errors
//	if errs.IsValidation(err) {
//	    // reprompt the operator
//	}
package errs

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrValidation indicates operator input that failed to parse or is out
	// of range. Always user-correctable; the command layer reprompts.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a referenced customer, meeting, or index that
	// does not exist in the current session.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates an operation that is not legal for the
	// current state, such as selecting an already-billed meeting.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnavailable indicates an external collaborator (billing provider,
	// calendar source) could not be reached or returned an error.
	ErrUnavailable = errors.New("service unavailable")
)

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsUnavailable reports whether any error in err's chain is ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
