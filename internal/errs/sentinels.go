// Package errs contains sentinel errors shared across services for stable error mapping.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested key or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentity indicates a matricule or email collision at registration.
	ErrDuplicateIdentity = errors.New("matricule or email already registered")

	// ErrInvalidCredentials indicates a failed login. Deliberately does not
	// distinguish unknown matricule from wrong password.
	ErrInvalidCredentials = errors.New("invalid matricule or password")

	// ErrInvalidToken indicates the submitted check-in token does not match
	// the current daily token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrAlreadyMarked indicates a duplicate self check-in for the same day and token.
	ErrAlreadyMarked = errors.New("presence already marked today")

	// ErrValidation indicates a required field was empty or malformed.
	ErrValidation = errors.New("validation failed")
)
