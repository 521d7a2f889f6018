package gateway

import "errors"

var (
	// ErrNoSession is returned when there is no current session.
	ErrNoSession = errors.New("no session")

	// ErrInvalidCredentials is returned when email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when a document or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an id or email is already taken.
	ErrConflict = errors.New("already exists")

	// ErrForbidden is returned when the session may not access a resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupported is returned for operations a backend does not offer.
	ErrUnsupported = errors.New("not supported by backend")
)
