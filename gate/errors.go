package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
