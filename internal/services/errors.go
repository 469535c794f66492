package services

import (
	"errors"
	"strings"
)

// Error classes surfaced by the services. Wrapped errors keep the failing step
// and the original cause in their message.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrPersistence    = errors.New("persistence failure")
	ErrRender         = errors.New("invoice rendering failed")
	ErrSerialOverflow = errors.New("daily invoice sequence exhausted")
	ErrInvalidLogin   = errors.New("invalid credentials")
)

// ValidationError carries a message code plus per-field violation codes.
type ValidationError struct {
	Code   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Code
	}
	parts := make([]string, 0, len(e.Fields))
	for field, code := range e.Fields {
		parts = append(parts, field+"="+code)
	}
	return "validation failed: " + e.Code + " (" + strings.Join(parts, ", ") + ")"
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
