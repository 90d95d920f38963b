package monitor

import (
	"errors"
	"fmt"
)

// ErrSessionLimit is returned when every sampling worker is busy
var ErrSessionLimit = errors.New("sampling session limit reached")

// NotFoundError reports a monitoring key with no registry entry
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// ValidationError reports an argument outside what the engine accepts
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
