package dex

import (
	"errors"
	"fmt"
)

// Registry invariant violations. These indicate configuration or
// programming errors, not transient conditions, and are never retried.
var (
	ErrDexExists   = errors.New("dex already registered")
	ErrDexNotFound = errors.New("dex not registered")
	ErrPoolExists  = errors.New("pool already registered")
	ErrPoolLimit   = errors.New("monitored pool limit reached")
)

// NotFoundError reports a registry lookup miss at state-update time.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
