package host

import (
	"errors"
	"fmt"
)

var (
	ErrHostStarted    = errors.New("host has already been started")
	ErrHostNotStarted = errors.New("host has not been started")
	ErrHostStopped    = errors.New("host has been stopped")
	ErrScopeClosed    = errors.New("scope has been closed")
	ErrNoTarget       = errors.New("host has no fixture constructor")
	ErrScopeNotFound  = errors.New("no scope found in context")
)

// StartupError reports a failed startup convention method or lifecycle hook.
type StartupError struct {
	Method string // e.g. "ConfigureServices", "OnStart"
	Cause  error
}

func (e StartupError) Error() string {
	return fmt.Sprintf("startup %s failed: %v", e.Method, e.Cause)
}

func (e StartupError) Unwrap() error {
	return e.Cause
}

// BuildError reports a descriptor the container could not provide.
type BuildError struct {
	Descriptor string
	Cause      error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("failed to provide %s: %v", e.Descriptor, e.Cause)
}

func (e BuildError) Unwrap() error {
	return e.Cause
}
