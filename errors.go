package yunit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that should be wrapped in typed errors when returned.

var (
	// Type model errors.
	ErrTypeNil         = errors.New("type cannot be nil")
	ErrGenericArity    = errors.New("wrong number of generic arguments")
	ErrNotGeneric      = errors.New("type is not a generic definition")
	ErrUniverseNil     = errors.New("type universe cannot be nil")
	ErrRegistryNil     = errors.New("service registry cannot be nil")
	ErrDescriptorNil   = errors.New("descriptor cannot be nil")
	ErrNotAssignable   = errors.New("implementation is not assignable to service type")
	ErrInstanceMissing = errors.New("instance descriptor requires a non-nil instance")

	// Constructor analysis errors.
	ErrConstructorNil = errors.New("constructor cannot be nil")
	ErrNotFunc        = errors.New("constructor must be a function")
	ErrNoReturn       = errors.New("constructor must return a non-error value")

	// Composition errors.
	ErrUnsatisfiable    = errors.New("service cannot be satisfied")
	ErrInvalidMaxDepth  = errors.New("max depth must be positive")
	ErrNotConstructible = errors.New("implementation has no constructor function")
)

var (
	_ error = LifetimeError{}
	_ error = ValidationError{}
	_ error = ReflectionAnalysisError{}
	_ error = ConfigError{}
	_ error = (*CompositionError)(nil)
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifetimeError indicates an invalid service lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid service lifetime: %v", e.Value)
}

// ValidationError indicates a descriptor or type failed validation.
type ValidationError struct {
	ServiceType *Type
	Cause       error
}

func (e ValidationError) Error() string {
	if e.ServiceType != nil {
		return fmt.Sprintf("%s: %v", e.ServiceType, e.Cause)
	}
	return e.Cause.Error()
}

func (e ValidationError) Unwrap() error {
	return e.Cause
}

// ReflectionAnalysisError for reflection/analysis failures
type ReflectionAnalysisError struct {
	Constructor any
	Operation   string // "analyze", "roots", "provide"
	Cause       error
}

func (e ReflectionAnalysisError) Error() string {
	return fmt.Sprintf("reflection %s failed for constructor %T: %v", e.Operation, e.Constructor, e.Cause)
}

func (e ReflectionAnalysisError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an invalid configuration value and where it came from.
type ConfigError struct {
	Source string // file path or environment variable
	Key    string
	Cause  error
}

func (e ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config %s: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Source, e.Key, e.Cause)
}

func (e ConfigError) Unwrap() error {
	return e.Cause
}

// CompositionError is returned when a root type cannot be satisfied. It is a
// fatal setup failure for the fixture that requested the composition pass.
type CompositionError struct {
	// RootType is the unsatisfied root.
	RootType *Type

	// MaxDepth is the configured recursion bound of the pass.
	MaxDepth int

	// Chain is the retained dependency chain of the failed root.
	Chain []ChainEntry

	// PassID identifies the composition pass in logs.
	PassID string
}

func (e *CompositionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parameter '%s' cannot be created and the current maximum dependency injection depth is %d",
		e.RootType, e.MaxDepth)

	if path := RenderChain(e.RootType, e.Chain); path != "" {
		b.WriteString("\n\nDependency path:\n")
		b.WriteString(path)
		b.WriteString("\n")
	}

	b.WriteString("\nTo resolve this:\n")
	fmt.Fprintf(&b, "  • Register %s explicitly before composition\n", e.RootType)
	b.WriteString("  • Make sure an exported implementation with a satisfiable constructor is provided\n")
	b.WriteString("  • Break constructor cycles or raise the maximum depth\n")

	return b.String()
}

func (e *CompositionError) Unwrap() error {
	return ErrUnsatisfiable
}

// Path returns the rendered dependency path without the surrounding message.
func (e *CompositionError) Path() string {
	return RenderChain(e.RootType, e.Chain)
}

// formatType formats a reflect.Type for names and error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
