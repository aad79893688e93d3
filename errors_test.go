package yunit

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorsTestService struct{}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrTypeNil, "type cannot be nil"},
		{ErrGenericArity, "wrong number of generic arguments"},
		{ErrNotGeneric, "type is not a generic definition"},
		{ErrUniverseNil, "type universe cannot be nil"},
		{ErrRegistryNil, "service registry cannot be nil"},
		{ErrDescriptorNil, "descriptor cannot be nil"},
		{ErrNotAssignable, "implementation is not assignable to service type"},
		{ErrInstanceMissing, "instance descriptor requires a non-nil instance"},
		{ErrConstructorNil, "constructor cannot be nil"},
		{ErrNotFunc, "constructor must be a function"},
		{ErrNoReturn, "constructor must return a non-error value"},
		{ErrUnsatisfiable, "service cannot be satisfied"},
		{ErrInvalidMaxDepth, "max depth must be positive"},
		{ErrNotConstructible, "implementation has no constructor function"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestLifetimeError(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"string value", "invalid", "invalid service lifetime: invalid"},
		{"int value", 999, "invalid service lifetime: 999"},
		{"nil value", nil, "invalid service lifetime: <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LifetimeError{Value: tt.value}.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	svc := NewClass("Service")

	err := ValidationError{ServiceType: svc, Cause: ErrNotAssignable}
	assert.Equal(t, "Service: implementation is not assignable to service type", err.Error())
	assert.ErrorIs(t, err, ErrNotAssignable)

	err = ValidationError{Cause: ErrTypeNil}
	assert.Equal(t, "type cannot be nil", err.Error())
}

func TestReflectionAnalysisError(t *testing.T) {
	ctor := func() *errorsTestService { return nil }
	err := ReflectionAnalysisError{Constructor: ctor, Operation: "roots", Cause: ErrNotFunc}

	assert.Equal(t, "reflection roots failed for constructor func() *yunit.errorsTestService: constructor must be a function", err.Error())
	assert.ErrorIs(t, err, ErrNotFunc)
}

func TestConfigError(t *testing.T) {
	cause := errors.New("bad value")

	err := ConfigError{Source: "env", Key: EnvMaxDepth, Cause: cause}
	assert.Equal(t, "config env: YUNIT_MAX_DEPTH: bad value", err.Error())
	assert.ErrorIs(t, err, cause)

	err = ConfigError{Source: "yunit.toml", Cause: cause}
	assert.Equal(t, "config yunit.toml: bad value", err.Error())
}

func TestCompositionError(t *testing.T) {
	root := NewClass("Root")
	leaf := NewClass("Leaf")
	missing := NewInterface("IMissing")

	err := &CompositionError{
		RootType: root,
		MaxDepth: 10,
		Chain: []ChainEntry{
			{Service: root, Implementation: root, Depth: 0},
			{Service: leaf, Implementation: leaf, Depth: 1},
			{Service: missing, Implementation: missing, Depth: 2},
		},
		PassID: "pass",
	}

	msg := err.Error()
	assert.Contains(t, msg, "parameter 'Root' cannot be created and the current maximum dependency injection depth is 10")
	assert.Contains(t, msg, "Dependency path:\nRoot\n    -> Leaf\n      -> IMissing\n")
	assert.Contains(t, msg, "\nTo resolve this:\n  • Register Root explicitly before composition\n")
	assert.Equal(t, "Root\n    -> Leaf\n      -> IMissing", err.Path())

	assert.ErrorIs(t, err, ErrUnsatisfiable)

	var target *CompositionError
	require.ErrorAs(t, error(err), &target)
	assert.Same(t, err, target)

	t.Run("without chain", func(t *testing.T) {
		err := &CompositionError{RootType: root, MaxDepth: 3}
		assert.Contains(t, err.Error(), "Dependency path:\nRoot\n")
		assert.Equal(t, "Root", err.Path())
	})
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected string
	}{
		{"nil", nil, "<nil>"},
		{"pointer", reflect.TypeFor[*errorsTestService](), "*errorsTestService"},
		{"struct", reflect.TypeFor[errorsTestService](), "errorsTestService"},
		{"slice", reflect.TypeFor[[]errorsTestService](), "[]errorsTestService"},
		{"builtin slice", reflect.TypeFor[[]string](), "[]string"},
		{"named", reflect.TypeFor[time.Duration](), "Duration"},
		{"interface", reflect.TypeFor[error](), "error"},
		{"anonymous", reflect.TypeFor[map[string]int](), "map[string]int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatType(tt.typ))
		})
	}
}
