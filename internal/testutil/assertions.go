package testutil

import (
	"testing"

	"github.com/junioryono/yunit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertRegistered checks the descriptors for service map to impls, in order.
func AssertRegistered(t *testing.T, reg *yunit.Collection, service *yunit.Type, impls ...*yunit.Type) {
	t.Helper()
	descriptors := reg.Lookup(service)
	require.Len(t, descriptors, len(impls), "descriptors for %s", service)
	for i, impl := range impls {
		assert.True(t, descriptors[i].ImplementationType.Equal(impl),
			"descriptor %d for %s: expected %s, got %s", i, service, impl, descriptors[i].ImplementationType)
	}
}

// AssertCompositionError checks err is a CompositionError for root.
func AssertCompositionError(t *testing.T, err error, root *yunit.Type) *yunit.CompositionError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, yunit.ErrUnsatisfiable)

	var compErr *yunit.CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.True(t, compErr.RootType.Equal(root), "expected root %s, got %s", root, compErr.RootType)
	return compErr
}

// AssertResolvable resolves T from p and checks it is not the zero value.
func AssertResolvable[T any](t *testing.T, p yunit.ServiceProvider) T {
	t.Helper()
	var service T
	err := p.Invoke(func(v T) { service = v })
	require.NoError(t, err, "failed to resolve service of type %T", *new(T))
	require.NotNil(t, service, "resolved service is nil")
	return service
}

// AssertErrorType checks if an error is of a specific type
func AssertErrorType[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	assert.ErrorAs(t, err, &target, msgAndArgs...)
	return target
}
