// Package yunittest builds auto-wired fixtures inside Go tests.
//
//	func TestOrders(t *testing.T) {
//	    f := yunittest.New[*OrderTests](t, NewOrderTests,
//	        host.WithConstructors(NewOrderService, NewOrderStore),
//	    )
//	    ...
//	}
//
// Configuration comes from the environment (YUNIT_* variables, a .env file
// and the file named by YUNIT_CONFIG); options passed to New override it.
package yunittest

import (
	"context"
	"testing"

	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewHost builds and starts a host for the fixture constructor ctor. The
// host is stopped when the test finishes.
func NewHost(t testing.TB, ctor any, opts ...host.Option) *host.Host {
	t.Helper()

	cfg, err := yunit.LoadEnv(yunit.DefaultConfig())
	require.NoError(t, err, "loading configuration")

	h, err := host.New(ctor, append([]host.Option{host.WithConfig(cfg)}, opts...)...)
	require.NoError(t, err, "building host")
	require.NoError(t, h.Start(t.Context()), "starting host")

	t.Cleanup(func() {
		assert.NoError(t, h.Stop(context.Background()), "stopping host")
	})
	return h
}

// New builds the fixture T from ctor in a fresh scope of a new host. The
// scope is closed and the host stopped when the test finishes.
func New[T any](t testing.TB, ctor any, opts ...host.Option) T {
	t.Helper()

	h := NewHost(t, ctor, opts...)
	scope, err := h.CreateScope(context.Background())
	require.NoError(t, err, "creating scope")
	t.Cleanup(func() {
		assert.NoError(t, scope.Close(), "closing scope")
	})

	v, err := h.Construct(scope)
	require.NoError(t, err, "constructing fixture")

	fixture, ok := v.(T)
	require.True(t, ok, "fixture constructor returned %T, want %T", v, *new(T))
	return fixture
}
