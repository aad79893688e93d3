package yunit_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryCount int

func TestIsSimple(t *testing.T) {
	tests := []struct {
		typ      reflect.Type
		expected bool
	}{
		{reflect.TypeFor[bool](), true},
		{reflect.TypeFor[int](), true},
		{reflect.TypeFor[uint8](), true},
		{reflect.TypeFor[float64](), true},
		{reflect.TypeFor[string](), true},
		{reflect.TypeFor[retryCount](), true},
		{reflect.TypeFor[[]byte](), true},
		{reflect.TypeFor[time.Time](), true},
		{reflect.TypeFor[time.Duration](), true},
		{reflect.TypeFor[uuid.UUID](), true},
		{reflect.TypeFor[*testutil.OrderStore](), false},
		{reflect.TypeFor[testutil.Greeter](), false},
		{reflect.TypeFor[[]testutil.Greeter](), false},
		{reflect.TypeFor[map[string]int](), false},
		{nil, false},
	}

	for _, tt := range tests {
		name := "<nil>"
		if tt.typ != nil {
			name = tt.typ.String()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, yunit.IsSimple(tt.typ))
		})
	}
}

func TestRootTypes(t *testing.T) {
	u := yunit.NewUniverse()

	t.Run("skips simple parameters", func(t *testing.T) {
		roots, err := yunit.RootTypes(u, testutil.NewOrderTests)
		require.NoError(t, err)
		require.Len(t, roots, 2)

		elem, ok := roots[0].EnumerableElem()
		require.True(t, ok)
		assert.Same(t, yunit.TypeFor[testutil.Greeter](u), elem)
		assert.Same(t, yunit.TypeFor[*testutil.OrderService](u), roots[1])
	})

	t.Run("skips optional and variadic parameters", func(t *testing.T) {
		roots, err := yunit.RootTypes(u, func(clock testutil.Clock, extra ...testutil.Greeter) {})
		require.NoError(t, err)
		assert.Equal(t, []*yunit.Type{yunit.TypeFor[testutil.Clock](u)}, roots)

		roots, err = yunit.RootTypes(u, newParamService)
		require.NoError(t, err)
		assert.Equal(t, []*yunit.Type{yunit.TypeFor[testutil.Clock](u)}, roots)
	})

	t.Run("no parameters", func(t *testing.T) {
		roots, err := yunit.RootTypes(u, func() {})
		require.NoError(t, err)
		assert.Empty(t, roots)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := yunit.RootTypes(nil, testutil.NewOrderTests)
		assert.ErrorIs(t, err, yunit.ErrUniverseNil)

		_, err = yunit.RootTypes(u, nil)
		assert.ErrorIs(t, err, yunit.ErrConstructorNil)

		_, err = yunit.RootTypes(u, 42)
		testutil.AssertErrorType[yunit.ReflectionAnalysisError](t, err)
	})
}
