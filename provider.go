package yunit

import (
	"context"
	"reflect"

	"github.com/rs/zerolog"
	"go.uber.org/dig"
)

// Disposable is implemented by resources that need cleanup.
type Disposable interface {
	Close() error
}

// ServiceProvider resolves services for a fixture. Invoke calls function with
// its parameters resolved from the provider.
type ServiceProvider interface {
	Invoke(function any) error
}

// Scope is a ServiceProvider with its own scoped instances.
type Scope interface {
	ServiceProvider
	Disposable

	// Returns the unique identifier for this scope.
	ID() string

	// Returns the context the scope was created with.
	Context() context.Context
}

// ScopeFactory creates scopes.
type ScopeFactory interface {
	CreateScope(ctx context.Context) (Scope, error)
}

// In marks a struct as a parameter object. Fields of an embedding struct are
// treated as individual constructor parameters; fields tagged optional:"true"
// are optional.
type In = dig.In

var anyType = reflect.TypeFor[any]()

var (
	// Any is the universal top type every class and struct derives from.
	Any = &Type{name: "any", kind: Class, rtype: anyType}

	// ServiceProviderType is always satisfiable; the host supplies it.
	ServiceProviderType = newReflectedType(reflect.TypeFor[ServiceProvider]())

	// ScopeFactoryType is always satisfiable; the host supplies it.
	ScopeFactoryType = newReflectedType(reflect.TypeFor[ScopeFactory]())

	// Enumerable is the open "enumerable of T" interface. Requests for
	// Enumerable[T] are collection requests for T, and Go slices map to it.
	Enumerable = NewInterface("Enumerable",
		InPackage("github.com/junioryono/yunit"),
		GenericParams(NewGenericParameter("T", 0)),
	)

	// LoggerType is the baseline logging facility registered by every
	// composition pass.
	LoggerType = newReflectedType(reflect.TypeFor[zerolog.Logger]())
)

// wellKnown maps framework Go types to their shared Type.
var wellKnown = map[reflect.Type]*Type{
	anyType:                          Any,
	ServiceProviderType.ReflectType(): ServiceProviderType,
	ScopeFactoryType.ReflectType():    ScopeFactoryType,
	LoggerType.ReflectType():          LoggerType,
}

// EnumerableOf returns Enumerable[elem].
func EnumerableOf(elem *Type) *Type {
	return Enumerable.MustMakeGeneric(elem)
}

// isPassthrough reports whether the host always supplies t.
func isPassthrough(t *Type) bool {
	return t.Equal(ServiceProviderType) || t.Equal(ScopeFactoryType)
}
