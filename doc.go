// Package yunit wires test fixture constructors automatically. Given the types
// a fixture constructor needs, it discovers implementations in a universe of
// known types and registers them in a service collection that a container
// later builds.
//
// # Overview
//
// yunit separates static type metadata from instantiation:
//   - A Universe catalogs types, either declared symbolically or derived once
//     from Go constructors with Provide
//   - A Collection holds service descriptors, user registrations first
//   - Resolve registers implementations for one requested type, recursively
//   - A Composer resolves every root type of a fixture and reports the first
//     failure as a CompositionError with the dependency path
//
// The host package builds the populated collection into a container with
// per-fixture scopes, and the yunittest package ties it all to testing.TB.
//
// # Basic Usage
//
//	u := yunit.NewUniverse()
//	_ = u.Provide(NewClock, NewOrderRepository, NewOrderService)
//
//	reg := yunit.NewCollection()
//	err := yunit.NewComposer().ComposeConstructor(reg, u, NewOrderTests)
//	if err != nil {
//	    t.Fatal(err)
//	}
//
// # Resolution Rules
//
// Interfaces and abstract types are satisfied by every exported concrete type
// assignable to them, in the universe's scan order. A plain request takes the
// first viable implementor; a request for a slice ([]T, Enumerable[T])
// registers all of them. A constructor is viable when all its required
// parameters resolve. Optional and variadic parameters are never required.
//
// A type already present in the collection is never registered again, so
// registrations made before composition always win.
//
// A constructor parameter assignable to the type being resolved makes the
// constructor non-viable. Longer cycles are cut off by the maximum depth
// (WithMaxDepth, 10 by default).
//
// # Open Generics
//
// Go has no runtime open generics, so generic shapes are declared
// symbolically:
//
//	t := yunit.NewGenericParameter("T", yunit.DefaultConstructorConstraint)
//	irepo := yunit.NewInterface("IRepo", yunit.GenericParams(t))
//
//	u := yunit.NewGenericParameter("T", yunit.DefaultConstructorConstraint)
//	repo := yunit.NewClass("Repo", yunit.GenericParams(u))
//	repo.Implement(irepo.MustMakeGeneric(u))
//
// When no closed implementation of IRepo[Foo] is viable, the resolver maps the
// open IRepo definition to the first compatible open definition, here Repo.
//
// # Fixture Parameters
//
// Parameters of simple types (numbers, strings, time values, uuid.UUID,
// []byte and named types over those) are supplied by the test, not resolved.
// See IsSimple.
package yunit
