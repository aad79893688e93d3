package testutil

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/junioryono/yunit"
)

// Universe provides the Go test types of this package with their
// constructors.
func Universe() (*yunit.Universe, error) {
	u := yunit.NewUniverse()
	err := u.Provide(
		NewFixedClock,
		NewEnglishGreeter,
		NewSpanishGreeter,
		NewFrenchGreeter,
		NewOrderStore,
		NewOrderService,
	)
	return u, err
}

// LinearChain declares n classes where each one's only constructor requires
// the next. The last class has a parameterless constructor.
func LinearChain(n int) []*yunit.Type {
	types := make([]*yunit.Type, n)
	for i := n - 1; i >= 0; i-- {
		t := yunit.NewClass(fmt.Sprintf("T%d", i))
		if i == n-1 {
			t.AddConstructor()
		} else {
			t.AddConstructor(yunit.Param(types[i+1]))
		}
		types[i] = t
	}
	return types
}

// Cycle is the IFoo/IBar scenario: Foo(IBar) implements IFoo and Bar(IFoo)
// implements IBar.
type Cycle struct {
	ILogger, IFoo, IBar *yunit.Type
	Logger, Foo, Bar    *yunit.Type
	Universe            *yunit.Universe
}

// NewCycle declares the IFoo/IBar scenario.
func NewCycle() *Cycle {
	c := &Cycle{
		ILogger: yunit.NewInterface("ILogger"),
		IFoo:    yunit.NewInterface("IFoo"),
		IBar:    yunit.NewInterface("IBar"),
	}
	c.Logger = yunit.NewClass("Logger", yunit.Implements(c.ILogger), yunit.WithConstructor())
	c.Foo = yunit.NewClass("Foo", yunit.Implements(c.IFoo), yunit.WithConstructor(yunit.Param(c.IBar)))
	c.Bar = yunit.NewClass("Bar", yunit.Implements(c.IBar), yunit.WithConstructor(yunit.Param(c.IFoo)))
	c.Universe = yunit.NewUniverse(c.ILogger, c.IFoo, c.IBar, c.Logger, c.Foo, c.Bar)
	return c
}

// Repos declares an open interface IRepo[T] with constraint and an open
// class Repo[T] : IRepo[T] whose parameter carries implConstraint.
type Repos struct {
	IRepo, Repo *yunit.Type
	Entity      *yunit.Type
}

// NewRepos declares the generic repository shapes.
func NewRepos(constraint, implConstraint yunit.GenericConstraint) *Repos {
	t := yunit.NewGenericParameter("T", constraint)
	irepo := yunit.NewInterface("IRepo", yunit.GenericParams(t))

	u := yunit.NewGenericParameter("T", implConstraint)
	repo := yunit.NewClass("Repo", yunit.GenericParams(u))
	repo.Implement(irepo.MustMakeGeneric(u))
	repo.AddConstructor()

	return &Repos{
		IRepo:  irepo,
		Repo:   repo,
		Entity: yunit.NewClass("Entity", yunit.WithConstructor()),
	}
}

// UniqueName returns a type name that is unique per call.
func UniqueName(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
