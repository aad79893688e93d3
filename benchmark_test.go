package yunit_test

import (
	"fmt"
	"testing"

	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/internal/testutil"
)

// newWideUniverse declares n interfaces, each with one implementation whose
// constructor takes the next interface.
func newWideUniverse(n int) (*yunit.Universe, []*yunit.Type) {
	ifaces := make([]*yunit.Type, n)
	for i := range ifaces {
		ifaces[i] = yunit.NewInterface(fmt.Sprintf("I%d", i))
	}

	u := yunit.NewUniverse(ifaces...)
	for i, iface := range ifaces {
		impl := yunit.NewClass(fmt.Sprintf("Impl%d", i), yunit.Implements(iface))
		if i+1 < n {
			impl.AddConstructor(yunit.Param(ifaces[i+1]))
		} else {
			impl.AddConstructor()
		}
		u.Add(impl)
	}
	return u, ifaces
}

func BenchmarkCompose(b *testing.B) {
	for _, depth := range []int{1, 5, 10} {
		b.Run(fmt.Sprintf("chain-%d", depth), func(b *testing.B) {
			chain := testutil.LinearChain(depth)
			u := yunit.NewUniverse(chain...)
			c := yunit.NewComposer(yunit.WithoutBaselineLogging())
			roots := []*yunit.Type{chain[0]}

			b.ReportAllocs()
			for b.Loop() {
				if err := c.Compose(yunit.NewCollection(), u, roots); err != nil {
					b.Fatal(err)
				}
			}
		})
	}

	b.Run("interfaces-10", func(b *testing.B) {
		u, ifaces := newWideUniverse(10)
		c := yunit.NewComposer(yunit.WithoutBaselineLogging())
		roots := []*yunit.Type{ifaces[0]}

		b.ReportAllocs()
		for b.Loop() {
			if err := c.Compose(yunit.NewCollection(), u, roots); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("reflected", func(b *testing.B) {
		u, err := testutil.Universe()
		if err != nil {
			b.Fatal(err)
		}
		c := yunit.NewComposer()

		b.ReportAllocs()
		for b.Loop() {
			if err := c.ComposeConstructor(yunit.NewCollection(), u, testutil.NewOrderTests); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkImplementors(b *testing.B) {
	u, err := testutil.Universe()
	if err != nil {
		b.Fatal(err)
	}
	greeter := yunit.TypeFor[testutil.Greeter](u)

	b.Run("memoised", func(b *testing.B) {
		for b.Loop() {
			u.Implementors(greeter)
		}
	})

	b.Run("invalidated", func(b *testing.B) {
		for b.Loop() {
			u.Add(yunit.NewClass(testutil.UniqueName("Extra")))
			u.Implementors(greeter)
		}
	})
}

func BenchmarkRenderChain(b *testing.B) {
	chain := testutil.LinearChain(10)
	entries := make([]yunit.ChainEntry, len(chain))
	for i, t := range chain {
		entries[i] = yunit.ChainEntry{Service: t, Implementation: t, Depth: i}
	}

	for b.Loop() {
		yunit.RenderChain(chain[0], entries)
	}
}
