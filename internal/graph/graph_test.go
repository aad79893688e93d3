package graph_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/junioryono/yunit/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type provider struct {
	key      string
	deps     []string
	lifetime string
}

func (p provider) Key() string            { return p.key }
func (p provider) Dependencies() []string { return p.deps }
func (p provider) Label() string          { return p.lifetime }

func add(t *testing.T, g *graph.DependencyGraph, key string, deps ...string) {
	t.Helper()
	require.NoError(t, g.AddProvider(provider{key: key, deps: deps, lifetime: "Scoped"}))
}

func diamond(t *testing.T) *graph.DependencyGraph {
	g := graph.NewDependencyGraph()
	add(t, g, "A")
	add(t, g, "B", "A")
	add(t, g, "C", "A")
	add(t, g, "D", "B", "C")
	return g
}

func text(t *testing.T, g *graph.DependencyGraph) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, graph.NewVisualizer(g).WriteText(&buf))
	return buf.String()
}

func keys(nodes []*graph.Node) []string {
	result := make([]string, len(nodes))
	for i, n := range nodes {
		result[i] = n.Key
	}
	return result
}

func TestDependencyGraph_AddProvider(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		g := graph.NewDependencyGraph()
		assert.ErrorIs(t, g.AddProvider(nil), graph.ErrProviderNil)
	})

	t.Run("dependencies become placeholder nodes", func(t *testing.T) {
		g := graph.NewDependencyGraph()
		add(t, g, "OrderService", "OrderStore", "Greeter", "OrderStore")

		assert.Equal(t, 3, g.Size())
		assert.Contains(t, text(t, g), "  OrderService\n    Lifetime: Scoped\n    Dependencies: [OrderStore, Greeter]\n")
		assert.Equal(t, []string{"Greeter", "OrderStore"}, g.Missing())

		add(t, g, "OrderStore")
		assert.Equal(t, []string{"Greeter"}, g.Missing())
		assert.Equal(t, []string{"OrderService"}, g.Dependents("OrderStore"))
	})

	t.Run("replacing a provider replaces its edges", func(t *testing.T) {
		g := graph.NewDependencyGraph()
		add(t, g, "A", "B")
		add(t, g, "A", "C")

		assert.Equal(t, []string{"A"}, g.Dependents("C"))
		assert.Empty(t, g.Dependents("B"))
	})
}

func TestDependencyGraph_Cycles(t *testing.T) {
	t.Run("two-node cycle is rejected", func(t *testing.T) {
		g := graph.NewDependencyGraph()
		add(t, g, "IFoo", "IBar")

		err := g.AddProvider(provider{key: "IBar", deps: []string{"IFoo"}})
		var cycleErr *graph.CircularDependencyError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, "IBar", cycleErr.Node)
		assert.Equal(t, []string{"IBar", "IFoo"}, cycleErr.Path)

		_, err = g.TopologicalSort()
		assert.NoError(t, err, "rejected provider leaves the graph unchanged")
		assert.Equal(t, []string{"IBar"}, g.Missing())
		assert.Empty(t, g.Dependents("IFoo"))
	})

	t.Run("self dependency", func(t *testing.T) {
		g := graph.NewDependencyGraph()
		err := g.AddProvider(provider{key: "A", deps: []string{"A"}})

		var cycleErr *graph.CircularDependencyError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"A"}, cycleErr.Path)
		assert.Zero(t, g.Size())
	})

	t.Run("longer cycle", func(t *testing.T) {
		g := graph.NewDependencyGraph()
		add(t, g, "A", "B")
		add(t, g, "B", "C")

		err := g.AddProvider(provider{key: "C", deps: []string{"A"}})
		var cycleErr *graph.CircularDependencyError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"C", "A", "B"}, cycleErr.Path)
	})
}

func TestDependencyGraph_TopologicalSort(t *testing.T) {
	g := diamond(t)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, keys(sorted))

	again, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, keys(sorted), keys(again))

	add(t, g, "E", "D")
	sorted, err = g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, "E", sorted[len(sorted)-1].Key, "cache is invalidated by additions")
}

func TestDependencyGraph_Queries(t *testing.T) {
	g := diamond(t)

	assert.Equal(t, []string{"B", "C"}, g.Dependents("A"))
	assert.Equal(t, []string{"D"}, g.Dependents("B"))
	assert.Empty(t, g.Dependents("D"))
	assert.Nil(t, g.Dependents("Z"))
	assert.Empty(t, g.Missing())
	assert.Equal(t, 4, g.Size())

	out := text(t, g)
	assert.Contains(t, out, "Level 0:\n--------\n  A\n    Lifetime: Scoped\n    Dependents: [B, C]\n")
	assert.Contains(t, out, "Level 1:\n--------\n  B\n")
	assert.Contains(t, out, "  C\n    Lifetime: Scoped\n    Dependencies: [A]\n    Dependents: [D]\n")
	assert.Contains(t, out, "Level 2:\n--------\n  D\n    Lifetime: Scoped\n    Dependencies: [B, C]\n")
	assert.Contains(t, out, "Root nodes (no dependents): 1")
	assert.Contains(t, out, "Leaf nodes (no dependencies): 1")
	assert.Contains(t, out, "Most dependents: A (2)")
}

func TestDependencyGraph_Concurrent(t *testing.T) {
	g := graph.NewDependencyGraph()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			var deps []string
			if idx > 0 {
				deps = []string{fmt.Sprintf("Service%d", idx-1)}
			}
			assert.NoError(t, g.AddProvider(provider{key: fmt.Sprintf("Service%d", idx), deps: deps}))
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Size()
			g.Missing()
			g.Dependents("Service0")
			_, _ = g.TopologicalSort()
		}()
	}
	wg.Wait()

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, sorted, 10)
	assert.Equal(t, "Service0", sorted[0].Key)
	assert.Equal(t, "Service9", sorted[9].Key)
}

func TestCircularDependencyError(t *testing.T) {
	err := graph.CircularDependencyError{Node: "IFoo", Path: []string{"IFoo", "IBar"}}
	assert.Equal(t, "circular dependency detected:\n\n"+
		"    IFoo\n      ↓\n    IBar\n      ↓\n    IFoo (cycle)\n"+
		"\nTo resolve this:\n"+
		"  • Use an interface to break the dependency\n"+
		"  • Register one of the services as an instance or factory\n"+
		"  • Restructure to remove the circular relationship\n", err.Error())

	err = graph.CircularDependencyError{Node: "A"}
	assert.Contains(t, err.Error(), "    A\n      ↓\n    A (cycle)\n")
}

func TestVisualizer(t *testing.T) {
	g := graph.NewDependencyGraph()
	add(t, g, "OrderService", "OrderStore")

	t.Run("DOT", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, graph.NewVisualizer(g).WriteDOT(&buf))

		out := buf.String()
		assert.Contains(t, out, "digraph dependencies {")
		assert.Contains(t, out, `n0 [label="OrderService\n(Scoped)\nIn:0 Out:1", fillcolor="lightgreen", style=filled];`)
		assert.Contains(t, out, `n1 [label="OrderStore\nIn:1 Out:0", fillcolor="lightgray", style=filled];`)
		assert.Contains(t, out, "  n0 -> n1;\n")
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, graph.NewVisualizer(g).WriteText(&buf))

		out := buf.String()
		assert.Contains(t, out, "Level 0:\n--------\n  OrderStore\n    Provider: missing\n")
		assert.Contains(t, out, "Level 1:\n--------\n  OrderService\n    Lifetime: Scoped\n    Dependencies: [OrderStore]\n")
		assert.Contains(t, out, "Total nodes: 2")
		assert.Contains(t, out, "Total edges: 1")
		assert.Contains(t, out, "Cycles: None")
		assert.Contains(t, out, "Most dependencies: OrderService (1)")
	})
}
