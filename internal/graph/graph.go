package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrProviderNil is returned by AddProvider for a nil provider.
var ErrProviderNil = errors.New("provider cannot be nil")

// Provider is a service registration as seen by the graph. Keys are the
// display names of service types; dependencies name the services its
// constructor consumes.
type Provider interface {
	// Key returns the service this provider produces.
	Key() string

	// Dependencies returns the services the provider's constructor consumes.
	Dependencies() []string
}

// Labeled providers annotate their node in visualizations, typically with a
// lifetime.
type Labeled interface {
	Label() string
}

// DependencyGraph manages the dependency relationships between services.
// It rejects cycles as they are added and orders services dependencies first.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string][]string // adjacency list, service -> dependencies

	// Cache for performance
	sortedNodes      []*Node
	sortedNodesDirty bool
}

// Node represents a service in the dependency graph
type Node struct {
	Key      string
	Provider Provider

	InDegree  int // number of dependents
	OutDegree int // number of dependencies
	Depth     int // depth in dependency tree

	Dependencies []string // services this node depends on
	Dependents   []string // services that depend on this node
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:            make(map[string]*Node),
		edges:            make(map[string][]string),
		sortedNodesDirty: true,
	}
}

// AddProvider adds a provider to the graph. A provider that would close a
// cycle is rejected with a CircularDependencyError and leaves the graph
// unchanged.
func (g *DependencyGraph) AddProvider(provider Provider) error {
	if provider == nil {
		return ErrProviderNil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := provider.Key()
	prevNode, existed := g.nodes[key]
	prevEdges, hadEdges := g.edges[key]

	node, exists := g.nodes[key]
	if !exists {
		node = &Node{Key: key}
		g.nodes[key] = node
	}
	prevProvider := node.Provider
	node.Provider = provider

	deps := provider.Dependencies()
	dependencies := make([]string, 0, len(deps))
	seen := make(map[string]bool, len(deps))
	var created []string
	for _, dep := range deps {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		dependencies = append(dependencies, dep)

		if _, exists := g.nodes[dep]; !exists {
			g.nodes[dep] = &Node{Key: dep}
			created = append(created, dep)
		}
	}
	g.edges[key] = dependencies
	g.updateDegrees()
	g.sortedNodesDirty = true

	if path := g.cycleFrom(key); path != nil {
		// Roll back
		for _, dep := range created {
			delete(g.nodes, dep)
		}
		if existed {
			prevNode.Provider = prevProvider
		} else {
			delete(g.nodes, key)
		}
		if hadEdges {
			g.edges[key] = prevEdges
		} else {
			delete(g.edges, key)
		}
		g.updateDegrees()
		return &CircularDependencyError{Node: key, Path: path}
	}

	return nil
}

// updateDegrees recalculates in/out degrees for all nodes
func (g *DependencyGraph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependencies = nil
		node.Dependents = nil
	}

	for _, from := range sortedKeys(g.edges) {
		fromNode, exists := g.nodes[from]
		if !exists {
			continue
		}

		tos := g.edges[from]
		fromNode.OutDegree = len(tos)
		fromNode.Dependencies = append([]string(nil), tos...)

		for _, to := range tos {
			if toNode, exists := g.nodes[to]; exists {
				toNode.InDegree++
				toNode.Dependents = append(toNode.Dependents, from)
			}
		}
	}
}

// TopologicalSort returns nodes in dependency order (dependencies first).
// Nodes at the same level are ordered by key.
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.topologicalSort()
}

func (g *DependencyGraph) topologicalSort() ([]*Node, error) {
	if !g.sortedNodesDirty && g.sortedNodes != nil {
		return append([]*Node(nil), g.sortedNodes...), nil
	}

	// Kahn's algorithm over remaining dependency counts
	remaining := make(map[string]int, len(g.nodes))
	queue := make([]string, 0)
	for _, key := range sortedKeys(g.nodes) {
		remaining[key] = g.nodes[key].OutDegree
		if remaining[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		result = append(result, node)

		for _, dependent := range node.Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: graph contains %d nodes but only %d could be sorted",
			len(g.nodes), len(result))
	}

	g.sortedNodes = result
	g.sortedNodesDirty = false
	return append([]*Node(nil), result...), nil
}

// cycleFrom returns the path of a cycle through start, or nil. The path
// begins at start and ends with the node whose dependency is start.
func (g *DependencyGraph) cycleFrom(start string) []string {
	visited := make(map[string]bool)
	var path []string

	var walk func(current string) bool
	walk = func(current string) bool {
		path = append(path, current)
		for _, next := range g.edges[current] {
			if next == start {
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if walk(next) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	visited[start] = true
	if walk(start) {
		return path
	}
	return nil
}

// Dependents returns services that depend on the given service
func (g *DependencyGraph) Dependents(key string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[key]; exists {
		return append([]string(nil), node.Dependents...)
	}
	return nil
}

// Missing returns the keys that are depended on but have no provider.
func (g *DependencyGraph) Missing() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []string
	for _, key := range sortedKeys(g.nodes) {
		if g.nodes[key].Provider == nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// calculateDepths assigns each node the length of its longest dependency
// path. Leaves have depth 0; nodes on a cycle keep -1.
func (g *DependencyGraph) calculateDepths() {
	for _, node := range g.nodes {
		node.Depth = -1
	}

	queue := make([]*Node, 0)
	for _, key := range sortedKeys(g.nodes) {
		if node := g.nodes[key]; len(node.Dependencies) == 0 {
			node.Depth = 0
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, depKey := range current.Dependents {
			dep := g.nodes[depKey]
			if dep != nil && dep.Depth < current.Depth+1 && current.Depth+1 <= len(g.nodes) {
				dep.Depth = current.Depth + 1
				queue = append(queue, dep)
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
