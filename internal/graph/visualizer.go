package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format. Nodes are numbered in
// key order so the output is stable.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	keys := sortedKeys(v.graph.nodes)
	nodeIDs := make(map[string]string, len(keys))
	for i, key := range keys {
		node := v.graph.nodes[key]
		nodeIDs[key] = fmt.Sprintf("n%d", i)

		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q, style=filled];\n",
			nodeIDs[key], formatNodeLabel(node), nodeColor(node))
	}

	for _, from := range sortedKeys(v.graph.edges) {
		for _, to := range v.graph.edges[from] {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[from], nodeIDs[to])
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes the graph grouped by depth, followed by statistics.
func (v *Visualizer) WriteText(w io.Writer) error {
	v.graph.mu.Lock()
	defer v.graph.mu.Unlock()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	sorted, err := v.graph.topologicalSort()
	if err != nil {
		fmt.Fprintf(&b, "Warning: Graph contains cycles - %v\n\n", err)
		sorted = make([]*Node, 0, len(v.graph.nodes))
		for _, key := range sortedKeys(v.graph.nodes) {
			sorted = append(sorted, v.graph.nodes[key])
		}
	}

	v.graph.calculateDepths()
	depthGroups := make(map[int][]*Node)
	maxDepth := 0
	var cycleNodes []*Node

	for _, node := range sorted {
		if node.Depth < 0 {
			cycleNodes = append(cycleNodes, node)
			continue
		}
		depthGroups[node.Depth] = append(depthGroups[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		if nodes, exists := depthGroups[depth]; exists {
			fmt.Fprintf(&b, "Level %d:\n", depth)
			b.WriteString("--------\n")
			for _, node := range nodes {
				writeNodeDetails(&b, node, "  ")
			}
			b.WriteString("\n")
		}
	}

	if len(cycleNodes) > 0 {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, node := range cycleNodes {
			writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	v.writeStatistics(&b, err == nil)

	_, err = io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node
func formatNodeLabel(node *Node) string {
	if labeled, ok := node.Provider.(Labeled); ok {
		return fmt.Sprintf("%s\n(%s)\nIn:%d Out:%d", node.Key, labeled.Label(), node.InDegree, node.OutDegree)
	}
	return fmt.Sprintf("%s\nIn:%d Out:%d", node.Key, node.InDegree, node.OutDegree)
}

// nodeColor determines the color for a node based on its label
func nodeColor(node *Node) string {
	if node.Provider == nil {
		return "lightgray" // Missing provider
	}

	labeled, ok := node.Provider.(Labeled)
	if !ok {
		return "white"
	}

	switch labeled.Label() {
	case "Singleton":
		return "lightblue"
	case "Scoped":
		return "lightgreen"
	case "Transient":
		return "lightyellow"
	default:
		return "white"
	}
}

// writeNodeDetails writes detailed information about a node
func writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, node.Key)

	switch p := node.Provider.(type) {
	case nil:
		fmt.Fprintf(b, "%s  Provider: missing\n", indent)
	case Labeled:
		fmt.Fprintf(b, "%s  Lifetime: %s\n", indent, p.Label())
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, strings.Join(node.Dependencies, ", "))
	}
	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, strings.Join(node.Dependents, ", "))
	}
}

// writeStatistics writes graph statistics
func (v *Visualizer) writeStatistics(b *strings.Builder, acyclic bool) {
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(b, "  Total nodes: %d\n", len(v.graph.nodes))

	edges, roots, leaves := 0, 0, 0
	var mostDeps, mostDependents *Node
	for _, key := range sortedKeys(v.graph.nodes) {
		node := v.graph.nodes[key]
		edges += node.OutDegree
		if node.InDegree == 0 {
			roots++
		}
		if node.OutDegree == 0 {
			leaves++
		}
		if node.OutDegree > 0 && (mostDeps == nil || node.OutDegree > mostDeps.OutDegree) {
			mostDeps = node
		}
		if node.InDegree > 0 && (mostDependents == nil || node.InDegree > mostDependents.InDegree) {
			mostDependents = node
		}
	}

	fmt.Fprintf(b, "  Total edges: %d\n", edges)
	fmt.Fprintf(b, "  Root nodes (no dependents): %d\n", roots)
	fmt.Fprintf(b, "  Leaf nodes (no dependencies): %d\n", leaves)

	if acyclic {
		b.WriteString("  Cycles: None (graph is acyclic)\n")
	} else {
		b.WriteString("  Cycles: DETECTED (graph contains circular dependencies)\n")
	}

	if mostDeps != nil {
		fmt.Fprintf(b, "  Most dependencies: %s (%d)\n", mostDeps.Key, mostDeps.OutDegree)
	}
	if mostDependents != nil {
		fmt.Fprintf(b, "  Most dependents: %s (%d)\n", mostDependents.Key, mostDependents.InDegree)
	}
}
