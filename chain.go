package yunit

import "strings"

// ChainEntry records one step of a resolution attempt: the type that was
// requested, the candidate tried for it, and the recursion depth.
type ChainEntry struct {
	Service        *Type
	Implementation *Type
	Depth          int
}

func (e ChainEntry) label() string {
	if e.Implementation == nil || e.Service.Equal(e.Implementation) {
		return e.Service.String()
	}
	return "{" + e.Service.String() + "=" + e.Implementation.String() + "}"
}

func (e ChainEntry) same(o ChainEntry) bool {
	return e.Depth == o.Depth && e.Service.Equal(o.Service) && sameImpl(e.Implementation, o.Implementation)
}

func sameImpl(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// DependencyChain is the ordered trail of one root's resolution attempt.
// Successful subtrees are truncated away, so on failure the chain holds the
// path that could not be satisfied.
type DependencyChain struct {
	entries []ChainEntry
}

// Push appends an entry and returns the new length, a mark for Truncate.
func (c *DependencyChain) Push(service, implementation *Type, depth int) int {
	c.entries = append(c.entries, ChainEntry{Service: service, Implementation: implementation, Depth: depth})
	return len(c.entries)
}

// Truncate drops every entry after mark.
func (c *DependencyChain) Truncate(mark int) {
	if mark < 0 {
		mark = 0
	}
	if mark < len(c.entries) {
		clear(c.entries[mark:])
		c.entries = c.entries[:mark]
	}
}

// Reset clears the chain for the next root.
func (c *DependencyChain) Reset() {
	c.Truncate(0)
}

// Len returns the number of entries.
func (c *DependencyChain) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries.
func (c *DependencyChain) Entries() []ChainEntry {
	return append([]ChainEntry(nil), c.entries...)
}

// RenderChain renders a dependency path starting at root. Each entry goes on
// its own line, indented two spaces per depth and prefixed with "-> ".
// Entries whose service and implementation are the same type render as one
// name, others as {Service=Implementation}. Consecutive identical entries,
// including a first entry repeating the root, are collapsed.
func RenderChain(root *Type, entries []ChainEntry) string {
	if root == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(root.String())

	prev := ChainEntry{Service: root, Implementation: root, Depth: -1}
	prevLabel := root.String()
	for _, e := range entries {
		label := e.label()
		if e.same(prev) || (prev.Depth == -1 && label == prevLabel) {
			prev = e
			continue
		}

		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", e.Depth+1))
		b.WriteString("-> ")
		b.WriteString(label)

		prev, prevLabel = e, label
	}

	return b.String()
}
