package host

import (
	"context"
	"reflect"

	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/internal/reflection"
)

// hostProvided are supplied by the host and never appear in the graph.
var hostProvided = map[reflect.Type]bool{
	reflect.TypeFor[context.Context]():       true,
	reflect.TypeFor[yunit.ServiceProvider](): true,
	reflect.TypeFor[yunit.Scope]():           true,
	reflect.TypeFor[yunit.ScopeFactory]():    true,
}

// graphNode is a binding as a graph provider.
type graphNode struct {
	key      string
	deps     []string
	lifetime yunit.Lifetime
}

func (n graphNode) Key() string            { return n.key }
func (n graphNode) Dependencies() []string { return n.deps }
func (n graphNode) Label() string          { return n.lifetime.String() }

// buildGraph adds every binding to the dependency graph. A cycle between
// registered constructors is returned as a *graph.CircularDependencyError.
func (h *Host) buildGraph() error {
	analyzer := reflection.New()
	loggerRegistered := h.registry.Contains(yunit.LoggerType)

	for _, b := range h.bindings {
		node := graphNode{key: b.service.String(), lifetime: b.lifetime()}

		for _, source := range b.sources {
			if !source.IsValid() {
				continue
			}

			params, err := analyzer.ParametersOf(source.Interface())
			if err != nil {
				return BuildError{Descriptor: b.service.String(), Cause: err}
			}

			for _, p := range params {
				if p.Optional || p.Variadic || hostProvided[p.Type] {
					continue
				}
				if p.Type == loggerType && !loggerRegistered {
					continue
				}
				node.deps = append(node.deps, h.dependencyKey(p.Type))
			}
		}

		if err := h.graph.AddProvider(node); err != nil {
			return err
		}
	}
	return nil
}

// dependencyKey names the service a parameter consumes. A slice consumes
// its element service.
func (h *Host) dependencyKey(rt reflect.Type) string {
	t := h.universe.TypeOf(rt)
	if elem, ok := t.EnumerableElem(); ok {
		t = elem
	}
	return t.String()
}

// sortBindings orders the bindings dependencies first so that every
// container and scope receives a service's dependencies before the service.
// Bindings sharing a display name keep their registration order.
func (h *Host) sortBindings() error {
	sorted, err := h.graph.TopologicalSort()
	if err != nil {
		return err
	}

	byKey := make(map[string][]*binding, len(h.bindings))
	for _, b := range h.bindings {
		key := b.service.String()
		byKey[key] = append(byKey[key], b)
	}

	ordered := make([]*binding, 0, len(h.bindings))
	for _, node := range sorted {
		ordered = append(ordered, byKey[node.Key]...)
	}
	h.bindings = ordered

	if e := h.logger.Debug(); e.Enabled() {
		services := make([]string, len(ordered))
		for i, b := range ordered {
			services[i] = b.service.String()
		}
		e.Strs("services", services).Msg("bindings ordered")
	}
	return nil
}
