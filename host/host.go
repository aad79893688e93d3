// Package host runs a test fixture inside its own application host.
//
// A Host owns a type universe, a service registry and a dig container. New
// runs the startup conventions, composes the fixture constructor's
// dependencies into the registry, checks the registry's dependency graph and
// provides every descriptor to dig. Start and Stop run lifecycle hooks;
// Construct builds the fixture from a scope.
//
//	h, err := host.New(NewOrderTests,
//	    host.WithConstructors(NewOrderService, NewOrderStore),
//	    host.WithStartup(&Startup{}),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := h.Start(ctx); err != nil {
//	    return err
//	}
//	defer h.Stop(ctx)
//
//	fixture, err := h.Construct(h.Root())
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/internal/graph"
	"github.com/rs/zerolog"
	"go.uber.org/dig"
)

const (
	stateBuilt int32 = iota
	stateStarted
	stateStopped
)

var (
	_ yunit.ScopeFactory = (*Host)(nil)

	lifecycleType = reflect.TypeFor[*Lifecycle]()
)

// Host is a per-fixture application host.
type Host struct {
	id        string
	opts      options
	logger    zerolog.Logger
	target    any
	universe  *yunit.Universe
	registry  *yunit.Collection
	graph     *graph.DependencyGraph
	lifecycle *Lifecycle

	mu        sync.Mutex // guards the container and scopes
	container *dig.Container
	bindings  []*binding
	singleton disposer
	root      *scope
	scopes    map[string]*scope

	state atomic.Int32
}

// New builds a host for the fixture constructor target. target may be nil
// for a host that only serves a startup's registrations.
//
// A fixture dependency that cannot be satisfied makes New return a
// *yunit.CompositionError.
func New(target any, opts ...Option) (*Host, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}
	if o.err != nil {
		return nil, o.err
	}

	if target != nil && reflect.TypeOf(target).Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", yunit.ErrNotFunc, target)
	}

	u := o.universe
	if u == nil {
		u = yunit.NewUniverse()
	}
	if err := u.Provide(o.constructors...); err != nil {
		return nil, err
	}

	h := &Host{
		id:        uuid.NewString(),
		opts:      o,
		target:    target,
		universe:  u,
		registry:  yunit.NewCollection(),
		graph:     graph.NewDependencyGraph(),
		lifecycle: &Lifecycle{},
		scopes:    make(map[string]*scope),
	}
	h.logger = o.logger.With().Str("host", h.id).Logger()

	if err := h.registry.AddInstance(u.TypeOf(lifecycleType), h.lifecycle); err != nil {
		return nil, err
	}
	if err := h.configureServices(); err != nil {
		return nil, err
	}

	if target != nil && o.autowire {
		composer := yunit.NewComposer(append([]yunit.Option{yunit.WithLogger(h.logger)}, o.composer...)...)
		if err := composer.ComposeConstructor(h.registry, u, target); err != nil {
			return nil, err
		}
	}

	if err := h.build(); err != nil {
		return nil, err
	}

	h.logger.Debug().
		Str("environment", o.environment).
		Int("descriptors", h.registry.Count()).
		Int("services", h.graph.Size()).
		Msg("host built")
	return h, nil
}

// build validates the registry's graph and provides every descriptor.
func (h *Host) build() error {
	bindings, err := bindingsOf(h.registry)
	if err != nil {
		return err
	}
	h.bindings = bindings

	if err := h.buildGraph(); err != nil {
		return err
	}
	for _, missing := range h.graph.Missing() {
		h.logger.Warn().
			Str("service", missing).
			Strs("required_by", h.graph.Dependents(missing)).
			Msg("dependency has no registration")
	}
	if err := h.sortBindings(); err != nil {
		return err
	}

	h.container = dig.New()
	if err := h.provideHostServices(); err != nil {
		return err
	}

	for _, b := range h.bindings {
		if !b.singleton() {
			continue
		}
		if err := b.provide(h.container, &h.singleton); err != nil {
			return err
		}
	}

	if err := h.configureContainer(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	root, err := h.newScope(context.Background())
	if err != nil {
		return err
	}
	h.root = root
	return nil
}

// provideHostServices provides the services every scope decorates or that
// the host supplies itself.
func (h *Host) provideHostServices() error {
	providers := []any{
		func() context.Context { return context.Background() },
		func() yunit.ServiceProvider { return h.root },
		func() yunit.Scope { return h.root },
		func() yunit.ScopeFactory { return h },
	}
	if !h.registry.Contains(yunit.LoggerType) {
		providers = append(providers, func() zerolog.Logger { return h.logger })
	}

	for _, p := range providers {
		if err := h.container.Provide(p); err != nil {
			return fmt.Errorf("failed to provide host service: %w", err)
		}
	}
	return nil
}

// ID returns the unique identifier of the host.
func (h *Host) ID() string { return h.id }

// Environment returns the environment used to pick startup methods.
func (h *Host) Environment() string { return h.opts.environment }

// Registry returns the populated service registry.
func (h *Host) Registry() *yunit.Collection { return h.registry }

// Universe returns the type universe.
func (h *Host) Universe() *yunit.Universe { return h.universe }

// Container returns the dig container.
func (h *Host) Container() *dig.Container { return h.container }

// Lifecycle returns the host's lifecycle.
func (h *Host) Lifecycle() *Lifecycle { return h.lifecycle }

// Logger returns the host logger.
func (h *Host) Logger() zerolog.Logger { return h.logger }

// Root returns the root scope. Scoped services resolved from it live until
// the host stops.
func (h *Host) Root() yunit.Scope { return h.root }

func (h *Host) config() yunit.Config {
	cfg := h.opts.config
	cfg.Environment = h.opts.environment
	return cfg
}

// Start runs Configure{Env} / Configure and then the OnStart hooks.
func (h *Host) Start(ctx context.Context) error {
	if !h.state.CompareAndSwap(stateBuilt, stateStarted) {
		if h.state.Load() == stateStarted {
			return ErrHostStarted
		}
		return ErrHostStopped
	}

	if err := h.configure(); err != nil {
		return err
	}
	if err := h.lifecycle.start(ctx); err != nil {
		return err
	}

	h.logger.Debug().Int("hooks", h.lifecycle.Len()).Msg("host started")
	return nil
}

// Stop runs the OnStop hooks in reverse, closes every open scope and then
// closes the singletons that implement io.Closer in reverse creation order.
// All errors are returned joined.
func (h *Host) Stop(ctx context.Context) error {
	if !h.state.CompareAndSwap(stateStarted, stateStopped) {
		if h.state.Load() == stateBuilt {
			return ErrHostNotStarted
		}
		return ErrHostStopped
	}

	errs := []error{h.lifecycle.stop(ctx)}

	h.mu.Lock()
	open := make([]*scope, 0, len(h.scopes))
	for _, s := range h.scopes {
		if s != h.root {
			open = append(open, s)
		}
	}
	h.mu.Unlock()

	for _, s := range open {
		errs = append(errs, s.Close())
	}
	errs = append(errs, h.root.Close(), h.singleton.dispose())

	if err := errors.Join(errs...); err != nil {
		h.logger.Error().Err(err).Msg("host stopped with errors")
		return err
	}

	h.logger.Debug().Msg("host stopped")
	return nil
}

// CreateScope creates a scope with its own scoped and transient instances.
func (h *Host) CreateScope(ctx context.Context) (yunit.Scope, error) {
	if h.state.Load() == stateStopped {
		return nil, ErrHostStopped
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.newScope(ctx)
}

// Invoke calls function with its parameters resolved from the root scope.
func (h *Host) Invoke(function any) error {
	return h.root.Invoke(function)
}

// Construct builds the fixture by calling the target constructor with
// arguments resolved from p. Simple parameters (numbers, strings, time
// values) get their zero value and variadic parameters are left empty.
func (h *Host) Construct(p yunit.ServiceProvider) (any, error) {
	if h.target == nil {
		return nil, ErrNoTarget
	}

	fn := reflect.ValueOf(h.target)
	ft := fn.Type()

	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}

	args := make([]reflect.Value, fixed)
	var positions []int
	var types []reflect.Type
	for i := 0; i < fixed; i++ {
		in := ft.In(i)
		if yunit.IsSimple(in) {
			args[i] = reflect.Zero(in)
			continue
		}
		positions = append(positions, i)
		types = append(types, in)
	}

	if len(types) > 0 {
		capture := reflect.MakeFunc(reflect.FuncOf(types, nil, false), func(resolved []reflect.Value) []reflect.Value {
			for j, v := range resolved {
				args[positions[j]] = v
			}
			return nil
		})
		if err := p.Invoke(capture.Interface()); err != nil {
			return nil, err
		}
	}

	out := fn.Call(args)
	if len(out) == 0 {
		return nil, nil
	}
	if last := out[len(out)-1]; ft.Out(len(out)-1) == errorType {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, nil
		}
	}
	return out[0].Interface(), nil
}

// Resolve returns the T resolved from p.
func Resolve[T any](p yunit.ServiceProvider) (T, error) {
	var service T
	err := p.Invoke(func(v T) { service = v })
	return service, err
}

// WriteDOT writes the registry's dependency graph in Graphviz DOT format.
func (h *Host) WriteDOT(w io.Writer) error {
	return graph.NewVisualizer(h.graph).WriteDOT(w)
}

// WriteGraph writes the registry's dependency graph as text.
func (h *Host) WriteGraph(w io.Writer) error {
	return graph.NewVisualizer(h.graph).WriteText(w)
}
