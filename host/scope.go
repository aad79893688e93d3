package host

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/junioryono/yunit"
	"go.uber.org/dig"
)

var _ yunit.Scope = (*scope)(nil)

// scope is a dig child scope with its own scoped and transient instances.
type scope struct {
	id   string
	ctx  context.Context
	host *Host

	digScope *dig.Scope
	disposer disposer
	closed   atomic.Bool
}

// newScope creates a dig scope and provides the scoped descriptors in it.
// The caller holds h.mu.
func (h *Host) newScope(ctx context.Context) (*scope, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &scope{
		id:   uuid.NewString(),
		host: h,
	}
	s.ctx = contextWithScope(ctx, s)
	s.digScope = h.container.Scope(s.id)

	if err := s.digScope.Decorate(func() context.Context { return s.ctx }); err != nil {
		return nil, err
	}
	if err := s.digScope.Decorate(func() yunit.ServiceProvider { return s }); err != nil {
		return nil, err
	}
	if err := s.digScope.Decorate(func() yunit.Scope { return s }); err != nil {
		return nil, err
	}

	for _, b := range h.bindings {
		if b.singleton() {
			continue
		}
		if err := b.provide(s.digScope, &s.disposer); err != nil {
			return nil, err
		}
	}

	h.scopes[s.id] = s
	return s, nil
}

func (s *scope) ID() string {
	return s.id
}

func (s *scope) Context() context.Context {
	return s.ctx
}

// Invoke calls function with its parameters resolved from the scope. If the
// last result of function is an error, Invoke returns it.
//
// Parameters are resolved under the host lock; function itself runs outside
// it and may use the scope again.
func (s *scope) Invoke(function any) error {
	if s.closed.Load() {
		return ErrScopeClosed
	}

	fn := reflect.ValueOf(function)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("%w, got %T", yunit.ErrNotFunc, function)
	}

	ft := fn.Type()
	in := make([]reflect.Type, ft.NumIn())
	for i := range in {
		in[i] = ft.In(i)
	}

	var args []reflect.Value
	capture := reflect.MakeFunc(reflect.FuncOf(in, nil, ft.IsVariadic()), func(a []reflect.Value) []reflect.Value {
		args = a
		return nil
	})

	s.host.mu.Lock()
	err := s.digScope.Invoke(capture.Interface())
	s.host.mu.Unlock()
	if err != nil {
		return err
	}

	var out []reflect.Value
	if ft.IsVariadic() {
		out = fn.CallSlice(args)
	} else {
		out = fn.Call(args)
	}

	if n := len(out); n > 0 && ft.Out(n-1) == errorType && !out[n-1].IsNil() {
		return out[n-1].Interface().(error)
	}
	return nil
}

// Close disposes the scope's io.Closer instances in reverse creation order.
// Closing twice is a no-op.
func (s *scope) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.host.mu.Lock()
	delete(s.host.scopes, s.id)
	s.host.mu.Unlock()

	return s.disposer.dispose()
}

// scopeContextKey is the key for storing the current scope in context.
type scopeContextKey struct{}

func contextWithScope(ctx context.Context, s yunit.Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// FromContext returns the scope stored in ctx by a scope created by a Host.
func FromContext(ctx context.Context) (yunit.Scope, error) {
	if ctx == nil {
		return nil, ErrScopeNotFound
	}
	s, ok := ctx.Value(scopeContextKey{}).(yunit.Scope)
	if !ok {
		return nil, ErrScopeNotFound
	}
	return s, nil
}
