package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Hook is a pair of start and stop callbacks. Either may be nil.
type Hook struct {
	OnStart func(context.Context) error
	OnStop  func(context.Context) error
}

// Lifecycle collects hooks run by Host.Start and Host.Stop. Services receive
// it as a constructor parameter.
type Lifecycle struct {
	mu      sync.Mutex
	hooks   []Hook
	started int // number of hooks whose OnStart succeeded
}

// Append adds a hook. Hooks start in order and stop in reverse order.
func (l *Lifecycle) Append(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// Len returns the number of hooks.
func (l *Lifecycle) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hooks)
}

// start runs OnStart hooks in order. On failure the hooks already started
// are stopped in reverse.
func (l *Lifecycle) start(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.hooks...)
	l.mu.Unlock()

	for i, hook := range hooks {
		if hook.OnStart != nil {
			if err := hook.OnStart(ctx); err != nil {
				l.setStarted(i)
				rollback := l.stop(ctx)
				return errors.Join(StartupError{Method: "OnStart", Cause: err}, rollback)
			}
		}
		l.setStarted(i + 1)
	}
	return nil
}

// stop runs OnStop for started hooks in reverse, collecting every error.
func (l *Lifecycle) stop(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.hooks[:l.started]...)
	l.started = 0
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if hooks[i].OnStop == nil {
			continue
		}
		if err := hooks[i].OnStop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (l *Lifecycle) setStarted(n int) {
	l.mu.Lock()
	l.started = n
	l.mu.Unlock()
}

// disposer closes the io.Closer instances it tracks in reverse order.
type disposer struct {
	mu      sync.Mutex
	closers []io.Closer
}

// track adds instance if it is an io.Closer.
func (d *disposer) track(instance any) {
	if c, ok := instance.(io.Closer); ok {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.closers = append(d.closers, c)
	}
}

func (d *disposer) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.closers)
}

// dispose closes all tracked instances in reverse order (LIFO)
func (d *disposer) dispose() error {
	d.mu.Lock()
	closers := d.closers
	d.closers = nil
	d.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("disposal error: %w", err))
		}
	}
	return errors.Join(errs...)
}
