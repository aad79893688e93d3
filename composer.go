package yunit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Composer drives composition passes: it resolves a fixture's root types in
// order and turns the first failure into a CompositionError.
//
// A Composer holds only configuration and may be reused across passes and
// goroutines. Each pass needs its own Collection.
type Composer struct {
	opts composerOptions
}

// NewComposer creates a composer. Invalid options are reported when a pass
// starts.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{opts: defaultComposerOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&c.opts)
		}
	}
	return c
}

// MaxDepth returns the configured recursion bound.
func (c *Composer) MaxDepth() int {
	return c.opts.maxDepth
}

// Lifetime returns the lifetime given to auto-wired descriptors.
func (c *Composer) Lifetime() Lifetime {
	return c.opts.lifetime
}

// Logger returns the composer's logger.
func (c *Composer) Logger() zerolog.Logger {
	return c.opts.logger
}

// Compose resolves roots in order against registry and universe. It stops at
// the first root that cannot be satisfied; later roots are not attempted.
// On success registry holds every descriptor needed to build the roots.
func (c *Composer) Compose(registry *Collection, universe *Universe, roots []*Type) error {
	if registry == nil {
		return ErrRegistryNil
	}
	if universe == nil {
		return ErrUniverseNil
	}
	if c.opts.maxDepth <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidMaxDepth, c.opts.maxDepth)
	}
	if !c.opts.lifetime.IsValid() {
		return LifetimeError{Value: c.opts.lifetime}
	}

	passID := uuid.NewString()
	logger := c.opts.logger.With().Str("pass", passID).Logger()

	chain := &DependencyChain{}
	ctx := ResolutionContext{
		Registry: registry,
		Universe: universe,
		MaxDepth: c.opts.maxDepth,
		Lifetime: c.opts.lifetime,
		Chain:    chain,
	}

	loggingRegistered := false
	for _, root := range roots {
		if root == nil {
			return ValidationError{Cause: ErrTypeNil}
		}

		if !loggingRegistered {
			c.registerBaselineLogging(registry)
			loggingRegistered = true
		}

		chain.Reset()
		before := registry.Count()

		if !Resolve(ctx, root) {
			err := &CompositionError{
				RootType: root,
				MaxDepth: c.opts.maxDepth,
				Chain:    chain.Entries(),
				PassID:   passID,
			}
			logger.Error().
				Str("root", root.String()).
				Int("max_depth", c.opts.maxDepth).
				Str("path", err.Path()).
				Msg("root type cannot be satisfied")
			return err
		}

		chain.Reset()
		logger.Debug().
			Str("root", root.String()).
			Int("registered", registry.Count()-before).
			Msg("root type resolved")
	}

	return nil
}

// ComposeConstructor composes the root types of a fixture constructor.
func (c *Composer) ComposeConstructor(registry *Collection, universe *Universe, ctor any) error {
	roots, err := RootTypes(universe, ctor)
	if err != nil {
		return err
	}
	return c.Compose(registry, universe, roots)
}

func (c *Composer) registerBaselineLogging(registry *Collection) {
	if !c.opts.baselineLogging || registry.Contains(LoggerType) {
		return
	}
	registry.append(&Descriptor{
		ServiceType:        LoggerType,
		ImplementationType: LoggerType,
		Lifetime:           Singleton,
		Instance:           c.opts.logger,
	})
}
