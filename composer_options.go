package yunit

import (
	"github.com/rs/zerolog"
)

// Option configures a Composer.
type Option interface {
	apply(*composerOptions)
}

// composerOptions holds composer configuration.
type composerOptions struct {
	maxDepth        int
	lifetime        Lifetime
	logger          zerolog.Logger
	baselineLogging bool
}

func defaultComposerOptions() composerOptions {
	return composerOptions{
		maxDepth:        DefaultMaxDepth,
		lifetime:        Scoped,
		logger:          zerolog.Nop(),
		baselineLogging: true,
	}
}

// optionFunc adapts a function to Option.
type optionFunc func(*composerOptions)

func (f optionFunc) apply(opts *composerOptions) {
	f(opts)
}

// WithMaxDepth bounds the recursion depth of each root's resolution.
func WithMaxDepth(depth int) Option {
	return optionFunc(func(opts *composerOptions) {
		opts.maxDepth = depth
	})
}

// WithLifetime sets the lifetime of auto-wired descriptors.
func WithLifetime(lifetime Lifetime) Option {
	return optionFunc(func(opts *composerOptions) {
		opts.lifetime = lifetime
	})
}

// WithLogger sets the logger used for pass diagnostics. The same logger is
// registered as the baseline logging facility.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(opts *composerOptions) {
		opts.logger = logger
	})
}

// WithoutBaselineLogging stops the composer from registering its logger.
func WithoutBaselineLogging() Option {
	return optionFunc(func(opts *composerOptions) {
		opts.baselineLogging = false
	})
}
