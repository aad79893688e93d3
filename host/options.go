package host

import (
	"github.com/junioryono/yunit"
	"github.com/rs/zerolog"
)

// Option configures a Host.
type Option interface {
	apply(*options)
}

type options struct {
	startup      any
	environment  string
	universe     *yunit.Universe
	constructors []any
	composer     []yunit.Option
	logger       zerolog.Logger
	autowire     bool
	config       yunit.Config
	err          error
}

func defaultOptions() options {
	return options{
		environment: yunit.DefaultEnvironment,
		logger:      zerolog.Nop(),
		autowire:    true,
		config:      yunit.DefaultConfig(),
	}
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

// WithStartup sets the value whose Configure* methods are called while the
// host is built and started.
func WithStartup(startup any) Option {
	return optionFunc(func(opts *options) {
		opts.startup = startup
	})
}

// WithEnvironment sets the environment name used to pick startup methods.
func WithEnvironment(env string) Option {
	return optionFunc(func(opts *options) {
		if env != "" {
			opts.environment = env
		}
	})
}

// WithUniverse sets the type universe scanned for implementations.
func WithUniverse(u *yunit.Universe) Option {
	return optionFunc(func(opts *options) {
		opts.universe = u
	})
}

// WithConstructors adds constructors to the universe.
func WithConstructors(ctors ...any) Option {
	return optionFunc(func(opts *options) {
		opts.constructors = append(opts.constructors, ctors...)
	})
}

// WithComposerOptions configures the composition pass.
func WithComposerOptions(opts ...yunit.Option) Option {
	return optionFunc(func(o *options) {
		o.composer = append(o.composer, opts...)
	})
}

// WithConfig applies a loaded configuration: composer options, the
// environment and the log level. An invalid configuration makes New fail.
func WithConfig(cfg yunit.Config) Option {
	return optionFunc(func(opts *options) {
		composerOpts, err := cfg.Options()
		if err != nil {
			opts.err = err
			return
		}
		opts.config = cfg
		opts.composer = append(opts.composer, composerOpts...)
		if cfg.Environment != "" {
			opts.environment = cfg.Environment
		}
		if level := cfg.Level(); level != zerolog.Disabled {
			opts.logger = yunit.NewLogger(nil, level)
		}
	})
}

// WithLogger sets the host logger. It is also the composer's logger unless a
// composer option overrides it.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithoutAutowire disables composition; only services registered by the
// startup are available.
func WithoutAutowire() Option {
	return optionFunc(func(opts *options) {
		opts.autowire = false
	})
}
