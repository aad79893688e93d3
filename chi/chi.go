// Package chi serves a fixture host over HTTP with the Chi router.
//
// Every request runs in its own host scope. ScopeMiddleware opens the scope
// and attaches it to the request context. Handle resolves a controller from
// that scope and Fixture builds a fresh fixture in it, so scoped services
// never leak between requests. NewServer wires both onto a test server
// whose lifetime follows the host.
//
//	h, _ := host.New(NewOrderTests)
//	srv := yunitchi.NewServer(h, func(r chi.Router) {
//	    r.Post("/orders", yunitchi.Fixture(h, (*OrderTests).Place))
//	})
//	_ = h.Start(ctx) // starts srv
//	resp, _ := http.Post(srv.URL+"/orders", "text/plain", body)
package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/host"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ScopeHeader carries the ID of the scope that served a response.
const ScopeHeader = "X-Yunit-Scope"

// ErrFixtureType is returned when the host's fixture is not the type a
// Fixture handler expects.
var ErrFixtureType = errors.New("fixture has unexpected type")

type config struct {
	logger      *zerolog.Logger
	middlewares []func(http.Handler) http.Handler
}

// Option configures ScopeMiddleware and NewServer.
type Option func(*config)

// WithLogger sets the logger for scope failures. Without it, failures are
// logged by the host's logger when a scope resolves one and by the global
// logger otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = &logger
	}
}

// WithMiddleware adds router middleware that NewServer mounts inside the
// request scope, after ScopeMiddleware. ScopeMiddleware ignores it.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(c *config) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// ScopeMiddleware creates a middleware that opens a scope from factory for
// each request. The scope is attached to the request context, where
// host.FromContext finds it, and closed when the request completes. Its ID
// is sent in the ScopeHeader response header.
//
// A factory that cannot create scopes answers 503 once the host has stopped
// and 500 otherwise.
func ScopeMiddleware(factory yunit.ScopeFactory, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := factory.CreateScope(r.Context())
			if err != nil {
				fail(w, r, cfg.loggerFor(nil), err, "failed to create scope")
				return
			}

			logger := cfg.loggerFor(scope)
			defer func() {
				if err := scope.Close(); err != nil {
					logger.Error().Err(err).Str("scope", scope.ID()).Msg("failed to close scope")
				}
			}()

			w.Header().Set(ScopeHeader, scope.ID())
			next.ServeHTTP(w, r.WithContext(scope.Context()))
		})
	}
}

// Handle wraps a controller method so the controller T is resolved from the
// request scope. The method signature is func(T, http.ResponseWriter,
// *http.Request), so method expressions work directly:
//
//	r.Get("/greet/{name}", yunitchi.Handle((*GreetController).Greet))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := host.FromContext(r.Context())
		if err != nil {
			fail(w, r, log.Logger, err, "request has no scope")
			return
		}

		controller, err := host.Resolve[T](scope)
		if err != nil {
			fail(w, r, loggerOf(scope), err, "failed to resolve controller")
			return
		}

		method(controller, w, r)
	}
}

// Fixture wraps a fixture method so the fixture of h is constructed from the
// request scope for every request. T must be the type h's fixture
// constructor returns.
func Fixture[T any](h *host.Host, method func(T, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := host.FromContext(r.Context())
		if err != nil {
			fail(w, r, log.Logger, err, "request has no scope")
			return
		}

		v, err := h.Construct(scope)
		if err != nil {
			fail(w, r, loggerOf(scope), err, "failed to construct fixture")
			return
		}

		fixture, ok := v.(T)
		if !ok {
			err := fmt.Errorf("%w: got %T, want %s", ErrFixtureType, v, reflect.TypeFor[T]())
			fail(w, r, loggerOf(scope), err, "failed to construct fixture")
			return
		}

		method(fixture, w, r)
	}
}

// NewServer mounts routes on a chi router behind ScopeMiddleware and serves
// it with an unstarted test server. The server starts with the host and
// closes when the host stops. Panics in handlers answer 500.
func NewServer(h *host.Host, routes func(chi.Router), opts ...Option) *httptest.Server {
	cfg := newConfig(opts)
	if cfg.logger == nil {
		logger := h.Logger()
		cfg.logger = &logger
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ScopeMiddleware(h, opts...))
	r.Use(cfg.middlewares...)
	if routes != nil {
		routes(r)
	}

	srv := httptest.NewUnstartedServer(r)
	h.Lifecycle().Append(host.Hook{
		OnStart: func(context.Context) error {
			srv.Start()
			cfg.logger.Debug().Str("url", srv.URL).Msg("test server started")
			return nil
		},
		OnStop: func(context.Context) error {
			srv.Close()
			cfg.logger.Debug().Str("url", srv.URL).Msg("test server closed")
			return nil
		},
	})
	return srv
}

func (c *config) loggerFor(scope yunit.Scope) zerolog.Logger {
	if c.logger != nil {
		return *c.logger
	}
	return loggerOf(scope)
}

// loggerOf returns the logger scope resolves, or the global logger.
func loggerOf(scope yunit.Scope) zerolog.Logger {
	if scope != nil {
		if logger, err := host.Resolve[zerolog.Logger](scope); err == nil {
			return logger
		}
	}
	return log.Logger
}

func fail(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, msg string) {
	status := http.StatusInternalServerError
	if errors.Is(err, host.ErrHostStopped) {
		status = http.StatusServiceUnavailable
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg(msg)
	http.Error(w, err.Error(), status)
}
