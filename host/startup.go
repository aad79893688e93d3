package host

import (
	"fmt"
	"reflect"

	"github.com/junioryono/yunit"
	"github.com/rs/zerolog"
	"go.uber.org/dig"
)

var (
	errorType      = reflect.TypeFor[error]()
	collectionType = reflect.TypeFor[*yunit.Collection]()
	universeType   = reflect.TypeFor[*yunit.Universe]()
	configType     = reflect.TypeFor[yunit.Config]()
	loggerType     = reflect.TypeFor[zerolog.Logger]()
	containerType  = reflect.TypeFor[*dig.Container]()
)

// startupMethod finds the startup method for a convention. The
// environment-specific name (ConfigureTestServices) is preferred over the
// general one (ConfigureServices).
func startupMethod(startup any, env, prefix, suffix string) (reflect.Value, string, bool) {
	if startup == nil {
		return reflect.Value{}, "", false
	}

	v := reflect.ValueOf(startup)
	for _, name := range []string{prefix + env + suffix, prefix + suffix} {
		if m := v.MethodByName(name); m.IsValid() {
			return m, name, true
		}
	}
	return reflect.Value{}, "", false
}

// callStartup calls m with arguments picked by type from args. m may return
// nothing or an error.
func callStartup(m reflect.Value, name string, args map[reflect.Type]reflect.Value) error {
	mt := m.Type()
	if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return StartupError{Method: name, Cause: fmt.Errorf("must return nothing or error, got %v", mt)}
	}

	in := make([]reflect.Value, mt.NumIn())
	for i := range in {
		arg, ok := args[mt.In(i)]
		if !ok {
			return StartupError{Method: name, Cause: fmt.Errorf("unsupported parameter type %v", mt.In(i))}
		}
		in[i] = arg
	}

	out := m.Call(in)
	if len(out) == 1 && !out[0].IsNil() {
		return StartupError{Method: name, Cause: out[0].Interface().(error)}
	}
	return nil
}

// configureServices runs Configure{Env}Services / ConfigureServices. It runs
// before composition, so services it registers take precedence.
func (h *Host) configureServices() error {
	m, name, ok := startupMethod(h.opts.startup, h.opts.environment, "Configure", "Services")
	if !ok {
		return nil
	}

	h.logger.Debug().Str("method", name).Msg("configuring services")
	return callStartup(m, name, map[reflect.Type]reflect.Value{
		collectionType: reflect.ValueOf(h.registry),
		universeType:   reflect.ValueOf(h.universe),
		configType:     reflect.ValueOf(h.config()),
		loggerType:     reflect.ValueOf(h.logger),
	})
}

// configureContainer runs Configure{Env}Container / ConfigureContainer with
// the dig container after every descriptor has been provided.
func (h *Host) configureContainer() error {
	m, name, ok := startupMethod(h.opts.startup, h.opts.environment, "Configure", "Container")
	if !ok {
		return nil
	}

	h.logger.Debug().Str("method", name).Msg("configuring container")
	return callStartup(m, name, map[reflect.Type]reflect.Value{
		containerType: reflect.ValueOf(h.container),
		loggerType:    reflect.ValueOf(h.logger),
	})
}

// configure runs Configure{Env} / Configure with parameters resolved from
// the root scope.
func (h *Host) configure() error {
	m, name, ok := startupMethod(h.opts.startup, h.opts.environment, "Configure", "")
	if !ok {
		return nil
	}

	h.logger.Debug().Str("method", name).Msg("configuring host")
	if err := h.root.Invoke(m.Interface()); err != nil {
		return StartupError{Method: name, Cause: err}
	}
	return nil
}
