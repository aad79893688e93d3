package yunit

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

var (
	bytesType    = reflect.TypeFor[[]byte]()
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
)

// IsSimple reports whether a fixture constructor parameter of type rt is
// supplied by the test itself rather than by the service provider. Simple
// types are booleans, numbers, strings, time.Time, time.Duration, uuid.UUID,
// []byte and named types over those kinds.
func IsSimple(rt reflect.Type) bool {
	if rt == nil {
		return false
	}

	switch rt {
	case bytesType, timeType, durationType, uuidType:
		return true
	}

	switch rt.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// RootTypes returns the types a fixture constructor needs from the service
// provider: its parameters in declaration order, minus simple, optional and
// variadic ones. Parameters are interned into u.
func RootTypes(u *Universe, ctor any) ([]*Type, error) {
	if u == nil {
		return nil, ErrUniverseNil
	}
	if ctor == nil {
		return nil, ErrConstructorNil
	}

	params, err := u.analyzer.ParametersOf(ctor)
	if err != nil {
		return nil, ReflectionAnalysisError{Constructor: ctor, Operation: "roots", Cause: err}
	}

	roots := make([]*Type, 0, len(params))
	for _, p := range params {
		if p.Optional || p.Variadic || IsSimple(p.Type) {
			continue
		}
		roots = append(roots, u.TypeOf(p.Type))
	}
	return roots, nil
}
