package yunit

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/junioryono/yunit/internal/reflection"
)

// Universe is the ordered catalog of types visible to the resolver. Scan
// order is the order in which types were added, and candidate enumeration
// follows it.
//
// Types enter a universe either symbolically through Add, or derived once
// from Go types through Provide and TypeOf. A universe must not be modified
// while a composition pass is running; once populated it may be shared by
// parallel passes.
type Universe struct {
	mu sync.RWMutex

	types     []*Type
	members   map[*Type]struct{}
	reflected map[reflect.Type]*Type

	implementors map[*Type][]*Type
	definitions  []*Type

	analyzer *reflection.Analyzer
}

// NewUniverse creates a universe holding types in scan order.
func NewUniverse(types ...*Type) *Universe {
	u := &Universe{
		members:      make(map[*Type]struct{}),
		reflected:    make(map[reflect.Type]*Type),
		implementors: make(map[*Type][]*Type),
		analyzer:     reflection.New(),
	}
	u.Add(types...)
	return u
}

// Add appends types to the scan order. Types already present are ignored.
func (u *Universe) Add(types ...*Type) *Universe {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, t := range types {
		u.addLocked(t)
	}
	return u
}

func (u *Universe) addLocked(t *Type) {
	if t == nil {
		return
	}
	if _, ok := u.members[t]; ok {
		return
	}

	u.members[t] = struct{}{}
	u.types = append(u.types, t)
	if t.rtype != nil {
		u.reflected[t.rtype] = t
	}
	u.invalidateLocked()
}

func (u *Universe) invalidateLocked() {
	clear(u.implementors)
	u.definitions = nil
}

// Provide analyzes Go constructor functions and records each as a public
// constructor of the type it returns. Constructors take their dependencies as
// parameters, or as one dig.In parameter object, and return T or (T, error).
func (u *Universe) Provide(constructors ...any) error {
	for _, ctor := range constructors {
		if err := u.provide(ctor); err != nil {
			return err
		}
	}
	return nil
}

func (u *Universe) provide(ctor any) error {
	info, err := u.analyzer.Analyze(ctor)
	if err != nil {
		return ReflectionAnalysisError{Constructor: ctor, Operation: "analyze", Cause: err}
	}

	if known, ok := wellKnown[info.Result]; ok {
		return ValidationError{
			ServiceType: known,
			Cause:       fmt.Errorf("%w: framework type is supplied by the host", ErrNotAssignable),
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	t := u.typeOfLocked(info.Result)
	if _, ok := t.EnumerableElem(); ok {
		return ReflectionAnalysisError{
			Constructor: ctor,
			Operation:   "provide",
			Cause:       fmt.Errorf("%w: slices are collections, provide their elements", ErrNoReturn),
		}
	}

	params := make([]Parameter, len(info.Parameters))
	for i, p := range info.Parameters {
		params[i] = Parameter{
			Name:     p.Name,
			Type:     u.typeOfLocked(p.Type),
			Optional: p.Optional,
			Variadic: p.Variadic,
		}
	}

	c := t.AddConstructor(params...)
	c.Func = info.Value
	u.invalidateLocked()

	return nil
}

// TypeOf returns the Type for a Go type, deriving it on first use. Slices map
// to Enumerable of their element, except []byte which is a plain class.
// Framework types map to the shared well-known Types.
func (u *Universe) TypeOf(rt reflect.Type) *Type {
	if rt == nil {
		return nil
	}

	u.mu.RLock()
	if t, ok := u.lookupLocked(rt); ok {
		u.mu.RUnlock()
		return t
	}
	u.mu.RUnlock()

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.typeOfLocked(rt)
}

func (u *Universe) lookupLocked(rt reflect.Type) (*Type, bool) {
	if t, ok := wellKnown[rt]; ok {
		return t, true
	}
	t, ok := u.reflected[rt]
	return t, ok
}

func (u *Universe) typeOfLocked(rt reflect.Type) *Type {
	if t, ok := u.lookupLocked(rt); ok {
		return t
	}

	if rt.Kind() == reflect.Slice && rt != bytesType {
		t := newClosedType(Enumerable, []*Type{u.typeOfLocked(rt.Elem())})
		t.rtype = rt
		u.reflected[rt] = t
		return t
	}

	t := newReflectedType(rt)
	u.addLocked(t)
	return t
}

// TypeFor returns the Type for T in u.
func TypeFor[T any](u *Universe) *Type {
	return u.TypeOf(reflect.TypeFor[T]())
}

// Types returns every type in scan order.
func (u *Universe) Types() []*Type {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]*Type(nil), u.types...)
}

// Len returns the number of types.
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.types)
}

// Contains reports whether t was added to the universe.
func (u *Universe) Contains(t *Type) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.members[t]
	return ok
}

// Lookup returns the first type whose String matches name.
func (u *Universe) Lookup(name string) (*Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	for _, t := range u.types {
		if t.String() == name {
			return t, true
		}
	}
	return nil, false
}

// Implementors returns every exported concrete type assignable to t, in scan
// order. Results are memoised for non-closed types.
func (u *Universe) Implementors(t *Type) []*Type {
	if t == nil {
		return nil
	}

	memo := t.definition == nil
	if memo {
		u.mu.RLock()
		cached, ok := u.implementors[t]
		u.mu.RUnlock()
		if ok {
			return cached
		}
	}

	types := u.Types()
	var out []*Type
	for _, c := range types {
		if c.IsExported() && c.IsConcrete() && !c.IsGenericDefinition() && t.IsAssignableFrom(c) {
			out = append(out, c)
		}
	}

	if memo {
		u.mu.Lock()
		u.implementors[t] = out
		u.mu.Unlock()
	}
	return out
}

// GenericDefinitions returns every exported concrete open generic definition
// in scan order.
func (u *Universe) GenericDefinitions() []*Type {
	u.mu.RLock()
	if u.definitions != nil {
		defer u.mu.RUnlock()
		return u.definitions
	}
	u.mu.RUnlock()

	u.mu.Lock()
	defer u.mu.Unlock()

	defs := make([]*Type, 0)
	for _, t := range u.types {
		if t.IsGenericDefinition() && t.IsExported() && t.IsConcrete() {
			defs = append(defs, t)
		}
	}
	u.definitions = defs
	return defs
}
