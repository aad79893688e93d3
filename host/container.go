package host

import (
	"fmt"
	"reflect"

	"github.com/junioryono/yunit"
	"go.uber.org/dig"
)

var inType = reflect.TypeFor[dig.In]()

// digProvider is implemented by *dig.Container and *dig.Scope.
type digProvider interface {
	Provide(constructor any, opts ...dig.ProvideOption) error
}

// binding holds every descriptor of one service type. A binding with one
// descriptor is provided as the service type itself. With several, each
// descriptor is provided under a name and the service type resolves to the
// last one. Either way []T resolves to every descriptor in registration
// order.
type binding struct {
	service     *yunit.Type
	rtype       reflect.Type
	descriptors []*yunit.Descriptor
	sources     []reflect.Value // constructor or factory per descriptor; invalid for instances
}

// singleton reports whether the binding is provided once at the root. A
// binding with any scoped or transient descriptor is provided per scope.
func (b *binding) singleton() bool {
	for _, d := range b.descriptors {
		if d.Lifetime != yunit.Singleton {
			return false
		}
	}
	return true
}

func (b *binding) lifetime() yunit.Lifetime {
	if b.singleton() {
		return yunit.Singleton
	}
	for _, d := range b.descriptors {
		if d.Lifetime == yunit.Scoped {
			return yunit.Scoped
		}
	}
	return yunit.Transient
}

// bindingsOf groups the registry's descriptors by service type, keeping
// registration order.
func bindingsOf(reg *yunit.Collection) ([]*binding, error) {
	var bindings []*binding
	index := make(map[*yunit.Type]*binding)

	for _, d := range reg.ToSlice() {
		rt := d.ServiceType.ReflectType()
		if rt == nil || d.IsOpenGeneric() {
			return nil, BuildError{Descriptor: d.String(), Cause: yunit.ErrNotConstructible}
		}

		var source reflect.Value
		switch {
		case d.IsInstance():
		case d.IsFactory():
			source = d.Factory
		default:
			ctor := constructorOf(reg, d.ImplementationType)
			if ctor == nil {
				return nil, BuildError{Descriptor: d.String(), Cause: yunit.ErrNotConstructible}
			}
			source = ctor.Func
		}

		b, ok := index[d.ServiceType]
		if !ok {
			b = &binding{service: d.ServiceType, rtype: rt}
			index[d.ServiceType] = b
			bindings = append(bindings, b)
		}
		b.descriptors = append(b.descriptors, d)
		b.sources = append(b.sources, source)
	}

	return bindings, nil
}

// constructorOf picks the constructor dig will call for impl: the first
// public one whose required parameters the registry satisfies, else the
// first public one.
func constructorOf(reg *yunit.Collection, impl *yunit.Type) *yunit.Constructor {
	var fallback *yunit.Constructor
	for _, ctor := range impl.Constructors() {
		if !ctor.IsPublic() || !ctor.Func.IsValid() {
			continue
		}
		if fallback == nil {
			fallback = ctor
		}
		if satisfied(reg, ctor) {
			return ctor
		}
	}
	return fallback
}

func satisfied(reg *yunit.Collection, ctor *yunit.Constructor) bool {
	for _, p := range ctor.Params {
		if p.Skippable() {
			continue
		}
		t := p.Type
		if elem, ok := t.EnumerableElem(); ok {
			t = elem
		}
		if t.Equal(yunit.ServiceProviderType) || t.Equal(yunit.ScopeFactoryType) || t.Equal(yunit.LoggerType) {
			continue
		}
		if !reg.Satisfies(t) {
			return false
		}
	}
	return true
}

// provide registers the binding with target. Instances created by its
// constructors are tracked by d.
func (b *binding) provide(target digProvider, d *disposer) error {
	if len(b.descriptors) == 1 {
		if err := target.Provide(b.constructor(0, d).Interface()); err != nil {
			return BuildError{Descriptor: b.descriptors[0].String(), Cause: err}
		}
		if err := target.Provide(b.single().Interface()); err != nil {
			return BuildError{Descriptor: "[]" + b.service.String(), Cause: err}
		}
		return nil
	}

	names := make([]string, len(b.descriptors))
	for i := range b.descriptors {
		names[i] = fmt.Sprintf("yunit-%d", i)
		if err := target.Provide(b.constructor(i, d).Interface(), dig.Name(names[i])); err != nil {
			return BuildError{Descriptor: b.descriptors[i].String(), Cause: err}
		}
	}

	if err := target.Provide(b.last(names).Interface()); err != nil {
		return BuildError{Descriptor: b.service.String(), Cause: err}
	}
	if err := target.Provide(b.all(names).Interface()); err != nil {
		return BuildError{Descriptor: "[]" + b.service.String(), Cause: err}
	}
	return nil
}

// constructor returns func(params...) (T, error) for descriptor i, where T
// is the service type.
func (b *binding) constructor(i int, d *disposer) reflect.Value {
	svc := b.rtype
	out := []reflect.Type{svc, errorType}
	noErr := reflect.Zero(errorType)

	if b.descriptors[i].IsInstance() {
		v := reflect.New(svc).Elem()
		v.Set(reflect.ValueOf(b.descriptors[i].Instance))
		return reflect.MakeFunc(reflect.FuncOf(nil, out, false), func([]reflect.Value) []reflect.Value {
			return []reflect.Value{v, noErr}
		})
	}

	source := b.sources[i]
	st := source.Type()
	in := make([]reflect.Type, st.NumIn())
	for j := range in {
		in[j] = st.In(j)
	}

	return reflect.MakeFunc(reflect.FuncOf(in, out, st.IsVariadic()), func(args []reflect.Value) []reflect.Value {
		var results []reflect.Value
		if st.IsVariadic() {
			results = source.CallSlice(args)
		} else {
			results = source.Call(args)
		}

		v := reflect.New(svc).Elem()
		if len(results) == 2 && !results[1].IsNil() {
			return []reflect.Value{v, results[1]}
		}

		v.Set(results[0])
		d.track(results[0].Interface())
		return []reflect.Value{v, noErr}
	})
}

// single returns func(T) []T.
func (b *binding) single() reflect.Value {
	sliceType := reflect.SliceOf(b.rtype)
	fnType := reflect.FuncOf([]reflect.Type{b.rtype}, []reflect.Type{sliceType}, false)

	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		s := reflect.MakeSlice(sliceType, 1, 1)
		s.Index(0).Set(args[0])
		return []reflect.Value{s}
	})
}

// last returns func(struct{dig.In; ...}) T resolving the last named
// descriptor.
func (b *binding) last(names []string) reflect.Value {
	params := namedParams(b.rtype, names[len(names)-1:])
	fnType := reflect.FuncOf([]reflect.Type{params}, []reflect.Type{b.rtype}, false)

	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		return []reflect.Value{args[0].Field(1)}
	})
}

// all returns func(struct{dig.In; ...}) []T over every named descriptor.
func (b *binding) all(names []string) reflect.Value {
	params := namedParams(b.rtype, names)
	sliceType := reflect.SliceOf(b.rtype)
	fnType := reflect.FuncOf([]reflect.Type{params}, []reflect.Type{sliceType}, false)

	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		s := reflect.MakeSlice(sliceType, len(names), len(names))
		for i := range names {
			s.Index(i).Set(args[0].Field(i + 1))
		}
		return []reflect.Value{s}
	})
}

// namedParams builds a dig parameter object with one field of type rt per
// name.
func namedParams(rt reflect.Type, names []string) reflect.Type {
	fields := []reflect.StructField{{Name: "In", Type: inType, Anonymous: true}}
	for i, name := range names {
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("V%d", i),
			Type: rt,
			Tag:  reflect.StructTag(fmt.Sprintf(`name:%q`, name)),
		})
	}
	return reflect.StructOf(fields)
}
