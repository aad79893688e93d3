package yunit

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"
	"sync"
)

// Kind classifies a Type the way the resolver needs to see it.
type Kind uint8

const (
	// Class is a reference type. Go pointers, maps, funcs and channels map here.
	Class Kind = iota

	// Interface is an abstract contract implemented by classes and structs.
	Interface

	// Struct is a value type.
	Struct

	// TypeParameter is a generic type parameter of an open generic definition.
	TypeParameter
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Struct:
		return "struct"
	case TypeParameter:
		return "parameter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// GenericConstraint is a set of special constraints on a generic parameter.
type GenericConstraint uint8

const (
	// DefaultConstructorConstraint requires a parameterless constructor ("new()").
	DefaultConstructorConstraint GenericConstraint = 1 << iota

	// ValueTypeConstraint requires a value type ("struct").
	ValueTypeConstraint

	// ReferenceTypeConstraint requires a reference type ("class").
	ReferenceTypeConstraint
)

// Has reports whether every flag in flag is set.
func (c GenericConstraint) Has(flag GenericConstraint) bool {
	return c&flag == flag
}

func (c GenericConstraint) String() string {
	if c == 0 {
		return "none"
	}

	var parts []string
	if c.Has(ReferenceTypeConstraint) {
		parts = append(parts, "class")
	}
	if c.Has(ValueTypeConstraint) {
		parts = append(parts, "struct")
	}
	if c.Has(DefaultConstructorConstraint) {
		parts = append(parts, "new()")
	}
	return strings.Join(parts, ", ")
}

// Parameter describes one constructor parameter.
type Parameter struct {
	Name string
	Type *Type

	// Optional marks a parameter that has a default value.
	Optional bool
	Default  any

	// Variadic marks a rest parameter.
	Variadic bool
}

// Skippable reports whether the resolver treats the parameter as always
// satisfiable. Optional and variadic parameters never need a registration.
func (p Parameter) Skippable() bool {
	return p.Optional || p.Variadic
}

// Param returns a required parameter of type t.
func Param(t *Type) Parameter {
	return Parameter{Type: t}
}

// NamedParam returns a required parameter of type t with a name.
func NamedParam(name string, t *Type) Parameter {
	return Parameter{Name: name, Type: t}
}

// OptionalParam returns a parameter of type t that defaults to def.
func OptionalParam(t *Type, def any) Parameter {
	return Parameter{Type: t, Optional: true, Default: def}
}

// VariadicParam returns a rest parameter of element type t.
func VariadicParam(t *Type) Parameter {
	return Parameter{Type: t, Variadic: true}
}

// Constructor is the static description of one constructor of a type.
type Constructor struct {
	Params []Parameter

	// Private constructors are never considered by the resolver.
	Private bool

	// Func is the Go function backing the constructor, when there is one.
	Func reflect.Value
}

// IsPublic reports whether the resolver may use the constructor.
func (c *Constructor) IsPublic() bool {
	return c != nil && !c.Private
}

func (c *Constructor) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		name := p.Type.String()
		switch {
		case p.Variadic:
			name = "..." + name
		case p.Optional:
			name += "?"
		}
		if p.Name != "" {
			name = p.Name + " " + name
		}
		params[i] = name
	}
	return "(" + strings.Join(params, ", ") + ")"
}

// Type is the static metadata of one type in a Universe. Types are either
// declared symbolically with NewClass, NewInterface, NewStruct and
// NewGenericParameter, or derived once from Go types by a Universe.
//
// A Type is mutable while the universe is being populated and must not be
// changed once a composition pass has started.
type Type struct {
	name       string
	pkgPath    string
	kind       Kind
	abstract   bool
	unexported bool

	base         *Type
	interfaces   []*Type
	constructors []*Constructor

	// open generic definitions
	params []*Type

	// generic parameters
	constraint GenericConstraint
	owner      *Type
	position   int

	// closed generics
	definition *Type
	args       []*Type
	closeOnce  sync.Once

	rtype reflect.Type
}

// TypeOption configures a Type at declaration.
type TypeOption func(*Type)

// Abstract marks a class as abstract.
func Abstract() TypeOption {
	return func(t *Type) {
		t.abstract = true
	}
}

// Unexported hides the type from candidate enumeration.
func Unexported() TypeOption {
	return func(t *Type) {
		t.unexported = true
	}
}

// InPackage sets the package path of the type.
func InPackage(path string) TypeOption {
	return func(t *Type) {
		t.pkgPath = path
	}
}

// Extends sets the base type.
func Extends(base *Type) TypeOption {
	return func(t *Type) {
		t.base = base
	}
}

// Implements adds directly implemented interfaces.
func Implements(ifaces ...*Type) TypeOption {
	return func(t *Type) {
		t.Implement(ifaces...)
	}
}

// GenericParams declares the type as an open generic definition over params.
func GenericParams(params ...*Type) TypeOption {
	return func(t *Type) {
		for i, p := range params {
			p.owner = t
			p.position = i
		}
		t.params = append(t.params, params...)
	}
}

// WithConstructor adds a public constructor.
func WithConstructor(params ...Parameter) TypeOption {
	return func(t *Type) {
		t.AddConstructor(params...)
	}
}

// WithPrivateConstructor adds a constructor the resolver must ignore.
func WithPrivateConstructor(params ...Parameter) TypeOption {
	return func(t *Type) {
		t.AddConstructor(params...).Private = true
	}
}

func newType(name string, kind Kind, opts []TypeOption) *Type {
	t := &Type{name: name, kind: kind}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// NewClass declares a reference type.
func NewClass(name string, opts ...TypeOption) *Type {
	return newType(name, Class, opts)
}

// NewInterface declares an interface type.
func NewInterface(name string, opts ...TypeOption) *Type {
	return newType(name, Interface, opts)
}

// NewStruct declares a value type.
func NewStruct(name string, opts ...TypeOption) *Type {
	return newType(name, Struct, opts)
}

// NewGenericParameter declares a generic type parameter. Interface
// constraint types become the parameter's interfaces; a class constraint
// becomes its base type.
func NewGenericParameter(name string, constraint GenericConstraint, constraintTypes ...*Type) *Type {
	t := &Type{name: name, kind: TypeParameter, constraint: constraint}
	for _, c := range constraintTypes {
		if c == nil {
			continue
		}
		if c.IsInterface() {
			t.interfaces = append(t.interfaces, c)
		} else {
			t.base = c
		}
	}
	return t
}

// Implement adds directly implemented interfaces. It returns t for chaining.
func (t *Type) Implement(ifaces ...*Type) *Type {
	for _, i := range ifaces {
		if i != nil {
			t.interfaces = append(t.interfaces, i)
		}
	}
	return t
}

// AddConstructor appends a public constructor in declaration order.
func (t *Type) AddConstructor(params ...Parameter) *Constructor {
	c := &Constructor{Params: params}
	t.constructors = append(t.constructors, c)
	return c
}

// MakeGeneric closes an open generic definition over args.
func (t *Type) MakeGeneric(args ...*Type) (*Type, error) {
	if t == nil {
		return nil, ValidationError{Cause: ErrTypeNil}
	}
	if !t.IsGenericDefinition() {
		return nil, ValidationError{ServiceType: t, Cause: ErrNotGeneric}
	}
	if len(args) != len(t.params) {
		return nil, ValidationError{
			ServiceType: t,
			Cause:       fmt.Errorf("%w: expected %d, got %d", ErrGenericArity, len(t.params), len(args)),
		}
	}
	for _, a := range args {
		if a == nil {
			return nil, ValidationError{ServiceType: t, Cause: ErrTypeNil}
		}
	}

	return newClosedType(t, args), nil
}

// MustMakeGeneric is like MakeGeneric but panics on error.
func (t *Type) MustMakeGeneric(args ...*Type) *Type {
	closed, err := t.MakeGeneric(args...)
	if err != nil {
		panic(err)
	}
	return closed
}

func newClosedType(def *Type, args []*Type) *Type {
	return &Type{
		name:       def.name,
		pkgPath:    def.pkgPath,
		kind:       def.kind,
		abstract:   def.abstract,
		unexported: def.unexported,
		definition: def,
		args:       append([]*Type(nil), args...),
	}
}

// materialize fills a closed generic's base, interfaces and constructors from
// its definition with the generic parameters substituted. Closed types
// snapshot their definition on first use.
func (t *Type) materialize() {
	if t.definition == nil {
		return
	}

	t.closeOnce.Do(func() {
		def := t.definition
		t.base = t.substitute(def.base)
		for _, i := range def.interfaces {
			t.interfaces = append(t.interfaces, t.substitute(i))
		}
		for _, c := range def.constructors {
			params := make([]Parameter, len(c.Params))
			for i, p := range c.Params {
				p.Type = t.substitute(p.Type)
				params[i] = p
			}
			t.constructors = append(t.constructors, &Constructor{Params: params, Private: c.Private, Func: c.Func})
		}
	})
}

func (t *Type) substitute(x *Type) *Type {
	if x == nil {
		return nil
	}
	if x.kind == TypeParameter && x.owner == t.definition {
		return t.args[x.position]
	}
	if x.definition == nil {
		return x
	}

	args := make([]*Type, len(x.args))
	changed := false
	for i, a := range x.args {
		args[i] = t.substitute(a)
		if args[i] != a {
			changed = true
		}
	}
	if !changed {
		return x
	}
	return newClosedType(x.definition, args)
}

// Name returns the type name without generic arguments.
func (t *Type) Name() string {
	return t.name
}

// PkgPath returns the package path, if known.
func (t *Type) PkgPath() string {
	return t.pkgPath
}

// String returns the type name with its generic arguments or parameters.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	var args []*Type
	switch {
	case t.definition != nil:
		args = t.args
	case len(t.params) > 0:
		args = t.params
	default:
		return t.name
	}

	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.String()
	}
	return t.name + "[" + strings.Join(names, ", ") + "]"
}

// Kind returns the kind of the type.
func (t *Type) Kind() Kind {
	return t.kind
}

// IsInterface reports whether t is an interface.
func (t *Type) IsInterface() bool {
	return t.kind == Interface
}

// IsAbstract reports whether t cannot be instantiated directly. Interfaces
// are abstract.
func (t *Type) IsAbstract() bool {
	return t.abstract || t.kind == Interface
}

// IsConcrete reports whether t is a non-abstract class or struct.
func (t *Type) IsConcrete() bool {
	return !t.IsAbstract() && t.kind != TypeParameter
}

// IsValueType reports whether t is a struct.
func (t *Type) IsValueType() bool {
	return t.kind == Struct
}

// IsExported reports whether t is publicly visible.
func (t *Type) IsExported() bool {
	return !t.unexported
}

// IsGenericType reports whether t is an open or closed generic type.
func (t *Type) IsGenericType() bool {
	return t.definition != nil || len(t.params) > 0
}

// IsGenericDefinition reports whether t is an open generic definition.
func (t *Type) IsGenericDefinition() bool {
	return t.definition == nil && len(t.params) > 0
}

// GenericDefinition returns the open definition of a generic type, t itself
// for an open definition, or nil for a non-generic type.
func (t *Type) GenericDefinition() *Type {
	switch {
	case t.definition != nil:
		return t.definition
	case len(t.params) > 0:
		return t
	default:
		return nil
	}
}

// GenericArgs returns the arguments of a closed generic or the parameters of
// an open definition.
func (t *Type) GenericArgs() []*Type {
	if t.definition != nil {
		return append([]*Type(nil), t.args...)
	}
	return append([]*Type(nil), t.params...)
}

// GenericParams returns the generic parameters of t's open definition.
func (t *Type) GenericParams() []*Type {
	if def := t.GenericDefinition(); def != nil {
		return append([]*Type(nil), def.params...)
	}
	return nil
}

// Constraint returns the special constraints of a generic parameter.
func (t *Type) Constraint() GenericConstraint {
	return t.constraint
}

// ReflectType returns the Go type backing t, or nil for symbolic types.
func (t *Type) ReflectType() reflect.Type {
	return t.rtype
}

// EnumerableElem returns T when t is Enumerable[T].
func (t *Type) EnumerableElem() (*Type, bool) {
	if t == nil || t.definition != Enumerable {
		return nil, false
	}
	return t.args[0], true
}

// BaseType returns the base type. Classes, structs and parameters without an
// explicit base derive from Any; interfaces and Any have none.
func (t *Type) BaseType() *Type {
	t.materialize()
	if t.base != nil {
		return t.base
	}
	if t.kind == Interface || t.isAny() {
		return nil
	}
	return Any
}

// Interfaces returns every interface t implements, directly or through its
// base types and inherited interfaces, without duplicates.
func (t *Type) Interfaces() []*Type {
	var out []*Type
	add := func(i *Type) bool {
		for _, o := range out {
			if o.Equal(i) {
				return false
			}
		}
		out = append(out, i)
		return true
	}

	var visit func(x *Type)
	visit = func(x *Type) {
		x.materialize()
		for _, i := range x.interfaces {
			if add(i) {
				visit(i)
			}
		}
		if x.base != nil {
			visit(x.base)
		}
	}
	visit(t)

	return out
}

// Constructors returns the declared constructors in declaration order.
func (t *Type) Constructors() []*Constructor {
	t.materialize()
	return append([]*Constructor(nil), t.constructors...)
}

// Equal reports type identity: the same declaration, the same Go type, or
// the same generic definition closed over equal arguments.
func (t *Type) Equal(u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil {
		return false
	}
	if t.rtype != nil && u.rtype != nil {
		return t.rtype == u.rtype
	}
	if t.definition == nil || u.definition == nil {
		return false
	}
	if t.definition != u.definition || len(t.args) != len(u.args) {
		return false
	}
	for i := range t.args {
		if !t.args[i].Equal(u.args[i]) {
			return false
		}
	}
	return true
}

// IsAssignableFrom reports whether a value of type c can be used where t is
// expected.
func (t *Type) IsAssignableFrom(c *Type) bool {
	if t == nil || c == nil {
		return false
	}
	if t.isAny() || t.Equal(c) {
		return true
	}

	if t.rtype != nil && c.rtype != nil {
		if t.rtype.Kind() == reflect.Interface {
			if c.rtype.Implements(t.rtype) {
				return true
			}
		} else if c.rtype.AssignableTo(t.rtype) {
			return true
		}
	}

	if t.IsInterface() {
		for _, i := range c.Interfaces() {
			if t.Equal(i) {
				return true
			}
		}
		return false
	}

	for b := c.BaseType(); b != nil; b = b.BaseType() {
		if t.Equal(b) {
			return true
		}
	}
	return false
}

func (t *Type) isAny() bool {
	return t == Any || (t.rtype != nil && t.rtype == anyType)
}

// newReflectedType derives a Type from a Go type. Slices are handled by the
// Universe, which maps them to Enumerable.
func newReflectedType(rt reflect.Type) *Type {
	t := &Type{
		name:  formatType(rt),
		rtype: rt,
	}

	named := rt
	if rt.Kind() == reflect.Pointer {
		named = rt.Elem()
	}
	t.pkgPath = named.PkgPath()
	if named.Name() != "" && !token.IsExported(named.Name()) {
		t.unexported = true
	}

	switch rt.Kind() {
	case reflect.Interface:
		t.kind = Interface
	case reflect.Struct:
		t.kind = Struct
	default:
		t.kind = Class
	}

	return t
}
