package yunit

// DefaultMaxDepth bounds the recursion of one root's resolution.
const DefaultMaxDepth = 10

// ResolutionContext carries the state of one resolution. It is passed by
// value; only Depth differs between recursive calls, while Registry and
// Chain are shared.
type ResolutionContext struct {
	Registry *Collection
	Universe *Universe
	Depth    int
	MaxDepth int
	Lifetime Lifetime
	Chain    *DependencyChain
}

// Resolve tries to make requested satisfiable by adding descriptors to
// ctx.Registry. It reports whether requested is satisfiable; the reasons for
// a failure are left in ctx.Chain.
//
// Interfaces and abstract types are satisfied by the exported concrete types
// of ctx.Universe assignable to them, in scan order. A request for
// Enumerable[T] registers every viable implementor of T; any other request
// stops at the first one. A constructor is viable when all its required
// parameters resolve, and a parameter assignable to the requested type makes
// it non-viable. Types the registry already satisfies are never registered
// again. Passthrough and already satisfied requests succeed at any depth.
//
// Resolve never instantiates anything and never returns an error.
func Resolve(ctx ResolutionContext, requested *Type) bool {
	if requested == nil || ctx.Registry == nil || ctx.Universe == nil {
		return false
	}
	if ctx.Chain == nil {
		ctx.Chain = &DependencyChain{}
	}

	if isPassthrough(requested) {
		return true
	}

	singular := true
	if elem, ok := requested.EnumerableElem(); ok {
		singular = false
		requested = elem
	}

	if ctx.Registry.Satisfies(requested) {
		return true
	}

	// Only requests that recurse are bounded.
	if ctx.Depth >= ctx.MaxDepth {
		return false
	}

	candidates := []*Type{requested}
	if requested.IsAbstract() {
		candidates = ctx.Universe.Implementors(requested)
	}

	resolved := false
	for _, candidate := range candidates {
		if !constructible(ctx, requested, candidate) {
			continue
		}

		ctx.Registry.append(&Descriptor{
			ServiceType:        requested,
			ImplementationType: candidate,
			Lifetime:           ctx.Lifetime,
		})
		resolved = true

		if singular {
			break
		}
	}
	if resolved {
		return true
	}

	if requested.IsGenericType() {
		return resolveGeneric(ctx, requested)
	}
	return false
}

// constructible reports whether candidate has a viable public constructor.
func constructible(ctx ResolutionContext, requested, candidate *Type) bool {
	for _, ctor := range candidate.Constructors() {
		if !ctor.IsPublic() {
			continue
		}

		mark := ctx.Chain.Push(requested, candidate, ctx.Depth)
		if viable(ctx, requested, ctor, mark) {
			return true
		}
	}
	return false
}

func viable(ctx ResolutionContext, requested *Type, ctor *Constructor, mark int) bool {
	next := ctx
	next.Depth++

	for _, p := range ctor.Params {
		if p.Skippable() {
			continue
		}

		ctx.Chain.Push(p.Type, p.Type, next.Depth)

		// A parameter that could itself be the requested type is a
		// self-dependency.
		if requested.IsAssignableFrom(p.Type) {
			return false
		}

		if !Resolve(next, p.Type) {
			return false
		}
		ctx.Chain.Truncate(mark)
	}
	return true
}

// resolveGeneric maps requested's open definition to the first compatible
// open generic implementation in the universe.
func resolveGeneric(ctx ResolutionContext, requested *Type) bool {
	def := requested.GenericDefinition()
	if ctx.Registry.Contains(def) {
		return true
	}

	for _, impl := range ctx.Universe.GenericDefinitions() {
		if impl == def || !genericCompatible(def, impl) {
			continue
		}

		ctx.Registry.append(&Descriptor{
			ServiceType:        def,
			ImplementationType: impl,
			Lifetime:           ctx.Lifetime,
		})
		return true
	}
	return false
}

func genericCompatible(def, impl *Type) bool {
	if len(def.params) != len(impl.params) {
		return false
	}
	for i, r := range def.params {
		if !constraintsCompatible(r, impl.params[i]) {
			return false
		}
	}
	return hasGenericShape(impl, def)
}

// hasGenericShape reports whether impl implements an interface closed from
// def, or has a base closed from def.
func hasGenericShape(impl, def *Type) bool {
	for _, i := range impl.Interfaces() {
		if i.GenericDefinition() == def {
			return true
		}
	}
	for b := impl.BaseType(); b != nil; b = b.BaseType() {
		if b.GenericDefinition() == def {
			return true
		}
	}
	return false
}

// constraintsCompatible compares a requested generic parameter r with the
// candidate's parameter c at the same position.
func constraintsCompatible(r, c *Type) bool {
	rc, cc := r.Constraint(), c.Constraint()

	if rc.Has(DefaultConstructorConstraint) &&
		!cc.Has(DefaultConstructorConstraint) && !cc.Has(ValueTypeConstraint) {
		return false
	}
	if rc.Has(ValueTypeConstraint) != cc.Has(ValueTypeConstraint) {
		return false
	}
	if rc.Has(ReferenceTypeConstraint) && cc.Has(ValueTypeConstraint) {
		return false
	}

	if r.base != nil && !alike(r.base, c.BaseType()) {
		return false
	}
	for _, ri := range r.interfaces {
		found := false
		for _, ci := range c.interfaces {
			if alike(ri, ci) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func alike(r, c *Type) bool {
	if r == nil || r.isAny() {
		return true
	}
	if c == nil {
		return false
	}
	if !r.IsGenericType() && !c.IsGenericType() {
		return r.IsAssignableFrom(c)
	}

	if !r.IsInterface() {
		def := r.GenericDefinition()
		if def == nil {
			return r.IsAssignableFrom(c)
		}
		for b := c; b != nil; b = b.BaseType() {
			if b.GenericDefinition() == def {
				return true
			}
		}
		return false
	}

	cifaces := c.Interfaces()
	for _, ri := range r.Interfaces() {
		found := false
		for _, ci := range cifaces {
			if sameDefinition(ri, ci) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameDefinition(a, b *Type) bool {
	da, db := a.GenericDefinition(), b.GenericDefinition()
	if da == nil || db == nil {
		return a.Equal(b)
	}
	return da == db
}
