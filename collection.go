package yunit

import (
	"reflect"
	"sync"

	"github.com/junioryono/yunit/internal/reflection"
)

// Collection is the service registry a composition pass populates. It is an
// ordered sequence of descriptors, append-only while the resolver runs, and
// queryable by exact service type or by open generic definition.
//
// User registrations made before composition always win: the resolver never
// adds a descriptor for a service type the collection already satisfies.
//
// Example:
//
//	reg := yunit.NewCollection()
//	_ = reg.AddSingleton(clockType, fakeClockType)
//	_ = reg.AddInstance(yunit.TypeFor[*Config](u), cfg)
type Collection struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
	analyzer    *reflection.Analyzer
}

// NewCollection creates a new empty Collection.
func NewCollection() *Collection {
	return &Collection{analyzer: reflection.New()}
}

// Add validates and appends a descriptor.
func (c *Collection) Add(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.append(d)
	return nil
}

func (c *Collection) append(d *Descriptor) {
	c.mu.Lock()
	c.descriptors = append(c.descriptors, d)
	c.mu.Unlock()
}

// AddSingleton registers implementation for service with singleton lifetime.
func (c *Collection) AddSingleton(service, implementation *Type) error {
	return c.Add(&Descriptor{ServiceType: service, ImplementationType: implementation, Lifetime: Singleton})
}

// AddScoped registers implementation for service with scoped lifetime.
func (c *Collection) AddScoped(service, implementation *Type) error {
	return c.Add(&Descriptor{ServiceType: service, ImplementationType: implementation, Lifetime: Scoped})
}

// AddTransient registers implementation for service with transient lifetime.
func (c *Collection) AddTransient(service, implementation *Type) error {
	return c.Add(&Descriptor{ServiceType: service, ImplementationType: implementation, Lifetime: Transient})
}

// AddInstance registers a pre-built singleton value for service.
func (c *Collection) AddInstance(service *Type, instance any) error {
	if instance == nil {
		return ValidationError{ServiceType: service, Cause: ErrInstanceMissing}
	}
	return c.Add(&Descriptor{
		ServiceType:        service,
		ImplementationType: service,
		Lifetime:           Singleton,
		Instance:           instance,
	})
}

// AddFactory registers a factory function for service. The factory takes its
// dependencies as parameters and returns a value assignable to service,
// optionally with an error.
func (c *Collection) AddFactory(lifetime Lifetime, service *Type, factory any) error {
	if service == nil {
		return ValidationError{Cause: ErrTypeNil}
	}

	info, err := c.analyzer.Analyze(factory)
	if err != nil {
		return ReflectionAnalysisError{Constructor: factory, Operation: "analyze", Cause: err}
	}
	if rt := service.ReflectType(); rt != nil && !assignableValue(info.Result, rt) {
		return ValidationError{ServiceType: service, Cause: ErrNotAssignable}
	}

	return c.Add(&Descriptor{
		ServiceType:        service,
		ImplementationType: service,
		Lifetime:           lifetime,
		Factory:            reflect.ValueOf(factory),
	})
}

// Contains reports whether a descriptor exists for exactly service.
func (c *Collection) Contains(service *Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.descriptors {
		if d.ServiceType.Equal(service) {
			return true
		}
	}
	return false
}

// Satisfies reports whether service is already covered, either by an exact
// descriptor or, for a generic service, by a descriptor for its open
// definition.
func (c *Collection) Satisfies(service *Type) bool {
	if service == nil {
		return false
	}
	if c.Contains(service) {
		return true
	}
	if def := service.GenericDefinition(); def != nil && def != service {
		return c.Contains(def)
	}
	return false
}

// Lookup returns the descriptors registered for exactly service, in
// registration order.
func (c *Collection) Lookup(service *Type) []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Descriptor
	for _, d := range c.descriptors {
		if d.ServiceType.Equal(service) {
			out = append(out, d)
		}
	}
	return out
}

// Remove removes all descriptors for exactly service.
func (c *Collection) Remove(service *Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.descriptors[:0]
	for _, d := range c.descriptors {
		if !d.ServiceType.Equal(service) {
			kept = append(kept, d)
		}
	}
	clear(c.descriptors[len(kept):])
	c.descriptors = kept
}

// ToSlice returns a copy of all descriptors in registration order.
func (c *Collection) ToSlice() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Descriptor(nil), c.descriptors...)
}

// Count returns the number of descriptors.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.descriptors)
}
