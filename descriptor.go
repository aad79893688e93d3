package yunit

import (
	"fmt"
	"reflect"
)

// Descriptor is one service registration: the service type consumers ask
// for, the implementation type that satisfies it, and the lifetime the
// container will instantiate it with.
//
// User registrations may carry an Instance or a Factory instead of relying on
// the implementation's constructors. Auto-wired descriptors never do.
type Descriptor struct {
	ServiceType        *Type
	ImplementationType *Type
	Lifetime           Lifetime

	// Instance is a pre-built value, always singleton.
	Instance any

	// Factory is a Go function returning T or (T, error).
	Factory reflect.Value
}

// IsInstance reports whether the descriptor holds a pre-built value.
func (d *Descriptor) IsInstance() bool {
	return d.Instance != nil
}

// IsFactory reports whether the descriptor is built by a factory function.
func (d *Descriptor) IsFactory() bool {
	return d.Factory.IsValid()
}

// IsOpenGeneric reports whether the descriptor maps an open generic
// definition to another.
func (d *Descriptor) IsOpenGeneric() bool {
	return d.ServiceType != nil && d.ServiceType.IsGenericDefinition()
}

// Validate checks the descriptor is complete and that its implementation can
// stand in for its service type.
func (d *Descriptor) Validate() error {
	if d == nil {
		return ValidationError{Cause: ErrDescriptorNil}
	}
	if d.ServiceType == nil {
		return ValidationError{Cause: ErrTypeNil}
	}
	if !d.Lifetime.IsValid() {
		return ValidationError{ServiceType: d.ServiceType, Cause: LifetimeError{Value: d.Lifetime}}
	}

	switch {
	case d.IsInstance():
		if rt := d.ServiceType.ReflectType(); rt != nil && !assignableValue(reflect.TypeOf(d.Instance), rt) {
			return ValidationError{
				ServiceType: d.ServiceType,
				Cause:       fmt.Errorf("%w: instance of type %s", ErrNotAssignable, formatType(reflect.TypeOf(d.Instance))),
			}
		}
		return nil

	case d.IsFactory():
		if d.Factory.Kind() != reflect.Func {
			return ValidationError{ServiceType: d.ServiceType, Cause: ErrNotFunc}
		}
		return nil
	}

	if d.ImplementationType == nil {
		return ValidationError{ServiceType: d.ServiceType, Cause: ErrTypeNil}
	}

	if d.ServiceType.IsGenericDefinition() || d.ImplementationType.IsGenericDefinition() {
		if !d.ServiceType.IsGenericDefinition() || !d.ImplementationType.IsGenericDefinition() ||
			!(d.ServiceType == d.ImplementationType || hasGenericShape(d.ImplementationType, d.ServiceType)) {
			return ValidationError{
				ServiceType: d.ServiceType,
				Cause:       fmt.Errorf("%w: %s", ErrNotAssignable, d.ImplementationType),
			}
		}
		return nil
	}

	if !d.ServiceType.IsAssignableFrom(d.ImplementationType) {
		return ValidationError{
			ServiceType: d.ServiceType,
			Cause:       fmt.Errorf("%w: %s", ErrNotAssignable, d.ImplementationType),
		}
	}
	return nil
}

func (d *Descriptor) String() string {
	switch {
	case d.IsInstance():
		return fmt.Sprintf("%s (%s instance)", d.ServiceType, d.Lifetime)
	case d.IsFactory():
		return fmt.Sprintf("%s (%s factory)", d.ServiceType, d.Lifetime)
	case d.ImplementationType == nil || d.ServiceType.Equal(d.ImplementationType):
		return fmt.Sprintf("%s (%s)", d.ServiceType, d.Lifetime)
	default:
		return fmt.Sprintf("%s => %s (%s)", d.ServiceType, d.ImplementationType, d.Lifetime)
	}
}

func assignableValue(value, target reflect.Type) bool {
	if target.Kind() == reflect.Interface {
		return value.Implements(target)
	}
	return value.AssignableTo(target)
}
