package yunit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lifetime specifies the scope policy under which the downstream container
// instantiates a registered implementation. The resolver only tags
// descriptors with it; it never evaluates it.
type Lifetime int

const (
	// Singleton specifies that a single instance is created per host and shared
	// by every fixture instance of the test class.
	Singleton Lifetime = iota

	// Scoped specifies that one instance is created per scope. The host opens a
	// scope for every fixture instance, so scoped services are per test.
	// This is the default for auto-wired descriptors.
	Scoped

	// Transient specifies that a new instance is created for each scope that
	// requests it. Within one scope the container caches it like Scoped.
	Transient
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Scoped:
		return "Scoped"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is one of the known values.
func (l Lifetime) IsValid() bool {
	return l >= Singleton && l <= Transient
}

// ParseLifetime parses a lifetime name, case-insensitively.
func ParseLifetime(s string) (Lifetime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "singleton":
		return Singleton, nil
	case "scoped":
		return Scoped, nil
	case "transient":
		return Transient, nil
	default:
		return 0, LifetimeError{Value: s}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, LifetimeError{Value: l}
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	parsed, err := ParseLifetime(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}
