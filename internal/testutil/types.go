package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Common test errors
var (
	ErrTest     = errors.New("test error")
	ErrDisposal = errors.New("disposal error")
	ErrStart    = errors.New("start error")
)

// Clock is a service interface with one implementation.
type Clock interface {
	Now() time.Time
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time { return c.At }

// NewFixedClock creates a FixedClock at the Unix epoch.
func NewFixedClock() *FixedClock {
	return &FixedClock{At: time.Unix(0, 0).UTC()}
}

// Greeter is a service interface with several implementations.
type Greeter interface {
	Greet(name string) string
}

type EnglishGreeter struct{}

func (EnglishGreeter) Greet(name string) string { return "hello " + name }

func NewEnglishGreeter() *EnglishGreeter { return &EnglishGreeter{} }

type SpanishGreeter struct{}

func (SpanishGreeter) Greet(name string) string { return "hola " + name }

func NewSpanishGreeter() *SpanishGreeter { return &SpanishGreeter{} }

type FrenchGreeter struct{}

func (FrenchGreeter) Greet(name string) string { return "bonjour " + name }

func NewFrenchGreeter() *FrenchGreeter { return &FrenchGreeter{} }

// OrderStore is a disposable store with a per-instance ID.
type OrderStore struct {
	ID     string
	Clock  Clock
	closed atomic.Bool

	mu     sync.Mutex
	orders []string
}

// NewOrderStore creates an OrderStore.
func NewOrderStore(clock Clock) *OrderStore {
	return &OrderStore{ID: uuid.NewString(), Clock: clock}
}

func (s *OrderStore) Put(order string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
}

func (s *OrderStore) Orders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.orders...)
}

func (s *OrderStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *OrderStore) Closed() bool { return s.closed.Load() }

// OrderService depends on the store, a greeter and the baseline logger.
type OrderService struct {
	Store   *OrderStore
	Greeter Greeter
	Logger  zerolog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(store *OrderStore, greeter Greeter, logger zerolog.Logger) *OrderService {
	return &OrderService{Store: store, Greeter: greeter, Logger: logger}
}

func (s *OrderService) Place(ctx context.Context, customer string) string {
	order := s.Greeter.Greet(customer)
	s.Store.Put(order)
	return order
}

// OrderTests is a fixture with resolved services and a simple parameter.
// Greeters come first so the collection request sees every implementation.
type OrderTests struct {
	Greeters []Greeter
	Service  *OrderService
	Retries  int
}

// NewOrderTests creates the fixture.
func NewOrderTests(greeters []Greeter, svc *OrderService, retries int) *OrderTests {
	return &OrderTests{Greeters: greeters, Service: svc, Retries: retries}
}

// Broken has a dependency that nothing implements.
type Broken struct{}

type Missing interface {
	Missing()
}

func NewBroken(Missing) *Broken { return &Broken{} }

// FailingCloser reports ErrDisposal on Close.
type FailingCloser struct{}

func NewFailingCloser() *FailingCloser { return &FailingCloser{} }

func (*FailingCloser) Close() error { return ErrDisposal }
