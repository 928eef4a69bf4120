package datatypes

import (
	"cmp"
	"fmt"

	"library/cvrdt/communication"
)

type config struct {
	tags       communication.TagSource
	clock      communication.Clock
	valueOrder func(a, b any) int
}

type Option func(*config)

// WithTagSource replaces the UUID tag source of an ORSet.
func WithTagSource(src communication.TagSource) Option {
	return func(c *config) { c.tags = src }
}

// WithClock replaces the Lamport clock an LWWMap stamps local writes with.
func WithClock(clock communication.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithValueOrder sets the last tie-break of an LWWMap, used when two
// entries share both timestamp and writer. It must be a total order
// and must agree on every replica.
func WithValueOrder(order func(a, b any) int) Option {
	return func(c *config) { c.valueOrder = order }
}

func newConfig(opts []Option) *config {
	c := &config{
		tags:       communication.UUIDTags{},
		clock:      &communication.LamportClock{},
		valueOrder: digestOrder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// digestOrder compares the dynamic type and Go-syntax rendering of two
// values. fmt prints map keys sorted, so equal values render equally,
// and values of different types never do.
func digestOrder(a, b any) int {
	return cmp.Compare(fmt.Sprintf("%T:%#v", a, a), fmt.Sprintf("%T:%#v", b, b))
}
