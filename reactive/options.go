package reactive

import "reflect"

type config[T any] struct {
	name     string
	equal    func(a, b T) bool
	fallback func(err error) T
}

// Option configures a Calc, Field, Model or Collection holding values of type T.
type Option[T any] func(*config[T])

// WithName labels the vertices of the object in debug output and errors.
func WithName[T any](name string) Option[T] {
	return func(c *config[T]) {
		c.name = name
	}
}

// WithEqual replaces reflect.DeepEqual as the change test. Writes and results
// equal to the current value do not propagate.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(c *config[T]) {
		if equal != nil {
			c.equal = equal
		}
	}
}

// WithFallback supplies the value a calculation takes when it fails or sits in
// a cycle. With a fallback, Value does not panic.
func WithFallback[T any](fn func(err error) T) Option[T] {
	return func(c *config[T]) {
		c.fallback = fn
	}
}

func newConfig[T any](kind string, opts []Option[T]) config[T] {
	c := config[T]{
		name: kind,
		equal: func(a, b T) bool {
			return reflect.DeepEqual(a, b)
		},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
