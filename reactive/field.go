package reactive

import "github.com/delaneyj/ripple/graph"

// Field is a single observable value.
type Field[T any] struct {
	lifecycle

	cfg   config[T]
	value T
	v     graph.Vertex
}

func NewField[T any](e *Engine, value T, opts ...Option[T]) *Field[T] {
	f := &Field[T]{
		cfg:   newConfig("field", opts),
		value: value,
		v:     graph.NoVertex,
	}
	f.lifecycle.init(e, f, nil, f.detach)
	return f
}

// Get returns the value and records it as a dependency of the active
// calculation.
func (f *Field[T]) Get() T {
	f.e.trackData(&f.v, f, f.label)
	return f.value
}

// Peek returns the value without recording a dependency.
func (f *Field[T]) Peek() T {
	return f.value
}

func (f *Field[T]) Set(value T) {
	if !f.e.canWrite(f) || f.cfg.equal(f.value, value) {
		return
	}
	f.value = value
	f.e.markDirty(f.v)
}

func (f *Field[T]) Update(fn func(T) T) {
	f.Set(fn(f.value))
}

func (f *Field[T]) label() string {
	return f.cfg.name
}

func (f *Field[T]) detach() {
	if f.v == graph.NoVertex {
		return
	}
	v := f.v
	f.v = graph.NoVertex
	f.e.removeVertex(v)
}
