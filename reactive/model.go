package reactive

import (
	"fmt"
	"slices"

	"github.com/delaneyj/ripple/graph"
)

type ModelEventKind uint8

const (
	ModelSet ModelEventKind = iota
	ModelDelete
)

func (k ModelEventKind) String() string {
	switch k {
	case ModelSet:
		return "SET"
	case ModelDelete:
		return "DELETE"
	default:
		return "InvalidModelEventKind"
	}
}

type ModelEvent[K comparable, V any] struct {
	Kind  ModelEventKind
	Key   K
	Value V
}

// Model is an observable keyed object. Every key read by a calculation gets
// its own vertex, so writing one key only reaches the calculations that read
// that key. A separate keys vertex covers the key set.
type Model[K comparable, V any] struct {
	lifecycle

	cfg   config[V]
	data  map[K]V
	order []K

	vertices map[K]graph.Vertex
	keysV    graph.Vertex

	subs subscribers[ModelEvent[K, V]]
}

// NewModel copies initial. Keys() lists initial keys in map iteration order,
// then keys in the order they were first set.
func NewModel[K comparable, V any](e *Engine, initial map[K]V, opts ...Option[V]) *Model[K, V] {
	m := &Model[K, V]{
		cfg:      newConfig("model", opts),
		data:     make(map[K]V, len(initial)),
		vertices: map[K]graph.Vertex{},
		keysV:    graph.NoVertex,
	}
	for k, v := range initial {
		m.data[k] = v
		m.order = append(m.order, k)
	}
	m.lifecycle.init(e, m, nil, m.detach)
	return m
}

func (m *Model[K, V]) trackKey(k K) {
	if m.e.active() == nil {
		return
	}
	v, ok := m.vertices[k]
	if !ok {
		v = graph.NoVertex
	}
	m.e.trackData(&v, m, func() string {
		return fmt.Sprintf("%s.%v", m.cfg.name, k)
	})
	m.vertices[k] = v
}

func (m *Model[K, V]) trackKeys() {
	m.e.trackData(&m.keysV, m, func() string {
		return m.cfg.name + ".keys"
	})
}

func (m *Model[K, V]) Get(k K) V {
	m.trackKey(k)
	return m.data[k]
}

func (m *Model[K, V]) Lookup(k K) (V, bool) {
	m.trackKey(k)
	v, ok := m.data[k]
	return v, ok
}

func (m *Model[K, V]) Has(k K) bool {
	m.trackKey(k)
	_, ok := m.data[k]
	return ok
}

func (m *Model[K, V]) Keys() []K {
	m.trackKeys()
	return slices.Clone(m.order)
}

func (m *Model[K, V]) Len() int {
	m.trackKeys()
	return len(m.data)
}

func (m *Model[K, V]) Set(k K, v V) {
	if !m.e.canWrite(m) {
		return
	}
	old, ok := m.data[k]
	if ok && m.cfg.equal(old, v) {
		return
	}
	m.data[k] = v
	if !ok {
		m.order = append(m.order, k)
		m.e.markDirty(m.keysV)
	}
	m.markKey(k)
	m.subs.emit(ModelEvent[K, V]{Kind: ModelSet, Key: k, Value: v})
}

func (m *Model[K, V]) Delete(k K) {
	if !m.e.canWrite(m) {
		return
	}
	old, ok := m.data[k]
	if !ok {
		return
	}
	delete(m.data, k)
	if i := slices.Index(m.order, k); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	m.e.markDirty(m.keysV)
	m.markKey(k)
	m.subs.emit(ModelEvent[K, V]{Kind: ModelDelete, Key: k, Value: old})
}

func (m *Model[K, V]) markKey(k K) {
	if v, ok := m.vertices[k]; ok {
		m.e.markDirty(v)
	}
}

// Subscribe calls fn synchronously after every write that changed the model.
func (m *Model[K, V]) Subscribe(fn func(ModelEvent[K, V])) (unsubscribe func()) {
	return m.subs.add(fn)
}

func (m *Model[K, V]) detach() {
	for k, v := range m.vertices {
		delete(m.vertices, k)
		m.e.removeVertex(v)
	}
	if m.keysV != graph.NoVertex {
		v := m.keysV
		m.keysV = graph.NoVertex
		m.e.removeVertex(v)
	}
}
