package reactive

import (
	"fmt"
	"iter"
	"slices"

	"github.com/delaneyj/ripple/arrayevent"
	"github.com/delaneyj/ripple/graph"
)

// list is the read side shared by Collection and the derived views: the items,
// one vertex per position, a length vertex, a version vertex covering any
// change, and the event subscribers.
type list[T any] struct {
	lifecycle

	name  string
	items []T

	slots   []graph.Vertex
	length  graph.Vertex
	version graph.Vertex

	subs subscribers[arrayevent.Event[T]]

	// ensure brings a detached view up to date before a read.
	ensure func()
}

func (l *list[T]) init(e *Engine, owner any, name string, acquire func()) {
	l.name = name
	l.length = graph.NoVertex
	l.version = graph.NoVertex
	l.lifecycle.init(e, owner, acquire, l.detachVertices)
}

func (l *list[T]) refresh() {
	if l.ensure != nil {
		l.ensure()
	}
}

func (l *list[T]) trackSlot(i int) {
	if l.e.active() == nil {
		return
	}
	for len(l.slots) <= i {
		l.slots = append(l.slots, graph.NoVertex)
	}
	l.e.trackData(&l.slots[i], l.owner.(Retainable), func() string {
		return fmt.Sprintf("%s[%d]", l.name, i)
	})
}

func (l *list[T]) trackLength() {
	l.e.trackData(&l.length, l.owner.(Retainable), func() string {
		return l.name + ".length"
	})
}

func (l *list[T]) trackVersion() {
	l.e.trackData(&l.version, l.owner.(Retainable), func() string {
		return l.name
	})
}

// At returns the item at i, tracking only that position. It panics when i is
// out of range, like indexing a slice. An out of range read tracks the length
// instead.
func (l *list[T]) At(i int) T {
	l.refresh()
	if i < 0 || i >= len(l.items) {
		l.trackLength()
	} else {
		l.trackSlot(i)
	}
	return l.items[i]
}

func (l *list[T]) Len() int {
	l.refresh()
	l.trackLength()
	return len(l.items)
}

// All yields index and item pairs and depends on the whole list.
func (l *list[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		l.refresh()
		l.trackVersion()
		for i, item := range l.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Slice returns a copy of the items and depends on the whole list.
func (l *list[T]) Slice() []T {
	l.refresh()
	l.trackVersion()
	return slices.Clone(l.items)
}

// Peek returns a copy of the items without tracking.
func (l *list[T]) Peek() []T {
	l.refresh()
	return slices.Clone(l.items)
}

// Subscribe calls fn synchronously with every structural change, after it was
// applied.
func (l *list[T]) Subscribe(fn func(arrayevent.Event[T])) (unsubscribe func()) {
	l.refresh()
	return l.subs.add(fn)
}

func (l *list[T]) engine() *Engine {
	return l.e
}

// apply changes the items, marks the touched positions dirty and emits ev.
func (l *list[T]) apply(ev arrayevent.Event[T]) {
	oldLen := len(l.items)
	l.items = arrayevent.Apply(l.items, ev)
	newLen := len(l.items)

	from, to := touched(ev, oldLen, newLen)
	for i := from; i < to && i < len(l.slots); i++ {
		l.e.markDirty(l.slots[i])
	}
	if oldLen != newLen {
		l.e.markDirty(l.length)
	}
	l.e.markDirty(l.version)
	l.subs.emit(ev)
}

// reset replaces every item, as a view does when it re-attaches.
func (l *list[T]) reset(items []T) {
	oldLen := len(l.items)
	l.items = items
	for _, v := range l.slots {
		l.e.markDirty(v)
	}
	if oldLen != len(items) {
		l.e.markDirty(l.length)
	}
	l.e.markDirty(l.version)
}

func (l *list[T]) detachVertices() {
	slots := l.slots
	l.slots = nil
	for _, v := range slots {
		if v != graph.NoVertex {
			l.e.removeVertex(v)
		}
	}
	for _, v := range []*graph.Vertex{&l.length, &l.version} {
		if *v != graph.NoVertex {
			old := *v
			*v = graph.NoVertex
			l.e.removeVertex(old)
		}
	}
}

// touched is the range of positions whose item may differ after ev.
func touched[T any](ev arrayevent.Event[T], oldLen, newLen int) (from, to int) {
	switch ev.Kind {
	case arrayevent.KindSplice:
		if len(ev.Items) == ev.Count {
			return ev.Index, ev.Index + ev.Count
		}
		return ev.Index, max(oldLen, newLen)
	case arrayevent.KindMove:
		return min(ev.From, ev.To), max(ev.From, ev.To) + ev.Count
	case arrayevent.KindSort:
		from, to = ev.From+len(ev.Indexes), ev.From
		for k, idx := range ev.Indexes {
			if idx != ev.From+k {
				from = min(from, ev.From+k)
				to = max(to, ev.From+k+1)
			}
		}
		return from, to
	default:
		return 0, 0
	}
}

// Collection is an observable ordered list.
type Collection[T any] struct {
	list[T]

	cfg config[T]
}

func NewCollection[T any](e *Engine, items []T, opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{cfg: newConfig("collection", opts)}
	c.list.init(e, c, c.cfg.name, nil)
	c.items = slices.Clone(items)
	return c
}

func (c *Collection[T]) mutate(ev arrayevent.Event[T]) bool {
	if !c.e.canWrite(c) {
		return false
	}
	if err := arrayevent.Validate(ev, len(c.items)); err != nil {
		c.e.report(c, err)
		return false
	}
	c.apply(ev)
	return true
}

// Splice removes count items at i and inserts items there.
func (c *Collection[T]) Splice(i, count int, items ...T) {
	if count == 0 && len(items) == 0 {
		return
	}
	c.mutate(arrayevent.Splice(i, count, slices.Clone(items)...))
}

// Set replaces the item at i. Equal values are ignored.
func (c *Collection[T]) Set(i int, item T) {
	if i >= 0 && i < len(c.items) && c.cfg.equal(c.items[i], item) {
		return
	}
	c.Splice(i, 1, item)
}

func (c *Collection[T]) Push(items ...T) {
	c.Splice(len(c.items), 0, items...)
}

func (c *Collection[T]) Unshift(items ...T) {
	c.Splice(0, 0, items...)
}

func (c *Collection[T]) Pop() (T, bool) {
	var zero T
	n := len(c.items)
	if n == 0 {
		return zero, false
	}
	item := c.items[n-1]
	if !c.mutate(arrayevent.Splice[T](n-1, 1)) {
		return zero, false
	}
	return item, true
}

func (c *Collection[T]) Shift() (T, bool) {
	var zero T
	if len(c.items) == 0 {
		return zero, false
	}
	item := c.items[0]
	if !c.mutate(arrayevent.Splice[T](0, 1)) {
		return zero, false
	}
	return item, true
}

// Move cuts count items at from and re-inserts them so the first lands at to.
func (c *Collection[T]) Move(from, count, to int) {
	if count == 0 || from == to {
		return
	}
	c.mutate(arrayevent.Move[T](from, count, to))
}

// Sort stably sorts the items by cmp and emits a single SORT event.
func (c *Collection[T]) Sort(cmp func(a, b T) int) {
	indexes := make([]int, len(c.items))
	for i := range indexes {
		indexes[i] = i
	}
	slices.SortStableFunc(indexes, func(a, b int) int {
		return cmp(c.items[a], c.items[b])
	})
	c.permute(indexes)
}

func (c *Collection[T]) Reverse() {
	n := len(c.items)
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = n - 1 - i
	}
	c.permute(indexes)
}

func (c *Collection[T]) permute(indexes []int) {
	for k, idx := range indexes {
		if idx != k {
			c.mutate(arrayevent.Sort[T](0, indexes))
			return
		}
	}
}

func (c *Collection[T]) Clear() {
	c.Splice(0, len(c.items))
}
