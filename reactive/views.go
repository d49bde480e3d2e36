package reactive

import (
	"slices"
	"sort"

	"github.com/delaneyj/ripple/arrayevent"
)

// Source is anything a view can be derived from: a Collection or another view.
type Source[T any] interface {
	Retainable
	Subscribe(fn func(arrayevent.Event[T])) (unsubscribe func())
	Peek() []T
	engine() *Engine
}

// View is a read-only collection derived from a Source. It follows the
// source's events and updates its own items incrementally.
//
// A view is attached (subscribed to and retaining its source) from creation
// until its retain count drops to zero. A detached view re-attaches, rebuilding
// its items, on the next read or retain.
type View[T any] struct {
	list[T]

	attached bool
	attach   func()
	detach   func()
}

func newView[T any](e *Engine, name string, attach func() []T, detach func()) *View[T] {
	v := &View[T]{}
	v.attach = func() {
		v.attached = true
		v.reset(attach())
	}
	v.detach = detach
	v.list.init(e, v, name, v.ensureAttached)
	v.ensure = v.ensureAttached
	v.teardown = v.release
	v.ensureAttached()
	return v
}

func (v *View[T]) ensureAttached() {
	if !v.attached {
		v.attach()
	}
}

func (v *View[T]) release() {
	if !v.attached {
		return
	}
	v.attached = false
	v.detach()
	v.detachVertices()
}

// MapView maps every item of src through fn. fn runs untracked.
func MapView[T, U any](src Source[T], fn func(T) U) *View[U] {
	e := src.engine()
	var (
		view  *View[U]
		unsub func()
	)
	mapItem := func(item T) (out U) {
		e.Untracked(func() {
			out = fn(item)
		})
		return out
	}
	attach := func() []U {
		unsub = src.Subscribe(func(ev arrayevent.Event[T]) {
			view.apply(arrayevent.MapItems(ev, mapItem))
		})
		src.Retain()
		items := src.Peek()
		out := make([]U, len(items))
		for i, item := range items {
			out[i] = mapItem(item)
		}
		return out
	}
	detach := func() {
		unsub()
		src.Release()
	}
	view = newView(e, "map", attach, detach)
	return view
}

// FilterView keeps the items of src for which keep returns true, in source
// order. keep runs untracked.
func FilterView[T any](src Source[T], keep func(T) bool) *View[T] {
	return flatMapView(src, "filter", func(item T) []T {
		if keep(item) {
			return []T{item}
		}
		return nil
	})
}

// FlatMapView replaces every item of src by the items fn returns for it. fn
// runs untracked.
func FlatMapView[T, U any](src Source[T], fn func(T) []U) *View[U] {
	return flatMapView(src, "flatMap", fn)
}

// flatMapper keeps, per source position, how many output items it produced.
// The output index of a source position is the sum of the counts before it.
type flatMapper[T, U any] struct {
	e      *Engine
	fn     func(T) []U
	view   *View[U]
	counts []int
}

func flatMapView[T, U any](src Source[T], name string, fn func(T) []U) *View[U] {
	fm := &flatMapper[T, U]{e: src.engine(), fn: fn}
	var unsub func()
	attach := func() []U {
		unsub = src.Subscribe(fm.handle)
		src.Retain()
		items := src.Peek()
		fm.counts = make([]int, len(items))
		var out []U
		for i, item := range items {
			produced := fm.call(item)
			fm.counts[i] = len(produced)
			out = append(out, produced...)
		}
		return out
	}
	detach := func() {
		unsub()
		src.Release()
		fm.counts = nil
	}
	fm.view = newView(fm.e, name, attach, detach)
	return fm.view
}

func (fm *flatMapper[T, U]) call(item T) (out []U) {
	fm.e.Untracked(func() {
		out = fm.fn(item)
	})
	return out
}

func (fm *flatMapper[T, U]) offset(i int) int {
	n := 0
	for _, c := range fm.counts[:i] {
		n += c
	}
	return n
}

func (fm *flatMapper[T, U]) handle(ev arrayevent.Event[T]) {
	switch ev.Kind {
	case arrayevent.KindSplice:
		start := fm.offset(ev.Index)
		removed := fm.offset(ev.Index+ev.Count) - start
		counts := make([]int, len(ev.Items))
		var out []U
		for k, item := range ev.Items {
			produced := fm.call(item)
			counts[k] = len(produced)
			out = append(out, produced...)
		}
		fm.counts = slices.Replace(fm.counts, ev.Index, ev.Index+ev.Count, counts...)
		if removed > 0 || len(out) > 0 {
			fm.view.apply(arrayevent.Splice(start, removed, out...))
		}

	case arrayevent.KindMove:
		start := fm.offset(ev.From)
		n := fm.offset(ev.From+ev.Count) - start
		fm.counts = arrayevent.Apply(fm.counts, arrayevent.Move[int](ev.From, ev.Count, ev.To))
		to := fm.offset(ev.To)
		if n > 0 && start != to {
			fm.view.apply(arrayevent.Move[U](start, n, to))
		}

	case arrayevent.KindSort:
		base := fm.offset(ev.From)
		starts := make([]int, len(ev.Indexes))
		at := base
		for k := range ev.Indexes {
			starts[k] = at
			at += fm.counts[ev.From+k]
		}
		var indexes []int
		counts := make([]int, len(ev.Indexes))
		for k, old := range ev.Indexes {
			j := old - ev.From
			counts[k] = fm.counts[old]
			for x := 0; x < counts[k]; x++ {
				indexes = append(indexes, starts[j]+x)
			}
		}
		copy(fm.counts[ev.From:], counts)
		for k, idx := range indexes {
			if idx != base+k {
				fm.view.apply(arrayevent.Sort[U](base, indexes))
				return
			}
		}
	}
}

type sortedEntry[T any] struct {
	value T
}

// sorter keeps the view sorted by binary-search insertion. Source moves and
// sorts only reorder its positional bookkeeping; the view does not change.
type sorter[T any] struct {
	cmp      func(a, b T) int
	view     *View[T]
	bySource []*sortedEntry[T]
	sorted   []*sortedEntry[T]
}

// SortedView keeps the items of src ordered by cmp. Items comparing equal
// keep the order they were inserted in.
func SortedView[T any](src Source[T], cmp func(a, b T) int) *View[T] {
	s := &sorter[T]{cmp: cmp}
	var unsub func()
	attach := func() []T {
		unsub = src.Subscribe(s.handle)
		src.Retain()
		items := src.Peek()
		s.bySource = make([]*sortedEntry[T], len(items))
		for i, item := range items {
			s.bySource[i] = &sortedEntry[T]{value: item}
		}
		s.sorted = slices.Clone(s.bySource)
		slices.SortStableFunc(s.sorted, func(a, b *sortedEntry[T]) int {
			return cmp(a.value, b.value)
		})
		out := make([]T, len(s.sorted))
		for i, en := range s.sorted {
			out[i] = en.value
		}
		return out
	}
	detach := func() {
		unsub()
		src.Release()
		s.bySource, s.sorted = nil, nil
	}
	s.view = newView(src.engine(), "sorted", attach, detach)
	return s.view
}

// insertAt is the position after every entry comparing less or equal to value.
func (s *sorter[T]) insertAt(value T) int {
	return sort.Search(len(s.sorted), func(i int) bool {
		return s.cmp(s.sorted[i].value, value) > 0
	})
}

func (s *sorter[T]) position(en *sortedEntry[T]) int {
	i := sort.Search(len(s.sorted), func(i int) bool {
		return s.cmp(s.sorted[i].value, en.value) >= 0
	})
	for ; i < len(s.sorted); i++ {
		if s.sorted[i] == en {
			return i
		}
	}
	return slices.Index(s.sorted, en)
}

func (s *sorter[T]) handle(ev arrayevent.Event[T]) {
	if ev.Kind != arrayevent.KindSplice {
		s.bySource = arrayevent.Apply(s.bySource, arrayevent.MapItems(ev, func(T) *sortedEntry[T] {
			return nil
		}))
		return
	}

	for _, en := range s.bySource[ev.Index : ev.Index+ev.Count] {
		pos := s.position(en)
		s.sorted = slices.Delete(s.sorted, pos, pos+1)
		s.view.apply(arrayevent.Splice[T](pos, 1))
	}
	added := make([]*sortedEntry[T], len(ev.Items))
	for k, item := range ev.Items {
		en := &sortedEntry[T]{value: item}
		added[k] = en
		pos := s.insertAt(item)
		s.sorted = slices.Insert(s.sorted, pos, en)
		s.view.apply(arrayevent.Splice(pos, 0, item))
	}
	s.bySource = slices.Replace(s.bySource, ev.Index, ev.Index+ev.Count, added...)
}
