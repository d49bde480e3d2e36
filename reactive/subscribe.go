package reactive

import "slices"

// subscribers delivers events in subscription order. Unsubscribing from inside
// a callback is allowed.
type subscribers[E any] struct {
	nextID int
	ids    []int
	fns    map[int]func(E)
}

func (s *subscribers[E]) add(fn func(E)) (unsubscribe func()) {
	if s.fns == nil {
		s.fns = map[int]func(E){}
	}
	id := s.nextID
	s.nextID++
	s.ids = append(s.ids, id)
	s.fns[id] = fn

	return func() {
		if _, ok := s.fns[id]; !ok {
			return
		}
		delete(s.fns, id)
		if i := slices.Index(s.ids, id); i >= 0 {
			s.ids = slices.Delete(s.ids, i, i+1)
		}
	}
}

func (s *subscribers[E]) len() int {
	return len(s.fns)
}

func (s *subscribers[E]) emit(ev E) {
	for _, id := range slices.Clone(s.ids) {
		if fn, ok := s.fns[id]; ok {
			fn(ev)
		}
	}
}
