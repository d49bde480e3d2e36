// Package arrayevent describes structural changes to ordered collections.
//
// An Event is one of three shapes:
//
//	SPLICE{Index, Count, Items}  remove Count items at Index, insert Items there
//	MOVE{From, Count, To}        cut [From, From+Count) and re-insert it at To
//	SORT{From, Indexes}          permute [From, From+len(Indexes))
//
// For MOVE, To is an index into the array after the cut. For SORT, Indexes[k]
// is the absolute index, before the sort, of the item that now lives at From+k.
package arrayevent

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindSplice Kind = iota
	KindMove
	KindSort
)

func (k Kind) String() string {
	switch k {
	case KindSplice:
		return "SPLICE"
	case KindMove:
		return "MOVE"
	case KindSort:
		return "SORT"
	default:
		return "InvalidKind"
	}
}

var ErrOutOfRange = errors.New("arrayevent: event out of range")

type Event[T any] struct {
	Kind Kind

	// SPLICE
	Index int
	Count int
	Items []T

	// MOVE (Count is shared with SPLICE)
	From int
	To   int

	// SORT (From is shared with MOVE)
	Indexes []int
}

func Splice[T any](index, count int, items ...T) Event[T] {
	return Event[T]{Kind: KindSplice, Index: index, Count: count, Items: items}
}

func Move[T any](from, count, to int) Event[T] {
	return Event[T]{Kind: KindMove, From: from, Count: count, To: to}
}

func Sort[T any](from int, indexes []int) Event[T] {
	return Event[T]{Kind: KindSort, From: from, Indexes: indexes}
}

func (ev Event[T]) String() string {
	switch ev.Kind {
	case KindSplice:
		return fmt.Sprintf("SPLICE{index:%d,count:%d,items:%v}", ev.Index, ev.Count, ev.Items)
	case KindMove:
		return fmt.Sprintf("MOVE{from:%d,count:%d,to:%d}", ev.From, ev.Count, ev.To)
	case KindSort:
		return fmt.Sprintf("SORT{from:%d,indexes:%v}", ev.From, ev.Indexes)
	default:
		return ev.Kind.String()
	}
}

// Validate reports whether ev can be applied to an array of the given length.
func Validate[T any](ev Event[T], length int) error {
	switch ev.Kind {
	case KindSplice:
		if ev.Index < 0 || ev.Count < 0 || ev.Index+ev.Count > length {
			return fmt.Errorf("%w: %s on length %d", ErrOutOfRange, ev, length)
		}
	case KindMove:
		if ev.From < 0 || ev.Count < 0 || ev.From+ev.Count > length ||
			ev.To < 0 || ev.To+ev.Count > length {
			return fmt.Errorf("%w: %s on length %d", ErrOutOfRange, ev, length)
		}
	case KindSort:
		end := ev.From + len(ev.Indexes)
		if ev.From < 0 || end > length {
			return fmt.Errorf("%w: %s on length %d", ErrOutOfRange, ev, length)
		}
		seen := make([]bool, len(ev.Indexes))
		for _, idx := range ev.Indexes {
			if idx < ev.From || idx >= end || seen[idx-ev.From] {
				return fmt.Errorf("%w: %s is not a permutation", ErrOutOfRange, ev)
			}
			seen[idx-ev.From] = true
		}
	default:
		return fmt.Errorf("arrayevent: unknown kind %d", ev.Kind)
	}
	return nil
}

// Apply returns items with ev applied. The input slice may be reused.
func Apply[T any](items []T, ev Event[T]) []T {
	switch ev.Kind {
	case KindSplice:
		tail := append([]T(nil), items[ev.Index+ev.Count:]...)
		items = append(items[:ev.Index], ev.Items...)
		return append(items, tail...)
	case KindMove:
		moved := append([]T(nil), items[ev.From:ev.From+ev.Count]...)
		items = append(items[:ev.From], items[ev.From+ev.Count:]...)
		tail := append([]T(nil), items[ev.To:]...)
		items = append(items[:ev.To], moved...)
		return append(items, tail...)
	case KindSort:
		old := append([]T(nil), items[ev.From:ev.From+len(ev.Indexes)]...)
		for k, idx := range ev.Indexes {
			items[ev.From+k] = old[idx-ev.From]
		}
		return items
	default:
		panic(fmt.Sprintf("arrayevent: unknown kind %d", ev.Kind))
	}
}

// MapItems translates the payload of ev. Index bookkeeping is unchanged, so this
// is only valid for one-to-one derivations.
func MapItems[T, U any](ev Event[T], fn func(T) U) Event[U] {
	out := Event[U]{
		Kind:    ev.Kind,
		Index:   ev.Index,
		Count:   ev.Count,
		From:    ev.From,
		To:      ev.To,
		Indexes: ev.Indexes,
	}
	if len(ev.Items) > 0 {
		out.Items = make([]U, len(ev.Items))
		for i, item := range ev.Items {
			out.Items[i] = fn(item)
		}
	}
	return out
}

// RemapIndex reports where the item that was at index i lives after ev.
// ok is false when the item was removed by a splice.
func RemapIndex[T any](i int, ev Event[T]) (int, bool) {
	switch ev.Kind {
	case KindSplice:
		switch {
		case i < ev.Index:
			return i, true
		case i < ev.Index+ev.Count:
			return -1, false
		default:
			return i - ev.Count + len(ev.Items), true
		}
	case KindMove:
		if i >= ev.From && i < ev.From+ev.Count {
			return ev.To + (i - ev.From), true
		}
		j := i
		if j >= ev.From+ev.Count {
			j -= ev.Count
		}
		if j >= ev.To {
			j += ev.Count
		}
		return j, true
	case KindSort:
		if i < ev.From || i >= ev.From+len(ev.Indexes) {
			return i, true
		}
		for k, idx := range ev.Indexes {
			if idx == i {
				return ev.From + k, true
			}
		}
		return -1, false
	default:
		return -1, false
	}
}
