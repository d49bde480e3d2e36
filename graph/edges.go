package graph

import (
	"iter"

	mapset "github.com/deckarep/golang-set/v2"
)

// AddEdge records that to depends on from. Adding an existing edge is a no-op.
// When the edge closes a cycle the strongly connected vertices are merged into
// one group and marked dirty so the next Process pass reports them.
func (g *Graph) AddEdge(from, to Vertex) {
	f := g.mustVertex(from, "AddEdge")
	g.mustVertex(to, "AddEdge")
	if f.forward.Contains(to) {
		return
	}
	g.revalidateStale()

	f = &g.vertices[from]
	t := &g.vertices[to]
	f.forward.Add(to)
	t.reverse.Add(from)
	g.edges++

	if from == to {
		if f.cycle == nil {
			g.formCycle([]Vertex{from})
		}
		return
	}
	if f.cycle != nil && f.cycle == t.cycle {
		return
	}

	lb, ub := g.lower(to), g.upper(from)
	if ub < lb {
		return
	}
	g.reorder(from, to, lb, ub)
}

// reorder restores a valid order for the new edge from → to inside the window
// [lb, ub]. The window is laid out as: vertices that reach from, the new cycle
// (if any), the untouched vertices, and the vertices reachable from to.
func (g *Graph) reorder(from, to Vertex, lb, ub int) {
	fwd := g.search(to, ub, true)
	bwd := g.search(from, lb, false)

	var slots []int
	var bOnly, scc, untouched, fOnly []Vertex
	for i := lb; i <= ub; i++ {
		v := g.order[i]
		if v == NoVertex {
			continue
		}
		slots = append(slots, i)
		inF, inB := fwd.Contains(v), bwd.Contains(v)
		switch {
		case inF && inB:
			scc = append(scc, v)
		case inB:
			bOnly = append(bOnly, v)
		case inF:
			fOnly = append(fOnly, v)
		default:
			untouched = append(untouched, v)
		}
	}

	layout := make([]Vertex, 0, len(slots))
	layout = append(layout, bOnly...)
	layout = append(layout, scc...)
	layout = append(layout, untouched...)
	layout = append(layout, fOnly...)
	for i, v := range layout {
		g.place(v, slots[i])
	}

	if len(scc) > 0 {
		g.formCycle(scc)
	}
	g.refreshBounds(layout)
	g.dirty.fix()
}

// search walks from start along forward (or reverse) edges, only entering
// vertices whose slot is <= bound (or >= bound for reverse walks).
func (g *Graph) search(start Vertex, bound int, forward bool) mapset.Set[Vertex] {
	seen := mapset.NewThreadUnsafeSet(start)
	stack := []Vertex{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next := g.vertices[v].reverse
		if forward {
			next = g.vertices[v].forward
		}
		next.Each(func(w Vertex) bool {
			idx := g.vertices[w].index
			if (forward && idx <= bound) || (!forward && idx >= bound) {
				if seen.Add(w) {
					stack = append(stack, w)
				}
			}
			return false
		})
	}
	return seen
}

// RemoveEdge drops the edge from → to. The order is left as is: it stays valid
// for the remaining edges. Removing an edge inside a cycle group marks the group
// for re-splitting.
func (g *Graph) RemoveEdge(from, to Vertex) {
	f := g.mustVertex(from, "RemoveEdge")
	t := g.mustVertex(to, "RemoveEdge")
	if !f.forward.Contains(to) {
		return
	}
	f.forward.Remove(to)
	t.reverse.Remove(from)
	g.edges--

	if f.cycle != nil && f.cycle == t.cycle {
		f.cycle.stale = true
		g.staleGroups.Add(f.cycle)
	}
}

func (g *Graph) HasEdge(from, to Vertex) bool {
	if !g.HasVertex(from) || !g.HasVertex(to) {
		return false
	}
	return g.vertices[from].forward.Contains(to)
}

// GetForwardDependencies yields the direct dependents of v. The sequence is
// restartable; it reflects the edges present when iteration starts.
func (g *Graph) GetForwardDependencies(v Vertex) iter.Seq[Vertex] {
	g.mustVertex(v, "GetForwardDependencies")
	return g.adjacent(v, true)
}

// GetReverseDependencies yields the vertices v directly depends on.
func (g *Graph) GetReverseDependencies(v Vertex) iter.Seq[Vertex] {
	g.mustVertex(v, "GetReverseDependencies")
	return g.adjacent(v, false)
}

func (g *Graph) adjacent(v Vertex, forward bool) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		if !g.HasVertex(v) {
			return
		}
		set := g.vertices[v].reverse
		if forward {
			set = g.vertices[v].forward
		}
		for _, w := range set.ToSlice() {
			if !yield(w) {
				return
			}
		}
	}
}
