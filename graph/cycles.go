package graph

import (
	"math"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

type cycleGroup struct {
	lowerBound, upperBound int
	members                mapset.Set[Vertex]
	// stale is set when an internal edge was removed; the group may no longer
	// be strongly connected.
	stale bool
}

// CycleInfo describes the group a vertex shares with every vertex it can both
// reach and be reached from.
type CycleInfo struct {
	LowerBound int
	UpperBound int
	Vertices   []Vertex
}

// Cycle reports the cycle group of v, if any. Vertices are in slot order.
func (g *Graph) Cycle(v Vertex) (CycleInfo, bool) {
	g.mustVertex(v, "Cycle")
	g.revalidateStale()
	c := g.vertices[v].cycle
	if c == nil {
		return CycleInfo{}, false
	}
	return CycleInfo{
		LowerBound: c.lowerBound,
		UpperBound: c.upperBound,
		Vertices:   g.sortedMembers(c),
	}, true
}

// MarkVertexCycleInformed records that the owner of v has seen its cycle
// membership. A CYCLE action is not delivered to v again until the membership
// of its group changes.
func (g *Graph) MarkVertexCycleInformed(v Vertex) {
	g.mustVertex(v, "MarkVertexCycleInformed").flags |= fCycleInformed
}

func (g *Graph) sortedMembers(c *cycleGroup) []Vertex {
	members := c.members.ToSlice()
	slices.SortFunc(members, func(a, b Vertex) int {
		return g.vertices[a].index - g.vertices[b].index
	})
	return members
}

// formCycle merges members (already laid out in consecutive occupied slots)
// into a fresh group. Groups the members belonged to are absorbed whole.
func (g *Graph) formCycle(members []Vertex) {
	c := &cycleGroup{members: mapset.NewThreadUnsafeSet(members...)}
	for _, v := range members {
		vx := &g.vertices[v]
		if old := vx.cycle; old != nil && old != c {
			g.staleGroups.Remove(old)
		}
		vx.cycle = c
		vx.flags &^= fCycleInformed
		g.markDirty(v)
	}
	g.boundGroup(c)
}

func (g *Graph) boundGroup(c *cycleGroup) {
	c.lowerBound, c.upperBound = math.MaxInt, math.MinInt
	c.members.Each(func(v Vertex) bool {
		idx := g.vertices[v].index
		c.lowerBound = min(c.lowerBound, idx)
		c.upperBound = max(c.upperBound, idx)
		return false
	})
}

func (g *Graph) refreshBounds(vs []Vertex) {
	seen := map[*cycleGroup]struct{}{}
	for _, v := range vs {
		c := g.vertices[v].cycle
		if c == nil {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		g.boundGroup(c)
	}
}

func (g *Graph) revalidateStale() {
	if g.staleGroups.Cardinality() == 0 {
		return
	}
	for _, c := range g.staleGroups.ToSlice() {
		g.revalidate(c)
	}
}

// revalidate re-splits a group into its strongly connected components and lays
// them out in topological order over the slots the group occupied. Members whose
// membership changed are marked dirty.
func (g *Graph) revalidate(c *cycleGroup) {
	c.stale = false
	g.staleGroups.Remove(c)

	members := g.sortedMembers(c)
	comps := g.components(members, c.members)
	if len(comps) == 1 && (len(members) > 1 || g.vertices[members[0]].forward.Contains(members[0])) {
		return
	}

	slots := make([]int, len(members))
	for i, v := range members {
		slots[i] = g.vertices[v].index
	}
	k := 0
	for _, comp := range comps {
		slices.SortFunc(comp, func(a, b Vertex) int {
			return g.vertices[a].index - g.vertices[b].index
		})
		for _, v := range comp {
			g.place(v, slots[k])
			k++
		}
	}

	for _, comp := range comps {
		cyclic := len(comp) > 1 || g.vertices[comp[0]].forward.Contains(comp[0])
		if cyclic {
			nc := &cycleGroup{members: mapset.NewThreadUnsafeSet(comp...)}
			for _, v := range comp {
				vx := &g.vertices[v]
				vx.cycle = nc
				vx.flags &^= fCycleInformed
				g.markDirty(v)
			}
			g.boundGroup(nc)
			continue
		}
		v := comp[0]
		vx := &g.vertices[v]
		vx.cycle = nil
		vx.flags &^= fCycleInformed
		g.markDirty(v)
	}
	g.dirty.fix()
}

// components runs Tarjan's algorithm restricted to the vertices in set and
// returns the strongly connected components in topological order.
func (g *Graph) components(roots []Vertex, set mapset.Set[Vertex]) [][]Vertex {
	type frame struct {
		v    Vertex
		succ []Vertex
		next int
	}
	var (
		index   = map[Vertex]int{}
		low     = map[Vertex]int{}
		onStack = map[Vertex]bool{}
		stack   []Vertex
		comps   [][]Vertex
		counter int
	)
	succ := func(v Vertex) []Vertex {
		var out []Vertex
		g.vertices[v].forward.Each(func(w Vertex) bool {
			if set.Contains(w) {
				out = append(out, w)
			}
			return false
		})
		return out
	}
	visit := func(v Vertex) frame {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		return frame{v: v, succ: succ(v)}
	}

	for _, root := range roots {
		if _, ok := index[root]; ok {
			continue
		}
		calls := []frame{visit(root)}
		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			if top.next < len(top.succ) {
				w := top.succ[top.next]
				top.next++
				if _, ok := index[w]; !ok {
					calls = append(calls, visit(w))
				} else if onStack[w] {
					low[top.v] = min(low[top.v], index[w])
				}
				continue
			}

			v := top.v
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				p := calls[len(calls)-1].v
				low[p] = min(low[p], low[v])
			}
			if low[v] == index[v] {
				var comp []Vertex
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				comps = append(comps, comp)
			}
		}
	}
	slices.Reverse(comps)
	return comps
}
