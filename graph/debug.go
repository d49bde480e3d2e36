package graph

import (
	"cmp"
	"slices"

	"github.com/cespare/xxhash/v2"
)

type VertexInfo struct {
	ID    Vertex
	Index int
	Label string
	Kind  Kind
	Dirty bool
	// Cycle is the position of the vertex's group in Snapshot.Cycles, or -1.
	Cycle int
}

type Edge struct {
	From, To Vertex
}

// Snapshot is a point-in-time copy of the graph for tooling. Its shape is not a
// stability contract.
type Snapshot struct {
	Vertices []VertexInfo
	Edges    []Edge
	Cycles   [][]Vertex
	Cursor   int
}

// DebugGetGraph returns a snapshot with vertices in slot order and edges sorted.
func (g *Graph) DebugGetGraph() *Snapshot {
	g.revalidateStale()
	s := &Snapshot{Cursor: g.cursor}
	groups := map[*cycleGroup]int{}
	for _, v := range g.Vertices() {
		vx := &g.vertices[v]
		info := VertexInfo{
			ID:    v,
			Index: vx.index,
			Label: g.opts.labeler(v),
			Kind:  g.Kind(v),
			Dirty: vx.flags&fDirty != 0,
			Cycle: -1,
		}
		if c := vx.cycle; c != nil {
			id, ok := groups[c]
			if !ok {
				id = len(s.Cycles)
				groups[c] = id
				s.Cycles = append(s.Cycles, g.sortedMembers(c))
			}
			info.Cycle = id
		}
		s.Vertices = append(s.Vertices, info)

		for _, w := range vx.forward.ToSlice() {
			s.Edges = append(s.Edges, Edge{From: v, To: w})
		}
	}
	slices.SortFunc(s.Edges, func(a, b Edge) int {
		if c := cmp.Compare(g.vertices[a.From].index, g.vertices[b.From].index); c != 0 {
			return c
		}
		return cmp.Compare(g.vertices[a.To].index, g.vertices[b.To].index)
	})
	return s
}

// Debug renders the graph in Graphviz DOT.
func (g *Graph) Debug() string {
	return Dot(g.DebugGetGraph())
}

// DebugSubscribe calls fn with the DOT rendering now and after every Process
// pass that changed it. The returned function unsubscribes.
func (g *Graph) DebugSubscribe(fn func(dot string)) (unsubscribe func()) {
	id := g.debugNextID
	g.debugNextID++
	g.debugSubs[id] = fn

	dot := g.Debug()
	g.debugHash = xxhash.Sum64String(dot)
	fn(dot)

	return func() {
		delete(g.debugSubs, id)
	}
}

func (g *Graph) notifyDebug() {
	if len(g.debugSubs) == 0 {
		return
	}
	dot := g.Debug()
	h := xxhash.Sum64String(dot)
	if h == g.debugHash {
		return
	}
	g.debugHash = h

	ids := make([]int, 0, len(g.debugSubs))
	for id := range g.debugSubs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := g.debugSubs[id]; ok {
			fn(dot)
		}
	}
}
