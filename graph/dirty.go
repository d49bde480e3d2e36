package graph

import (
	"container/heap"
	"slices"
)

// dirtyQueue is a min-heap of dirty vertices keyed by slot. Entries whose
// vertex was cleared in the meantime are skipped when popped.
type dirtyQueue struct {
	g         *Graph
	items     []Vertex
	needsInit bool
}

func (q *dirtyQueue) Len() int { return len(q.items) }
func (q *dirtyQueue) Less(i, j int) bool {
	return q.g.vertices[q.items[i]].index < q.g.vertices[q.items[j]].index
}
func (q *dirtyQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *dirtyQueue) Push(x any)   { q.items = append(q.items, x.(Vertex)) }
func (q *dirtyQueue) Pop() any {
	n := len(q.items)
	v := q.items[n-1]
	q.items = q.items[:n-1]
	return v
}

// fix restores the heap after queued vertices changed slots.
func (q *dirtyQueue) fix() {
	if q.needsInit {
		heap.Init(q)
		q.needsInit = false
	}
}

func (q *dirtyQueue) remove(v Vertex) {
	q.fix()
	if i := slices.Index(q.items, v); i >= 0 {
		heap.Remove(q, i)
	}
	q.g.vertices[v].flags &^= fQueued
}

func (g *Graph) enqueue(v Vertex) {
	vx := &g.vertices[v]
	if vx.flags&fQueued != 0 {
		return
	}
	vx.flags |= fQueued
	g.dirty.fix()
	heap.Push(&g.dirty, v)
}

// MarkVertexDirty schedules v for the next Process pass. Marking a vertex that
// sits before the cursor of a running pass rewinds the cursor.
func (g *Graph) MarkVertexDirty(v Vertex) {
	g.mustVertex(v, "MarkVertexDirty")
	g.markDirty(v)
}

func (g *Graph) markDirty(v Vertex) {
	vx := &g.vertices[v]
	if vx.flags&fDirty != 0 {
		return
	}
	vx.flags |= fDirty
	g.dirtyCount++
	g.enqueue(v)

	if g.processing {
		if vx.index < g.cursor {
			g.cursor = vx.index
		}
		return
	}
	if g.dirtyCount == 1 && g.opts.onDirty != nil {
		g.opts.onDirty()
	}
}

func (g *Graph) ClearVertexDirty(v Vertex) {
	vx := g.mustVertex(v, "ClearVertexDirty")
	if vx.flags&fDirty == 0 {
		return
	}
	vx.flags &^= fDirty
	g.dirtyCount--
}

func (g *Graph) IsVertexDirty(v Vertex) bool {
	return g.HasVertex(v) && g.vertices[v].flags&fDirty != 0
}

func (g *Graph) DirtyCount() int {
	return g.dirtyCount
}

// Cursor is the slot the current (or last) Process pass reached.
func (g *Graph) Cursor() int {
	return g.cursor
}

func (g *Graph) Processing() bool {
	return g.processing
}

// GetOrderedDirty returns the dirty vertices in the order Process would visit
// them. Cycle group members are adjacent.
func (g *Graph) GetOrderedDirty() []Vertex {
	g.revalidateStale()
	out := make([]Vertex, 0, g.dirtyCount)
	for _, v := range g.dirty.items {
		if g.vertices[v].flags&(fAlive|fDirty) == fAlive|fDirty {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b Vertex) int {
		return g.vertices[a].index - g.vertices[b].index
	})
	return slices.Compact(out)
}

// Process visits every dirty vertex in topological order and hands it to fn
// with the action it needs. When fn returns true the vertex's dependents are
// marked dirty and visited later in the same pass. Cycle groups are handled as
// one unit: dependents inside the group are not re-marked. Process returns the
// number of vertices visited.
func (g *Graph) Process(fn func(v Vertex, action ProcessAction) bool) int {
	g.assertf(!g.processing, "Process: re-entrant call")
	g.processing = true
	g.cursor = 0
	defer func() {
		g.processing = false
	}()

	visited := 0
	for g.dirty.Len() > 0 {
		g.dirty.fix()
		v := heap.Pop(&g.dirty).(Vertex)
		vx := &g.vertices[v]
		vx.flags &^= fQueued
		if vx.flags&(fAlive|fDirty) != fAlive|fDirty {
			continue
		}
		g.cursor = g.lower(v)

		if c := vx.cycle; c != nil && c.stale {
			g.revalidate(c)
			g.enqueue(v)
			continue
		}

		visited += g.processUnit(v, fn)
		g.assertf(g.opts.maxSteps == 0 || visited <= g.opts.maxSteps,
			"Process: exceeded %d steps without settling", g.opts.maxSteps)
	}

	g.notifyDebug()
	return visited
}

func (g *Graph) actionFor(v Vertex) ProcessAction {
	vx := &g.vertices[v]
	switch {
	case vx.cycle != nil && vx.flags&fCycleInformed == 0:
		return ActionCycle
	case vx.flags&fCompute != 0:
		return ActionRecalculate
	default:
		return ActionInvalidate
	}
}

func (g *Graph) processUnit(v Vertex, fn func(Vertex, ProcessAction) bool) int {
	c := g.vertices[v].cycle
	if c == nil {
		g.ClearVertexDirty(v)
		if fn(v, g.actionFor(v)) && g.HasVertex(v) {
			g.propagate(v, nil)
		}
		return 1
	}

	var members []Vertex
	for _, m := range g.sortedMembers(c) {
		if g.vertices[m].flags&fDirty != 0 {
			members = append(members, m)
			g.ClearVertexDirty(m)
		}
	}
	for _, m := range members {
		if !g.HasVertex(m) {
			continue
		}
		if fn(m, g.actionFor(m)) && g.HasVertex(m) {
			g.propagate(m, c)
		}
	}
	if c.stale {
		g.revalidate(c)
	}
	return len(members)
}

func (g *Graph) propagate(v Vertex, skip *cycleGroup) {
	g.vertices[v].forward.Each(func(w Vertex) bool {
		if skip == nil || g.vertices[w].cycle != skip {
			g.markDirty(w)
		}
		return false
	})
}
