package graph

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrIntegrity is wrapped by every panic raised for a broken invariant.
var ErrIntegrity = errors.New("graph: integrity violation")

// Vertex is a small reusable handle. Once removed, the same value may be handed
// out again by AddVertex.
type Vertex int32

const NoVertex Vertex = -1

// Kind decides which action a dirty vertex receives outside of a cycle.
type Kind uint8

const (
	// KindData vertices are invalidated: their dependents only need to know
	// they are stale.
	KindData Kind = iota
	// KindCompute vertices are recalculated.
	KindCompute
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindCompute:
		return "compute"
	default:
		return "InvalidKind"
	}
}

type ProcessAction uint8

const (
	ActionInvalidate ProcessAction = iota
	ActionRecalculate
	ActionCycle
)

func (a ProcessAction) String() string {
	switch a {
	case ActionInvalidate:
		return "INVALIDATE"
	case ActionRecalculate:
		return "RECALCULATE"
	case ActionCycle:
		return "CYCLE"
	default:
		return "InvalidAction"
	}
}

type vertexFlags uint8

const (
	fAlive vertexFlags = 1 << iota
	fCompute
	fDirty
	fQueued
	fCycleInformed
)

type vertex struct {
	flags   vertexFlags
	index   int
	cycle   *cycleGroup
	forward mapset.Set[Vertex]
	reverse mapset.Set[Vertex]
}

// Option configures a Graph.
type Option func(*options)

type options struct {
	onDirty  func()
	labeler  func(Vertex) string
	maxSteps int
}

// WithOnDirty registers fn to be called whenever the dirty set goes from empty
// to non-empty outside of Process.
func WithOnDirty(fn func()) Option {
	return func(o *options) {
		o.onDirty = fn
	}
}

// WithLabeler sets the labels used by the debug exports.
func WithLabeler(fn func(Vertex) string) Option {
	return func(o *options) {
		if fn != nil {
			o.labeler = fn
		}
	}
}

// WithMaxSteps bounds the number of vertices a single Process pass may visit.
// Exceeding it is treated as an integrity violation. Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxSteps = n
		}
	}
}

type Graph struct {
	vertices  []vertex
	freeIDs   []Vertex
	order     []Vertex // slot -> vertex, NoVertex for holes
	freeSlots []int
	edges     int

	dirty      dirtyQueue
	dirtyCount int
	cursor     int
	processing bool

	staleGroups mapset.Set[*cycleGroup]

	opts options

	debugSubs   map[int]func(string)
	debugNextID int
	debugHash   uint64
}

func New(opts ...Option) *Graph {
	o := options{
		labeler: func(v Vertex) string { return fmt.Sprintf("v%d", v) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	g := &Graph{
		staleGroups: mapset.NewThreadUnsafeSet[*cycleGroup](),
		opts:        o,
		debugSubs:   map[int]func(string){},
	}
	g.dirty.g = g
	return g
}

// SetLabeler replaces the labels used by the debug exports.
func (g *Graph) SetLabeler(fn func(Vertex) string) {
	WithLabeler(fn)(&g.opts)
}

// SetOnDirty replaces the hook registered with WithOnDirty.
func (g *Graph) SetOnDirty(fn func()) {
	g.opts.onDirty = fn
}

func (g *Graph) assertf(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...)))
	}
}

func (g *Graph) mustVertex(v Vertex, op string) *vertex {
	g.assertf(v >= 0 && int(v) < len(g.vertices) && g.vertices[v].flags&fAlive != 0,
		"%s: unknown vertex %d", op, v)
	return &g.vertices[v]
}

// AddVertex allocates a vertex with no edges.
func (g *Graph) AddVertex(kind Kind) Vertex {
	var v Vertex
	if n := len(g.freeIDs); n > 0 {
		v = g.freeIDs[n-1]
		g.freeIDs = g.freeIDs[:n-1]
	} else {
		v = Vertex(len(g.vertices))
		g.vertices = append(g.vertices, vertex{})
	}

	flags := fAlive
	if kind == KindCompute {
		flags |= fCompute
	}
	slot := g.allocSlot()
	g.vertices[v] = vertex{
		flags:   flags,
		index:   slot,
		forward: mapset.NewThreadUnsafeSet[Vertex](),
		reverse: mapset.NewThreadUnsafeSet[Vertex](),
	}
	g.order[slot] = v
	return v
}

// allocSlot reuses a hole in the order unless it sits inside a cycle group's
// range, which must stay contiguous.
func (g *Graph) allocSlot() int {
	for n := len(g.freeSlots); n > 0; n = len(g.freeSlots) {
		slot := g.freeSlots[n-1]
		g.freeSlots = g.freeSlots[:n-1]
		if g.order[slot] == NoVertex && !g.insideCycle(slot) {
			return slot
		}
	}
	g.order = append(g.order, NoVertex)
	return len(g.order) - 1
}

func (g *Graph) insideCycle(slot int) bool {
	var below, above *cycleGroup
	for i := slot - 1; i >= 0; i-- {
		if v := g.order[i]; v != NoVertex {
			below = g.vertices[v].cycle
			break
		}
	}
	if below == nil {
		return false
	}
	for i := slot + 1; i < len(g.order); i++ {
		if v := g.order[i]; v != NoVertex {
			above = g.vertices[v].cycle
			break
		}
	}
	return below == above
}

// RemoveVertex frees v. All incident edges must have been removed first.
func (g *Graph) RemoveVertex(v Vertex) {
	vx := g.mustVertex(v, "RemoveVertex")
	g.assertf(vx.forward.Cardinality() == 0 && vx.reverse.Cardinality() == 0,
		"RemoveVertex: vertex %d still has %d out and %d in edges",
		v, vx.forward.Cardinality(), vx.reverse.Cardinality())

	if vx.cycle != nil {
		g.revalidate(vx.cycle)
		vx = &g.vertices[v]
	}
	if vx.flags&fDirty != 0 {
		g.dirtyCount--
	}
	if vx.flags&fQueued != 0 {
		g.dirty.remove(v)
	}

	g.order[vx.index] = NoVertex
	g.freeSlots = append(g.freeSlots, vx.index)
	g.freeIDs = append(g.freeIDs, v)
	g.vertices[v] = vertex{index: -1}
}

func (g *Graph) HasVertex(v Vertex) bool {
	return v >= 0 && int(v) < len(g.vertices) && g.vertices[v].flags&fAlive != 0
}

func (g *Graph) VertexCount() int {
	return len(g.vertices) - len(g.freeIDs)
}

func (g *Graph) EdgeCount() int {
	return g.edges
}

// Index returns the topological slot of v.
func (g *Graph) Index(v Vertex) int {
	return g.mustVertex(v, "Index").index
}

func (g *Graph) Kind(v Vertex) Kind {
	if g.mustVertex(v, "Kind").flags&fCompute != 0 {
		return KindCompute
	}
	return KindData
}

// Vertices returns every live vertex in topological order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, 0, g.VertexCount())
	for _, v := range g.order {
		if v != NoVertex {
			out = append(out, v)
		}
	}
	return out
}

// lower and upper are the slot bounds of the unit v belongs to.
func (g *Graph) lower(v Vertex) int {
	if c := g.vertices[v].cycle; c != nil {
		return c.lowerBound
	}
	return g.vertices[v].index
}

func (g *Graph) upper(v Vertex) int {
	if c := g.vertices[v].cycle; c != nil {
		return c.upperBound
	}
	return g.vertices[v].index
}

func (g *Graph) place(v Vertex, slot int) {
	vx := &g.vertices[v]
	if vx.index != slot && vx.flags&fQueued != 0 {
		g.dirty.needsInit = true
	}
	vx.index = slot
	g.order[slot] = v
}
