package reactive

import (
	"fmt"
	"log"

	"github.com/delaneyj/ripple/graph"
)

type OnErrorFunc func(from any, err error)

// Scheduler decides when a pending flush runs. Schedule is called once per
// flush request; mutations made before the flush runs are coalesced into it.
type Scheduler interface {
	Schedule(flush func())
}

type SchedulerFunc func(flush func())

func (f SchedulerFunc) Schedule(flush func()) {
	f(flush)
}

// manual leaves flushing to the caller.
type manual struct{}

func (manual) Schedule(func()) {}

type engineOptions struct {
	onError       OnErrorFunc
	scheduler     Scheduler
	maxFlushSteps int
}

type EngineOption func(*engineOptions)

// WithOnError sets the callback usage errors and effect errors are reported to.
func WithOnError(fn OnErrorFunc) EngineOption {
	return func(o *engineOptions) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// WithScheduler sets how flushes are requested. Without it the caller runs
// Flush, or Batch flushes when it returns.
func WithScheduler(s Scheduler) EngineOption {
	return func(o *engineOptions) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithMaxFlushSteps bounds the vertices one flush may visit before it is
// treated as an integrity violation. Zero disables the bound.
func WithMaxFlushSteps(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxFlushSteps = n
	}
}

// node is what owns a vertex: a calculation, an effect or a data vertex.
type node interface {
	label() string
	process(action graph.ProcessAction) bool
}

// dataNode is a field, key, slot or length vertex. Its dependents only need
// to know it changed.
type dataNode string

func (n dataNode) label() string { return string(n) }

func (dataNode) process(graph.ProcessAction) bool { return true }

type Stats struct {
	Flushes  int
	Visited  int
	Vertices int
	Edges    int
	Dirty    int
}

// Engine owns one dependency graph together with the evaluation stack and the
// flush state. It is single threaded: every call must come from the same
// goroutine.
type Engine struct {
	g     *graph.Graph
	nodes []node

	stack      []*calcCore
	pauseStack []int

	batchDepth   int
	flushPending bool
	flushing     bool

	flushes int
	visited int

	opts engineOptions
}

func New(opts ...EngineOption) *Engine {
	o := engineOptions{
		onError: func(from any, err error) {
			log.Printf("reactive: %v (from %T)", err, from)
		},
		scheduler:     manual{},
		maxFlushSteps: 1 << 20,
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{opts: o}
	e.g = graph.New(
		graph.WithOnDirty(e.requestFlush),
		graph.WithLabeler(e.label),
		graph.WithMaxSteps(o.maxFlushSteps),
	)
	return e
}

func (e *Engine) report(from any, err error) {
	e.opts.onError(from, err)
}

func (e *Engine) label(v graph.Vertex) string {
	if int(v) < len(e.nodes) && e.nodes[v] != nil {
		return e.nodes[v].label()
	}
	return fmt.Sprintf("v%d", v)
}

func (e *Engine) addVertex(kind graph.Kind, n node) graph.Vertex {
	v := e.g.AddVertex(kind)
	for int(v) >= len(e.nodes) {
		e.nodes = append(e.nodes, nil)
	}
	e.nodes[v] = n
	return v
}

// removeVertex drops v with its edges. Calculations that still depended on it
// forget it and are re-run on the next flush.
func (e *Engine) removeVertex(v graph.Vertex) {
	for w := range e.g.GetForwardDependencies(v) {
		e.g.RemoveEdge(v, w)
		if c, ok := e.nodes[w].(*calcCore); ok && w != v {
			c.forget(v)
		}
	}
	for w := range e.g.GetReverseDependencies(v) {
		e.g.RemoveEdge(w, v)
	}
	e.g.RemoveVertex(v)
	e.nodes[v] = nil
}

func (e *Engine) markDirty(v graph.Vertex) {
	if v != graph.NoVertex {
		e.g.MarkVertexDirty(v)
	}
}

// active is the calculation reads are attributed to, or nil.
func (e *Engine) active() *calcCore {
	n := len(e.stack)
	if n == 0 {
		return nil
	}
	if k := len(e.pauseStack); k > 0 && e.pauseStack[k-1] == n {
		return nil
	}
	return e.stack[n-1]
}

// track records that the active calculation read v, owned by owner. keepAlive
// retains owner for as long as the dependency is tracked.
func (e *Engine) track(v graph.Vertex, owner Retainable, keepAlive bool) {
	c := e.active()
	if c == nil || c.v == graph.NoVertex {
		return
	}
	if _, ok := c.depSet[v]; ok {
		return
	}
	c.depSet[v] = struct{}{}
	c.deps = append(c.deps, trackedDep{v: v, owner: owner, retained: keepAlive})
	if keepAlive {
		owner.Retain()
	}
	e.g.AddEdge(v, c.v)
}

// trackData allocates *v on first use and tracks it.
func (e *Engine) trackData(v *graph.Vertex, owner Retainable, label func() string) {
	if e.active() == nil {
		return
	}
	if *v == graph.NoVertex {
		*v = e.addVertex(graph.KindData, dataNode(label()))
	}
	e.track(*v, owner, true)
}

// canWrite rejects writes made from a calculation body. Effects may write.
func (e *Engine) canWrite(owner any) bool {
	if n := len(e.stack); n > 0 && !e.stack[n-1].effect {
		e.report(owner, fmt.Errorf("%w: %s writes %T", ErrMutationInCalc, e.stack[n-1].label(), owner))
		return false
	}
	return true
}

func (e *Engine) requestFlush() {
	if e.flushPending {
		return
	}
	e.flushPending = true
	if e.batchDepth == 0 {
		e.opts.scheduler.Schedule(e.Flush)
	}
}

// Flush runs one propagation pass over everything marked dirty since the last
// one. It does nothing when nothing is pending. Calling it while a flush is
// running or from a calculation or effect body panics with ErrReentrantFlush.
func (e *Engine) Flush() {
	if e.flushing || len(e.stack) > 0 {
		panic(fmt.Errorf("%w: flush requested while %s", ErrReentrantFlush, e.busy()))
	}
	e.flushPending = false
	if e.g.DirtyCount() == 0 {
		return
	}

	e.flushing = true
	defer func() {
		e.flushing = false
	}()
	e.flushes++
	e.visited += e.g.Process(e.process)
}

func (e *Engine) busy() string {
	if e.flushing {
		return "flushing"
	}
	return "evaluating " + e.stack[len(e.stack)-1].label()
}

func (e *Engine) process(v graph.Vertex, action graph.ProcessAction) bool {
	n := e.nodes[v]
	if n == nil {
		return true
	}
	return n.process(action)
}

// Batch runs fn and flushes once when the outermost Batch returns.
func (e *Engine) Batch(fn func()) {
	e.batchDepth++
	defer func() {
		e.batchDepth--
		switch {
		case e.batchDepth > 0 || e.flushing || !e.Pending():
		case len(e.stack) > 0:
			// a batch inside an effect body hands off to the scheduler
			e.opts.scheduler.Schedule(e.Flush)
		default:
			e.Flush()
		}
	}()
	fn()
}

// Pending reports whether a flush has been requested and not yet run.
func (e *Engine) Pending() bool {
	return e.flushPending || e.g.DirtyCount() > 0
}

// PauseTracking stops attributing reads to the active calculation until the
// matching ResumeTracking.
func (e *Engine) PauseTracking() {
	e.pauseStack = append(e.pauseStack, len(e.stack))
}

// ResumeTracking without a matching PauseTracking is reported and ignored.
func (e *Engine) ResumeTracking() {
	if len(e.pauseStack) == 0 {
		e.report(e, ErrUnbalancedResume)
		return
	}
	e.pauseStack = e.pauseStack[:len(e.pauseStack)-1]
}

// Untracked runs fn without recording dependencies for the active calculation.
func (e *Engine) Untracked(fn func()) {
	e.PauseTracking()
	defer e.ResumeTracking()
	fn()
}

func (e *Engine) Stats() Stats {
	return Stats{
		Flushes:  e.flushes,
		Visited:  e.visited,
		Vertices: e.g.VertexCount(),
		Edges:    e.g.EdgeCount(),
		Dirty:    e.g.DirtyCount(),
	}
}

// Debug renders the current graph in Graphviz DOT.
func (e *Engine) Debug() string {
	return e.g.Debug()
}

func (e *Engine) DebugSubscribe(fn func(dot string)) (unsubscribe func()) {
	return e.g.DebugSubscribe(fn)
}

func (e *Engine) DebugGetGraph() *graph.Snapshot {
	return e.g.DebugGetGraph()
}
