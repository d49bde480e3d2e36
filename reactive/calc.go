package reactive

import (
	"errors"
	"slices"
	"sync"

	"github.com/delaneyj/ripple/graph"
)

type calcState uint8

const (
	stateUninitialized calcState = iota
	stateCached
	stateInvalidated
	stateEvaluating
)

type trackedDep struct {
	v        graph.Vertex
	owner    Retainable
	retained bool
}

// body is the typed half of a calculation or effect.
type body interface {
	// run calls the user function and holds on to its result.
	run()
	// commit stores the result of the last run.
	commit() (changed bool)
	// fail stores err as the result instead.
	fail(err error) (changed bool)
	// observed reports whether someone wants results pushed at flush time.
	observed() bool
}

// calcCore is the untyped state shared by Calc and Effect: the vertex, the
// cache state and the dependencies found by the last run.
type calcCore struct {
	lifecycle

	name   string
	effect bool
	body   body

	v      graph.Vertex
	state  calcState
	deps   []trackedDep
	depSet map[graph.Vertex]struct{}
}

func (c *calcCore) init(e *Engine, owner any, name string, effect bool, b body) {
	c.name = name
	c.effect = effect
	c.body = b
	c.v = graph.NoVertex

	var acquire func()
	if effect {
		acquire = func() {
			c.evaluate()
		}
	}
	c.lifecycle.init(e, owner, acquire, c.detach)
}

func (c *calcCore) label() string {
	return c.name
}

// evaluate re-runs the body with c on top of the evaluating stack. Edges to
// dependencies the new run did not read are dropped afterwards, and the old
// retains are released only once the new ones are taken. A calculation that
// is still part of a cycle afterwards takes the cycle result.
func (c *calcCore) evaluate() bool {
	e := c.e
	if c.v == graph.NoVertex {
		c.v = e.addVertex(graph.KindCompute, c)
		c.depSet = map[graph.Vertex]struct{}{}
	}

	old := c.deps
	c.deps = nil
	clear(c.depSet)

	c.state = stateEvaluating
	e.stack = append(e.stack, c)
	func() {
		defer func() {
			e.stack = e.stack[:len(e.stack)-1]
			c.state = stateCached
		}()
		c.body.run()
	}()

	for _, d := range old {
		if _, kept := c.depSet[d.v]; !kept && e.g.HasEdge(d.v, c.v) {
			e.g.RemoveEdge(d.v, c.v)
		}
		if d.retained {
			d.owner.Release()
		}
	}

	if c.v != graph.NoVertex {
		if _, cyclic := e.g.Cycle(c.v); cyclic {
			return c.body.fail(c.cycleError())
		}
	}
	return c.body.commit()
}

func (c *calcCore) process(action graph.ProcessAction) bool {
	switch {
	case action == graph.ActionCycle:
		c.e.g.MarkVertexCycleInformed(c.v)
		c.state = stateCached
		return c.body.fail(c.cycleError())
	case c.state == stateEvaluating:
		return false
	case c.body.observed() || c.hasDependents():
		return c.evaluate()
	default:
		// nobody is looking: recompute on the next read
		c.state = stateInvalidated
		return false
	}
}

func (c *calcCore) hasDependents() bool {
	for range c.e.g.GetForwardDependencies(c.v) {
		return true
	}
	return false
}

func (c *calcCore) cycleError() error {
	info, ok := c.e.g.Cycle(c.v)
	if !ok {
		return &CycleError{Members: []string{c.label()}}
	}
	members := make([]string, len(info.Vertices))
	for i, v := range info.Vertices {
		members[i] = c.e.label(v)
	}
	return &CycleError{Members: members}
}

// forget drops a dependency whose vertex was torn down under c.
func (c *calcCore) forget(v graph.Vertex) {
	if _, ok := c.depSet[v]; !ok {
		return
	}
	delete(c.depSet, v)
	c.deps = slices.DeleteFunc(c.deps, func(d trackedDep) bool {
		return d.v == v
	})
	c.e.markDirty(c.v)
}

func (c *calcCore) detach() {
	if c.v == graph.NoVertex {
		return
	}
	v, deps := c.v, c.deps
	c.v = graph.NoVertex
	c.deps, c.depSet = nil, nil
	c.state = stateUninitialized

	c.e.removeVertex(v)
	for _, d := range deps {
		if d.retained {
			d.owner.Release()
		}
	}
}

// recovered turns a recovered panic into the failing vertex's error. Integrity
// violations keep unwinding.
func recovered(r any) error {
	err, ok := r.(error)
	if !ok {
		return &PanicError{Value: r}
	}
	if errors.Is(err, graph.ErrIntegrity) || errors.Is(err, ErrReentrantFlush) {
		panic(err)
	}
	return err
}

type result[T any] struct {
	value T
	err   error
}

// Calc is a memoized calculation. Its dependencies are whatever it read during
// its last run.
type Calc[T any] struct {
	calcCore

	fn       func() (T, error)
	cfg      config[T]
	hasValue bool
	value    T
	err      error
	pending  result[T]
	subs     subscribers[result[T]]
}

func Computed[T any](e *Engine, fn func() T, opts ...Option[T]) *Calc[T] {
	return ComputedErr(e, func() (T, error) {
		return fn(), nil
	}, opts...)
}

// ComputedErr is Computed for functions that can fail. A returned error
// becomes the calculation's result the same way a panic does.
func ComputedErr[T any](e *Engine, fn func() (T, error), opts ...Option[T]) *Calc[T] {
	c := &Calc[T]{
		fn:  fn,
		cfg: newConfig("calc", opts),
	}
	c.calcCore.init(e, c, c.cfg.name, false, c)
	return c
}

func (c *Calc[T]) Name() string {
	return c.name
}

// Result returns the cached result, evaluating first if the cache is empty or
// was invalidated. It never panics on a failed calculation.
func (c *Calc[T]) Result() (T, error) {
	e := c.e
	if c.state == stateEvaluating {
		e.track(c.v, c, false)
		err := &CalcError{Name: c.name, Err: ErrCycle}
		if c.cfg.fallback != nil {
			return c.cfg.fallback(err), err
		}
		var zero T
		return zero, err
	}
	if c.state != stateCached {
		c.evaluate()
	}
	e.track(c.v, c, true)
	return c.value, c.err
}

// Value is Result for callers that treat failure as exceptional: a failed
// calculation without a fallback panics with a *CalcError.
func (c *Calc[T]) Value() T {
	v, err := c.Result()
	if err != nil && c.cfg.fallback == nil {
		var ce *CalcError
		if !errors.As(err, &ce) || ce.Name != c.name {
			err = &CalcError{Name: c.name, Err: err}
		}
		panic(err)
	}
	return v
}

// Subscribe retains c and calls fn with each new result computed by a flush.
func (c *Calc[T]) Subscribe(fn func(value T, err error)) (unsubscribe func()) {
	c.Retain()
	if c.state == stateUninitialized || c.state == stateInvalidated {
		c.evaluate()
	}
	off := c.subs.add(func(r result[T]) {
		fn(r.value, r.err)
	})
	return sync.OnceFunc(func() {
		off()
		c.Release()
	})
}

func (c *Calc[T]) run() {
	c.pending.value, c.pending.err = c.call()
}

func (c *Calc[T]) commit() bool {
	r := c.pending
	c.pending = result[T]{}
	return c.store(r.value, r.err)
}

func (c *Calc[T]) call() (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
		if err != nil {
			err = &CalcError{Name: c.name, Err: err}
		}
	}()
	return c.fn()
}

func (c *Calc[T]) fail(err error) bool {
	var zero T
	return c.store(zero, err)
}

func (c *Calc[T]) store(value T, err error) bool {
	if err != nil && c.cfg.fallback != nil {
		value = c.cfg.fallback(err)
	}
	if c.hasValue && sameError(c.err, err) && c.cfg.equal(c.value, value) {
		return false
	}
	c.hasValue = true
	c.value, c.err = value, err
	c.subs.emit(result[T]{value, err})
	return true
}

func (c *Calc[T]) observed() bool {
	return c.subs.len() > 0
}
