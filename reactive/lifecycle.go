package reactive

// Retainable is implemented by everything that owns graph vertices.
//
// Retain on a zero count makes the object eligible to (re-)enter the graph.
// Release on a count of one removes its vertices and edges and releases what it
// holds. Releasing at zero is reported through the engine's OnErrorFunc.
type Retainable interface {
	Retain()
	Release()
	RetainCount() int
}

type lifecycle struct {
	e     *Engine
	owner any
	count int

	acquire  func()
	teardown func()
}

func (l *lifecycle) init(e *Engine, owner any, acquire, teardown func()) {
	l.e = e
	l.owner = owner
	l.acquire = acquire
	l.teardown = teardown
}

func (l *lifecycle) Retain() {
	l.count++
	if l.count == 1 && l.acquire != nil {
		l.acquire()
	}
}

func (l *lifecycle) Release() {
	if l.count == 0 {
		l.e.report(l.owner, ErrReleaseUnretained)
		return
	}
	l.count--
	if l.count == 0 && l.teardown != nil {
		l.teardown()
	}
}

func (l *lifecycle) RetainCount() int {
	return l.count
}
