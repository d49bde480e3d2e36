package reactive

import "sync"

// Effect is a calculation run for its side effects. It is never a dependency
// of anything. It first runs when retained and then again in every flush that
// changes something it read. Its errors go to the engine's OnErrorFunc.
type Effect struct {
	calcCore

	fn func() error
}

func NewEffect(e *Engine, fn func() error) *Effect {
	f := &Effect{fn: fn}
	f.calcCore.init(e, f, "effect", true, f)
	return f
}

// RunEffect creates and retains an effect. stop releases it.
func RunEffect(e *Engine, fn func() error) (stop func()) {
	f := NewEffect(e, fn)
	f.Retain()
	return sync.OnceFunc(f.Release)
}

// Named sets the label used in debug output and error reports.
func (f *Effect) Named(name string) *Effect {
	f.name = name
	return f
}

func (f *Effect) run() {
	if err := f.call(); err != nil {
		f.e.report(f, &CalcError{Name: f.name, Err: err})
	}
}

func (f *Effect) commit() bool {
	return false
}

func (f *Effect) call() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return f.fn()
}

func (f *Effect) fail(err error) bool {
	f.e.report(f, err)
	return false
}

func (f *Effect) observed() bool {
	return true
}
