package reactive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle is wrapped by every result produced by a dependency cycle.
	ErrCycle = errors.New("reactive: dependency cycle")

	ErrReleaseUnretained = errors.New("reactive: release of unretained object")
	ErrMutationInCalc    = errors.New("reactive: mutation inside a calculation")
	ErrReentrantFlush    = errors.New("reactive: re-entrant flush")
	ErrUnbalancedResume  = errors.New("reactive: resume tracking without pause")
)

// CalcError is the per-calculation error result. Reading a failed calculation
// from another calculation fails the reader with a CalcError wrapping it.
type CalcError struct {
	Name string
	Err  error
}

func (e *CalcError) Error() string {
	return fmt.Sprintf("calc %s: %v", e.Name, e.Err)
}

func (e *CalcError) Unwrap() error {
	return e.Err
}

// CycleError is the result delivered to every member of a cycle group.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v through %s", ErrCycle, strings.Join(e.Members, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// PanicError carries a value recovered from a calculation or effect body that
// was not itself an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func sameError(a, b error) bool {
	switch {
	case a == nil || b == nil:
		return a == b
	case errors.Is(a, ErrCycle) && errors.Is(b, ErrCycle):
		return true
	default:
		return a.Error() == b.Error()
	}
}
