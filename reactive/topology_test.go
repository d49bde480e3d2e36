package reactive_test

import (
	"testing"

	"github.com/delaneyj/ripple/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldOnlyUpdateEverySignalOnceJaggedDiamondTails(t *testing.T) {
	rs := reactive.New(failOnError(t))

	// "F" and "G" will be likely updated twice if the ordering is buggy.
	//     A
	//   /   \
	//  B     C
	//  |     |
	//  |     D
	//   \   /
	//     E
	//   /   \
	//  F     G
	a := reactive.NewField(rs, "a")
	b := reactive.Computed(rs, func() string { return a.Get() })
	c := reactive.Computed(rs, func() string { return a.Get() })
	d := reactive.Computed(rs, func() string { return c.Value() })

	var order []string
	eCallCount := 0
	e := reactive.Computed(rs, func() string {
		v := b.Value() + " " + d.Value()
		eCallCount++
		order = append(order, "e")
		return v
	})
	fCallCount := 0
	f := reactive.Computed(rs, func() string {
		v := e.Value()
		fCallCount++
		order = append(order, "f")
		return v
	})
	gCallCount := 0
	g := reactive.Computed(rs, func() string {
		v := e.Value()
		gCallCount++
		order = append(order, "g")
		return v
	})

	require.Equal(t, "a a", f.Value())
	require.Equal(t, 1, fCallCount)
	require.Equal(t, "a a", g.Value())
	require.Equal(t, 1, gCallCount)

	for _, next := range []string{"b", "c"} {
		eCallCount, fCallCount, gCallCount = 0, 0, 0
		order = nil

		a.Set(next)
		rs.Flush()
		want := next + " " + next
		require.Equal(t, want, e.Value())
		require.Equal(t, 1, eCallCount)
		require.Equal(t, want, f.Value())
		require.Equal(t, 1, fCallCount)
		require.Equal(t, want, g.Value())
		require.Equal(t, 1, gCallCount)

		// top to bottom, then left to right
		assert.Equal(t, []string{"e", "f", "g"}, order)
	}
}

func TestShouldOnlySubscribeToSignalsListenedTo(t *testing.T) {
	rs := reactive.New(failOnError(t))

	//    *A
	//   /   \
	// *B     C <- we don't listen to C
	a := reactive.NewField(rs, "a")
	b := reactive.Computed(rs, func() string { return a.Get() })
	callCount := 0
	reactive.Computed(rs, func() string {
		callCount++
		return a.Get()
	})

	assert.Equal(t, "a", b.Value())
	assert.Equal(t, 0, callCount)

	a.Set("aa")
	rs.Flush()
	assert.Equal(t, "aa", b.Value())
	assert.Equal(t, 0, callCount)
}

func TestShouldOnlySubscribeToSignalsListenedToII(t *testing.T) {
	rs := reactive.New(failOnError(t))

	// Here both "B" and "C" are active in the beginning, but
	// "B" becomes inactive later. At that point it should
	// not receive any updates anymore.
	//    *A
	//   /   \
	// *B     D <- we don't listen to C
	//  |
	// *C
	a := reactive.NewField(rs, "a")
	bCallCount := 0
	b := reactive.Computed(rs, func() string {
		bCallCount++
		return a.Get()
	})
	cCallCount := 0
	c := reactive.Computed(rs, func() string {
		cCallCount++
		return b.Value()
	})
	d := reactive.Computed(rs, func() string { return a.Get() })

	result := ""
	stop := reactive.RunEffect(rs, func() error {
		result = c.Value()
		return nil
	})

	assert.Equal(t, "a", result)
	assert.Equal(t, "a", d.Value())

	bCallCount, cCallCount = 0, 0
	stop()

	a.Set("aa")
	rs.Flush()
	assert.Equal(t, 0, bCallCount)
	assert.Equal(t, 0, cCallCount)
	assert.Equal(t, "aa", d.Value())
}

func TestShouldEnsureSubsUpdate(t *testing.T) {
	// In this scenario "C" always returns the same value. When "A"
	// changes, "B" will update, then "C" at which point its update
	// to "D" will be unmarked. But "D" must still update because
	// "B" marked it. If "D" isn't updated, then we have a bug.
	//     A
	//   /   \
	//  B     *C <- returns same value every time
	//   \   /
	//     D
	rs := reactive.New(failOnError(t))
	a := reactive.NewField(rs, "a")
	b := reactive.Computed(rs, func() string { return a.Get() })
	c := reactive.Computed(rs, func() string {
		a.Get()
		return "c"
	})
	dCallCount := 0
	d := reactive.Computed(rs, func() string {
		dCallCount++
		return b.Value() + " " + c.Value()
	})

	assert.Equal(t, "a c", d.Value())
	assert.Equal(t, 1, dCallCount)

	a.Set("aa")
	rs.Flush()
	assert.Equal(t, "aa c", d.Value())
}

func TestShouldEnsureSubsUpdateEvenIfTwoDepsUnmarkIt(t *testing.T) {
	// In this scenario both "C" and "D" always return the same
	// value. But "E" must still update because "A" marked it.
	// If "E" isn't updated, then we have a bug.
	//     A
	//   / | \
	//  B *C *D
	//   \ | /
	//     E
	rs := reactive.New(failOnError(t))
	a := reactive.NewField(rs, "a")
	b := reactive.Computed(rs, func() string { return a.Get() })
	c := reactive.Computed(rs, func() string {
		a.Get()
		return "c"
	})
	d := reactive.Computed(rs, func() string {
		a.Get()
		return "d"
	})
	eCallCount := 0
	e := reactive.Computed(rs, func() string {
		eCallCount++
		return b.Value() + " " + c.Value() + " " + d.Value()
	})

	assert.Equal(t, "a c d", e.Value())
	assert.Equal(t, 1, eCallCount)

	a.Set("aa")
	rs.Flush()
	assert.Equal(t, "aa c d", e.Value())
	assert.Equal(t, 2, eCallCount)
}

func TestShouldEnsureSubsUpdateEvenIfAllDepsUnmarkIt(t *testing.T) {
	// In this scenario "B" and "C" always return the same value. When "A"
	// changes, "D" should not update.
	//     A
	//   /   \
	// *B     *C
	//   \   /
	//     D
	rs := reactive.New(failOnError(t))
	a := reactive.NewField(rs, "a")
	b := reactive.Computed(rs, func() string {
		a.Get()
		return "b"
	})
	c := reactive.Computed(rs, func() string {
		a.Get()
		return "c"
	})
	dCallCount := 0
	d := reactive.Computed(rs, func() string {
		dCallCount++
		return b.Value() + " " + c.Value()
	})

	assert.Equal(t, "b c", d.Value())
	assert.Equal(t, 1, dCallCount)
	dCallCount = 0

	a.Set("aa")
	rs.Flush()
	assert.Equal(t, "b c", d.Value())
	assert.Equal(t, 0, dCallCount)
}

func TestShouldKeepGraphConsistentOnActivationErrors(t *testing.T) {
	rs := reactive.New(failOnError(t))
	a := reactive.NewField(rs, 0)
	b := reactive.Computed(rs, func() int {
		panic("fail")
	})

	assert.Panics(t, func() {
		b.Value()
	})

	a.Set(1)
	assert.Equal(t, 1, a.Get())
}

func TestShouldKeepGraphConsistentOnComputedErrors(t *testing.T) {
	rs := reactive.New(failOnError(t))
	a := reactive.NewField(rs, 0)
	b := reactive.Computed(rs, func() int {
		panic("fail")
	})
	c := reactive.Computed(rs, func() int {
		return a.Get()
	})

	assert.Panics(t, func() {
		b.Value()
	})

	a.Set(1)
	assert.Equal(t, 1, c.Value())
}

func TestShouldPauseTracking(t *testing.T) {
	rs := reactive.New(failOnError(t))
	src := reactive.NewField(rs, 0)
	c := reactive.Computed(rs, func() int {
		rs.PauseTracking()
		value := src.Get()
		rs.ResumeTracking()
		return value
	})
	assert.Equal(t, 0, c.Value())

	src.Set(1)
	rs.Flush()
	assert.Equal(t, 0, c.Value())
}

func TestShouldNotTriggerAfterStop(t *testing.T) {
	rs := reactive.New(failOnError(t))
	count := reactive.NewField(rs, 0)

	triggers := 0
	stop := reactive.RunEffect(rs, func() error {
		triggers++
		count.Get()
		return nil
	})

	assert.Equal(t, 1, triggers)
	count.Set(2)
	rs.Flush()
	assert.Equal(t, 2, triggers)
	stop()
	count.Set(3)
	rs.Flush()
	assert.Equal(t, 2, triggers)
}
