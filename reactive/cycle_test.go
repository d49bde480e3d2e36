package reactive_test

import (
	"testing"

	"github.com/delaneyj/ripple/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutualCycleUsesFallbacks(t *testing.T) {
	e := reactive.New(failOnError(t))
	var a, b *reactive.Calc[int]
	a = reactive.Computed(e, func() int {
		return b.Value() + 1
	}, reactive.WithName[int]("a"), reactive.WithFallback(func(error) int { return -1 }))
	b = reactive.Computed(e, func() int {
		return a.Value() + 1
	}, reactive.WithName[int]("b"), reactive.WithFallback(func(error) int { return -2 }))

	assert.NotPanics(t, func() { a.Value() })
	assert.True(t, e.Pending(), "the cycle is reported on the next flush")

	e.Flush()
	va, err := a.Result()
	require.ErrorIs(t, err, reactive.ErrCycle)
	assert.Equal(t, -1, va)

	vb, err := b.Result()
	require.ErrorIs(t, err, reactive.ErrCycle)
	assert.Equal(t, -2, vb)

	var ce *reactive.CycleError
	require.ErrorAs(t, err, &ce)
	assert.ElementsMatch(t, []string{"a", "b"}, ce.Members)

	visited := e.Stats().Visited
	e.Flush()
	assert.Equal(t, visited, e.Stats().Visited, "an informed cycle is not re-reported")
}

func TestCycleWithoutFallbackPanicsOnValue(t *testing.T) {
	e := reactive.New(failOnError(t))
	var a, b *reactive.Calc[int]
	a = reactive.Computed(e, func() int { return b.Value() }, reactive.WithName[int]("a"))
	b = reactive.Computed(e, func() int { return a.Value() }, reactive.WithName[int]("b"))

	_, err := a.Result()
	require.ErrorIs(t, err, reactive.ErrCycle)

	e.Flush()
	err = panicErr(func() { a.Value() })
	var ce *reactive.CalcError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "a", ce.Name)
	assert.ErrorIs(t, err, reactive.ErrCycle)
}

func TestSelfCycle(t *testing.T) {
	e := reactive.New(failOnError(t))
	var s *reactive.Calc[int]
	s = reactive.Computed(e, func() int {
		return s.Value() + 1
	}, reactive.WithName[int]("s"), reactive.WithFallback(func(error) int { return 0 }))

	assert.Equal(t, 0, s.Value(), "a calculation left in a cycle takes its fallback")
	e.Flush()

	v, err := s.Result()
	assert.Equal(t, 0, v)
	var ce *reactive.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"s"}, ce.Members)
}

func TestCycleBreaks(t *testing.T) {
	e := reactive.New(failOnError(t))
	useB := reactive.NewField(e, true, reactive.WithName[bool]("useB"))
	var a, b *reactive.Calc[int]
	a = reactive.Computed(e, func() int {
		if useB.Get() {
			return b.Value() + 1
		}
		return 10
	}, reactive.WithName[int]("a"), reactive.WithFallback(func(error) int { return -1 }))
	b = reactive.Computed(e, func() int {
		return a.Value() + 1
	}, reactive.WithName[int]("b"), reactive.WithFallback(func(error) int { return -2 }))

	a.Value()
	e.Flush()
	_, err := a.Result()
	require.ErrorIs(t, err, reactive.ErrCycle)

	useB.Set(false)
	e.Flush()

	va, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, 10, va)
	vb, err := b.Result()
	require.NoError(t, err)
	assert.Equal(t, 11, vb)
}

func TestCycleDoesNotBlockOtherVertices(t *testing.T) {
	e := reactive.New(failOnError(t))
	x := reactive.NewField(e, 1)
	var a, b *reactive.Calc[int]
	a = reactive.Computed(e, func() int {
		return x.Get() + b.Value()
	}, reactive.WithFallback(func(error) int { return 0 }))
	b = reactive.Computed(e, func() int {
		return a.Value()
	}, reactive.WithFallback(func(error) int { return 0 }))
	other := reactive.Computed(e, func() int {
		return x.Get() * 3
	})

	var seen []int
	defer other.Subscribe(func(v int, _ error) { seen = append(seen, v) })()
	a.Value()
	e.Flush()

	x.Set(2)
	e.Flush()
	assert.Equal(t, []int{6}, seen)
	_, err := a.Result()
	assert.ErrorIs(t, err, reactive.ErrCycle)
}
