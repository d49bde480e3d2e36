package graph_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/delaneyj/ripple/graph"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrityPanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}

type visit struct {
	v      graph.Vertex
	action graph.ProcessAction
}

func collect(g *graph.Graph) []visit {
	var out []visit
	g.Process(func(v graph.Vertex, action graph.ProcessAction) bool {
		out = append(out, visit{v, action})
		return true
	})
	return out
}

func vertices(vs []visit) []graph.Vertex {
	out := make([]graph.Vertex, len(vs))
	for i, v := range vs {
		out[i] = v.v
	}
	return out
}

func TestAddVertexReusesIDs(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindData)
	assert.Equal(t, 2, g.VertexCount())

	g.RemoveVertex(a)
	assert.False(t, g.HasVertex(a))
	assert.Equal(t, 1, g.VertexCount())

	c := g.AddVertex(graph.KindCompute)
	assert.Equal(t, a, c)
	assert.Equal(t, graph.KindCompute, g.Kind(c))
	assert.NotEqual(t, g.Index(b), g.Index(c))
}

func TestIntegrityViolations(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindData)
	g.AddEdge(a, b)

	require.ErrorIs(t, integrityPanic(func() { g.RemoveVertex(a) }), graph.ErrIntegrity)
	require.ErrorIs(t, integrityPanic(func() { g.AddEdge(a, graph.Vertex(42)) }), graph.ErrIntegrity)

	g.RemoveEdge(a, b)
	g.RemoveVertex(a)
	require.ErrorIs(t, integrityPanic(func() { g.RemoveVertex(a) }), graph.ErrIntegrity)

	g.MarkVertexDirty(b)
	err := integrityPanic(func() {
		g.Process(func(graph.Vertex, graph.ProcessAction) bool {
			g.Process(func(graph.Vertex, graph.ProcessAction) bool { return false })
			return false
		})
	})
	require.ErrorIs(t, err, graph.ErrIntegrity)
}

func TestRemoveEdgeKeepsVertices(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(a, b)
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.HasEdge(a, b))

	g.RemoveEdge(a, b)
	assert.False(t, g.HasEdge(a, b))
	assert.True(t, g.HasVertex(a))
	assert.True(t, g.HasVertex(b))
	assert.Equal(t, 0, g.EdgeCount())
}

func TestAddEdgeReorders(t *testing.T) {
	g := graph.New()
	// Allocated in reverse dependency order: c, b, a.
	c := g.AddVertex(graph.KindCompute)
	b := g.AddVertex(graph.KindCompute)
	a := g.AddVertex(graph.KindData)
	g.AddEdge(b, c)
	g.AddEdge(a, b)

	assert.Less(t, g.Index(a), g.Index(b))
	assert.Less(t, g.Index(b), g.Index(c))

	g.MarkVertexDirty(a)
	assert.Equal(t, []graph.Vertex{a}, g.GetOrderedDirty())
	assert.Equal(t, []visit{
		{a, graph.ActionInvalidate},
		{b, graph.ActionRecalculate},
		{c, graph.ActionRecalculate},
	}, collect(g))
}

func TestDiamondVisitsEachVertexOnce(t *testing.T) {
	//     A
	//   /   \
	//  B     C
	//   \   /
	//     D
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	d := g.AddVertex(graph.KindCompute)
	b := g.AddVertex(graph.KindCompute)
	c := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(a, c)
	g.AddEdge(b, d)
	g.AddEdge(c, d)

	g.MarkVertexDirty(a)
	got := vertices(collect(g))
	require.Len(t, got, 4)
	assert.Equal(t, a, got[0])
	assert.ElementsMatch(t, []graph.Vertex{b, c}, got[1:3])
	assert.Equal(t, d, got[3])
	assert.Equal(t, 0, g.DirtyCount())
}

func TestProcessStopsWhenNotPropagating(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)
	c := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(b, c)

	g.MarkVertexDirty(a)
	var seen []graph.Vertex
	g.Process(func(v graph.Vertex, _ graph.ProcessAction) bool {
		seen = append(seen, v)
		return v != b
	})
	assert.Equal(t, []graph.Vertex{a, b}, seen)
}

func TestCursorRewinds(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)
	c := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)

	g.MarkVertexDirty(b)
	g.MarkVertexDirty(c)
	var seen []graph.Vertex
	rewound := false
	g.Process(func(v graph.Vertex, _ graph.ProcessAction) bool {
		seen = append(seen, v)
		if v == c && !rewound {
			rewound = true
			g.MarkVertexDirty(a)
			assert.Equal(t, g.Index(a), g.Cursor())
		}
		return true
	})
	assert.Equal(t, []graph.Vertex{b, c, a, b}, seen)
}

func TestCycleReportedOnce(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindCompute)
	b := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)

	dirtyHooks := 0
	g.SetOnDirty(func() { dirtyHooks++ })
	g.AddEdge(b, a)
	assert.Equal(t, 1, dirtyHooks)

	info, ok := g.Cycle(a)
	require.True(t, ok)
	assert.ElementsMatch(t, []graph.Vertex{a, b}, info.Vertices)
	assert.Equal(t, 1, info.UpperBound-info.LowerBound)

	got := collect(g)
	require.Len(t, got, 2)
	for _, vis := range got {
		assert.Equal(t, graph.ActionCycle, vis.action)
		g.MarkVertexCycleInformed(vis.v)
	}

	g.MarkVertexDirty(a)
	got = collect(g)
	assert.Equal(t, []visit{{a, graph.ActionRecalculate}}, got, "informed groups are not re-reported and not re-entered")

	// membership changes: a third vertex joins
	c := g.AddVertex(graph.KindCompute)
	g.AddEdge(b, c)
	g.AddEdge(c, a)
	info, ok = g.Cycle(c)
	require.True(t, ok)
	assert.Len(t, info.Vertices, 3)
	got = collect(g)
	require.Len(t, got, 3)
	for _, vis := range got {
		assert.Equal(t, graph.ActionCycle, vis.action)
	}
}

func TestCycleSplitsWhenEdgeRemoved(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindCompute)
	b := g.AddVertex(graph.KindCompute)
	c := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(c, a)
	collect(g)

	g.RemoveEdge(c, a)
	_, ok := g.Cycle(a)
	assert.False(t, ok)
	assert.Less(t, g.Index(a), g.Index(b))
	assert.Less(t, g.Index(b), g.Index(c))

	got := collect(g)
	assert.Equal(t, []visit{
		{a, graph.ActionRecalculate},
		{b, graph.ActionRecalculate},
		{c, graph.ActionRecalculate},
	}, got)
}

func TestSelfEdgeIsCycle(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, a)
	info, ok := g.Cycle(a)
	require.True(t, ok)
	assert.Equal(t, []graph.Vertex{a}, info.Vertices)
	assert.Equal(t, []visit{{a, graph.ActionCycle}}, collect(g))

	g.RemoveEdge(a, a)
	_, ok = g.Cycle(a)
	assert.False(t, ok)
	assert.Equal(t, []visit{{a, graph.ActionRecalculate}}, collect(g))
}

func TestRemoveCycleMember(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindCompute)
	b := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(b, a)
	g.RemoveEdge(a, b)
	g.RemoveEdge(b, a)
	g.RemoveVertex(a)

	_, ok := g.Cycle(b)
	assert.False(t, ok)
	assert.Equal(t, []graph.Vertex{b}, g.GetOrderedDirty())
}

func TestForwardDependencies(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)
	c := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(a, c)

	var deps []graph.Vertex
	for v := range g.GetForwardDependencies(a) {
		deps = append(deps, v)
	}
	assert.ElementsMatch(t, []graph.Vertex{b, c}, deps)

	// restartable
	n := 0
	for range g.GetForwardDependencies(a) {
		n++
	}
	assert.Equal(t, 2, n)

	var rev []graph.Vertex
	for v := range g.GetReverseDependencies(c) {
		rev = append(rev, v)
	}
	assert.Equal(t, []graph.Vertex{a}, rev)
}

// TestRandomSoundness checks, after random edits, that every edge respects the
// order unless both ends share a group, that groups are exactly the mutually
// reachable sets, and that group slots are contiguous.
func TestRandomSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		g := graph.New()
		var live []graph.Vertex
		for i := 0; i < 12; i++ {
			live = append(live, g.AddVertex(graph.KindCompute))
		}

		for step := 0; step < 200; step++ {
			switch r := rng.Intn(10); {
			case r < 6:
				from := live[rng.Intn(len(live))]
				to := live[rng.Intn(len(live))]
				g.AddEdge(from, to)
			case r < 9:
				from := live[rng.Intn(len(live))]
				to := live[rng.Intn(len(live))]
				g.RemoveEdge(from, to)
			default:
				i := rng.Intn(len(live))
				v := live[i]
				for _, w := range slices.Collect(g.GetForwardDependencies(v)) {
					g.RemoveEdge(v, w)
				}
				for _, w := range slices.Collect(g.GetReverseDependencies(v)) {
					g.RemoveEdge(w, v)
				}
				g.RemoveVertex(v)
				live[i] = g.AddVertex(graph.KindCompute)
			}
			if step%20 == 0 {
				collect(g)
			}
			checkSound(t, g, live)
		}
	}
}

func checkSound(t *testing.T, g *graph.Graph, live []graph.Vertex) {
	t.Helper()

	groupOf := map[graph.Vertex]int{}
	for _, v := range live {
		info, ok := g.Cycle(v)
		if !ok {
			continue
		}
		groupOf[v] = info.LowerBound
	}

	reach := func(from graph.Vertex) map[graph.Vertex]bool {
		seen := map[graph.Vertex]bool{}
		stack := []graph.Vertex{from}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for w := range g.GetForwardDependencies(v) {
				if !seen[w] {
					seen[w] = true
					stack = append(stack, w)
				}
			}
		}
		return seen
	}
	reachable := map[graph.Vertex]map[graph.Vertex]bool{}
	for _, v := range live {
		reachable[v] = reach(v)
	}

	for _, a := range live {
		for b := range g.GetForwardDependencies(a) {
			ga, aok := groupOf[a]
			gb, bok := groupOf[b]
			if aok && bok && ga == gb {
				continue
			}
			require.Less(t, g.Index(a), g.Index(b), "edge %d -> %d", a, b)
		}
		for _, b := range live {
			mutual := reachable[a][b] && reachable[b][a]
			ga, aok := groupOf[a]
			gb, bok := groupOf[b]
			same := aok && bok && ga == gb
			if a == b {
				require.Equal(t, reachable[a][a], aok, "self membership of %d", a)
				continue
			}
			require.Equal(t, mutual, same, "group membership of %d and %d", a, b)
		}
	}

	// group members occupy consecutive live slots
	order := g.Vertices()
	for i := 1; i < len(order)-1; i++ {
		prev, cur, next := order[i-1], order[i], order[i+1]
		gp, pok := groupOf[prev]
		gn, nok := groupOf[next]
		if pok && nok && gp == gn {
			gc, cok := groupOf[cur]
			require.True(t, cok && gc == gp, "vertex %d splits group at %d", cur, gp)
		}
	}
}

func TestDebugGolden(t *testing.T) {
	names := []string{"a", "b", "c", "d", "x", "y"}
	g := graph.New(graph.WithLabeler(func(v graph.Vertex) string { return names[v] }))
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)
	c := g.AddVertex(graph.KindCompute)
	d := g.AddVertex(graph.KindCompute)
	x := g.AddVertex(graph.KindCompute)
	y := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)
	g.AddEdge(a, c)
	g.AddEdge(b, d)
	g.AddEdge(c, d)
	g.AddEdge(x, y)
	g.AddEdge(y, x)
	g.MarkVertexDirty(a)

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "diamond_and_cycle", []byte(g.Debug()))
}

func TestDotLabelsAreQuotedNotEscaped(t *testing.T) {
	g := graph.New(graph.WithLabeler(func(graph.Vertex) string { return `say "hi" & go` }))
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)
	g.AddEdge(a, b)

	dot := g.Debug()
	assert.Contains(t, dot, "\tv0 [label=\"say \\\"hi\\\" & go\", shape=box];\n")
	assert.NotContains(t, dot, "&quot;")
	assert.NotContains(t, dot, "&amp;")
	assert.NotContains(t, dot, "\n\n", "loop tags add no blank lines")
	assert.Equal(t, "digraph ripple {\n\trankdir=LR;\n", dot[:len("digraph ripple {\n\trankdir=LR;\n")])
	assert.Contains(t, dot, "\tv0 -> v1;\n}\n")
}

func TestDebugSubscribe(t *testing.T) {
	g := graph.New()
	a := g.AddVertex(graph.KindData)
	b := g.AddVertex(graph.KindCompute)

	var dots []string
	unsubscribe := g.DebugSubscribe(func(dot string) { dots = append(dots, dot) })
	require.Len(t, dots, 1)

	g.Process(func(graph.Vertex, graph.ProcessAction) bool { return true })
	assert.Len(t, dots, 1, "unchanged graph is not re-sent")

	g.AddEdge(a, b)
	g.MarkVertexDirty(a)
	g.Process(func(graph.Vertex, graph.ProcessAction) bool { return true })
	require.Len(t, dots, 2)
	assert.Contains(t, dots[1], "v0 -> v1;")

	unsubscribe()
	g.RemoveEdge(a, b)
	g.Process(func(graph.Vertex, graph.ProcessAction) bool { return true })
	assert.Len(t, dots, 2)
}

func TestMaxSteps(t *testing.T) {
	g := graph.New(graph.WithMaxSteps(10))
	a := g.AddVertex(graph.KindCompute)
	g.MarkVertexDirty(a)
	err := integrityPanic(func() {
		g.Process(func(v graph.Vertex, _ graph.ProcessAction) bool {
			g.MarkVertexDirty(v)
			return false
		})
	})
	require.ErrorIs(t, err, graph.ErrIntegrity)
}
