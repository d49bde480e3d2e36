// Package reactive layers observable values and memoized calculations on top
// of the incremental dependency graph in package graph.
//
// Writes to a Field, Model or Collection apply immediately but only mark
// vertices dirty. Propagation happens in Flush, which visits every affected
// vertex once in dependency order. Calculations with nobody listening are only
// invalidated and recompute on their next read:
//
//	e := reactive.New()
//	m := reactive.NewModel(e, map[string]int{"a": 1})
//	b := reactive.Computed(e, func() int { return m.Get("a") * 2 })
//	b.Value() // 2
//	m.Set("a", 5)
//	b.Value() // still 2
//	e.Flush()
//	b.Value() // 10
//
// Everything here is single threaded.
package reactive
