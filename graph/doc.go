// Package graph maintains an incremental topological order over a directed
// graph of opaque vertices, detects strongly connected groups as edges are
// added, and yields the dirty vertices in dependency order.
//
// An edge from → to means "to must be reconsidered when from changes".
// Every vertex owns a unique slot in the order. Vertices that are mutually
// reachable share a cycle group whose members occupy consecutive slots and are
// processed as one unit.
//
// Complexity:
//
//   - AddVertex / RemoveVertex: O(1) amortized (ids and slots are reused).
//   - AddEdge: O(1) when the order already satisfies the edge, otherwise
//     O(window + affected edges), where window is the slice of slots between
//     the two endpoints. Nothing outside that slice is touched.
//   - RemoveEdge: O(1); groups that lose an internal edge are re-split lazily.
//   - Process: O(d log d + propagated edges) for d dirty vertices.
//
// The graph is not safe for concurrent use. Integrity violations (unknown
// vertices, removing a vertex that still has edges, re-entrant processing)
// panic with an error wrapping ErrIntegrity.
package graph
