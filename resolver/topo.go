package resolver

import (
	"sort"

	"github.com/esp-lang/espcore/internal/symbol"
)

// topoSort orders names so that every dependency (per g's referrer-depends-
// on-referent edges) appears before anything that references it, using
// Kahn's algorithm. Ties are broken lexicographically so the same input
// always yields the same order.
// ok is false if the graph contains a cycle; callers should never see that
// here since Reference Validation's FindCycle already rejected cyclic
// input before the resolver runs, but topoSort re-derives it defensively
// rather than trusting that invariant blindly.
func topoSort(g *symbol.ReferenceGraph, names []string) (order []string, ok bool) {
	indegree := make(map[string]int, len(names))
	adj := make(map[string][]string)
	known := make(map[string]bool, len(names))
	for _, n := range names {
		indegree[n] = 0
		known[n] = true
	}
	for _, referrer := range names {
		for _, referent := range g.Edges(referrer) {
			if !known[referent] {
				continue
			}
			adj[referent] = append(adj[referent], referrer)
			indegree[referrer]++
		}
	}

	queue := make([]string, 0, len(names))
	for _, n := range names {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	order = make([]string, 0, len(names))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		next := append([]string{}, adj[n]...)
		sort.Strings(next)
		for _, m := range next {
			indegree[m]--
			if indegree[m] == 0 {
				queue = insertSorted(queue, m)
			}
		}
	}

	return order, len(order) == len(names)
}

// insertSorted inserts v into an already-sorted slice, preserving order.
func insertSorted(s []string, v string) []string {
	i := sort.SearchStrings(s, v)
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
