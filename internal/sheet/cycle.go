package sheet

import "slices"

// detectCycle performs a depth-first search over the dependency
// relation starting at name, tracking the full path from the start
// node. It returns the first node at which the relation loops back.
//
// This is the eval-direction check; invalidation runs the complement
// over the dependents relation with a visited accumulator (see
// InvalidateCache). Both are required for full cycle safety since they
// examine the graph from opposite directions.
//
// Termination is guaranteed even over a cyclic graph: a repeated node
// is reported before it is descended into, so no path grows beyond the
// number of distinct entries.
func detectCycle(g GameSheet, start string) (string, bool) {
	return walkCycle(g, []string{start})
}

func walkCycle(g GameSheet, path []string) (string, bool) {
	next := g.Dependencies(path[len(path)-1])
	for _, prev := range path {
		if slices.Contains(next, prev) {
			return prev, true
		}
	}
	for _, dep := range next {
		branch := make([]string, 0, len(path)+1)
		branch = append(branch, path...)
		branch = append(branch, dep)
		if offender, ok := walkCycle(g, branch); ok {
			return offender, true
		}
	}
	return "", false
}
