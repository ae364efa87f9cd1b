package dag

import "slices"

// StronglyConnected returns the strongly connected components of the present
// nodes (Tarjan). Components are sorted internally and ordered by their
// smallest member. A single node is a component; it is cyclic only when it
// has an edge to itself (see SelfLoop).
func StronglyConnected(g Graph) [][]ModuleID {
	n := len(g.Edges)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var (
		stack []ModuleID
		comps [][]ModuleID
		next  int
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, toID(v))
		onStack[v] = true

		for _, w := range g.Edges[v] {
			wi := int(w)
			if !g.Present[wi] {
				continue
			}
			if index[wi] < 0 {
				strongConnect(wi)
				low[v] = min(low[v], low[wi])
			} else if onStack[wi] {
				low[v] = min(low[v], index[wi])
			}
		}

		if low[v] == index[v] {
			var comp []ModuleID
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[int(top)] = false
				comp = append(comp, top)
				if int(top) == v {
					break
				}
			}
			slices.Sort(comp)
			comps = append(comps, comp)
		}
	}

	for v := range n {
		if g.Present[v] && index[v] < 0 {
			strongConnect(v)
		}
	}
	slices.SortFunc(comps, func(a, b []ModuleID) int { return int(a[0]) - int(b[0]) })
	return comps
}

// SelfLoop reports whether id has an edge to itself.
func (g Graph) SelfLoop(id ModuleID) bool {
	return slices.Contains(g.Edges[int(id)], id)
}
