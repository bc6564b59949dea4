package gatesim

import "sort"

// topoNode is a combinational component (cell or sub-module) viewed as a
// DAG node: the signals it consumes and the signals it drives. Sequential
// cells never appear here; their outputs are graph sources and their inputs
// graph sinks.
type topoNode struct {
	name string
	comp *Component
	ins  []sigID
	outs []sigID
}

// sortComponents orders nodes such that every producer precedes its
// consumers, breaking ties on component name ascending. A cycle aborts with
// a KindCombinationalCycle error naming a participating component.
func sortComponents(nodes []topoNode) ([]*Component, error) {
	prod := make(map[sigID]int)
	for i, n := range nodes {
		for _, o := range n.outs {
			prod[o] = i
		}
	}

	succ := make([][]int, len(nodes))
	indeg := make([]int, len(nodes))
	for i, n := range nodes {
		seen := make(map[int]bool)
		for _, in := range n.ins {
			p, ok := prod[in]
			// a sub-module lists its inout bits as both ins and outs; that
			// is not feedback through the instance itself
			if !ok || seen[p] || (p == i && n.comp.mod != nil) {
				continue
			}
			seen[p] = true
			succ[p] = append(succ[p], i)
			indeg[i]++
		}
	}

	var ready []int
	for i := range nodes {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]*Component, 0, len(nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool {
			return nodes[ready[a]].name < nodes[ready[b]].name
		})
		i := ready[0]
		ready = ready[1:]
		order = append(order, nodes[i].comp)
		for _, s := range succ[i] {
			if indeg[s]--; indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	if len(order) < len(nodes) {
		// walk unfinished producers back until a node repeats: it is on a cycle
		i, visited := 0, make(map[int]bool)
		for indeg[i] == 0 {
			i++
		}
		for !visited[i] {
			visited[i] = true
			for _, in := range nodes[i].ins {
				if p, ok := prod[in]; ok && indeg[p] > 0 {
					i = p
					break
				}
			}
		}
		name := nodes[i].name
		return nil, errf(KindCombinationalCycle, name, "combinational feedback through %s", name)
	}
	return order, nil
}
