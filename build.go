package flowedit

import "sort"

// BuildGraph deterministically projects a DAG document into a renderable
// node/edge set.
//
// Roots are the steps no other step references through Dependents or a
// condition Else branch; they are sorted by id so layout is reproducible.
// Each root is placed by depth-first pre-order traversal: column = depth,
// row = sibling ordinal, first visit wins for steps reachable via multiple
// parents. Steps start at column 1; adapters are stacked vertically at
// column 0 in input order.
func BuildGraph(d *DAG) ([]Node, []Edge) {
	var nodes []Node
	var edges []Edge
	visited := make(map[string]bool)
	edgeSet := make(map[string]bool)

	addEdge := func(source, target string) {
		id := EdgeID(source, target)
		if edgeSet[id] {
			return
		}
		edgeSet[id] = true
		edges = append(edges, NewEdge(source, target))
	}

	var place func(stepID string, column, row int)
	place = func(stepID string, column, row int) {
		if visited[stepID] {
			return
		}
		visited[stepID] = true

		step, ok := d.Steps[stepID]
		if !ok {
			// Dangling reference from a Dependents/Else entry; skip it
			// rather than failing the whole build.
			return
		}

		nodes = append(nodes, Node{
			ID:   step.ID,
			Type: NodeStep,
			Position: Position{
				X: float64(column) * (NodeWidth + GridSize*2),
				Y: float64(row) * (NodeHeight + GridSize*2),
			},
			Step: step,
		})

		for i, target := range step.Dependents {
			addEdge(step.ID, target)
			place(target, column+1, row+i)
		}
		for i, target := range step.Data.Else() {
			addEdge(step.ID, target)
			place(target, column+1, row+i+1)
		}
	}

	for i, root := range rootSteps(d) {
		place(root, 1, i)
	}

	for i, adapter := range d.Adapters {
		nodes = append(nodes, Node{
			ID:   "adapter-" + adapter.ID,
			Type: NodeAdapter,
			Position: Position{
				X: 0,
				Y: float64(i) * (NodeHeight + GridSize*2),
			},
			Adapter: &adapter,
		})
	}

	return nodes, edges
}

// rootSteps returns the ids of steps with no incoming reference from any
// other step's Dependents or condition Else entries, sorted by id.
// Fully isolated steps are always roots and therefore always laid out.
func rootSteps(d *DAG) []string {
	referenced := make(map[string]bool)
	for _, step := range d.Steps {
		for _, target := range step.Dependents {
			referenced[target] = true
		}
		for _, target := range step.Data.Else() {
			referenced[target] = true
		}
	}

	var roots []string
	for id := range d.Steps {
		if !referenced[id] {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}
