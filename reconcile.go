package flowedit

// ReconstructSteps projects the current node set back to the document's
// step map. Adapter nodes are excluded and positions are dropped: the
// persisted document carries no layout, it is rebuilt fresh on every load.
func ReconstructSteps(nodes []Node) map[string]*Step {
	steps := make(map[string]*Step)
	for _, n := range nodes {
		if n.Type != NodeStep || n.Step == nil {
			continue
		}
		steps[n.ID] = n.Step
	}
	return steps
}

// SyncNodesOnEdgeAdd records a new edge source→target in the step
// dependency arrays: target joins source's Dependents, source joins
// target's Dependencies, with set semantics. Non-step nodes pass through
// untouched. This keeps the bidirectional relation intact when edges are
// manipulated directly on the graph rather than through a form.
func SyncNodesOnEdgeAdd(nodes []Node, source, target string) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		switch {
		case n.ID == source && n.Type == NodeStep && n.Step != nil:
			step := n.Step.Clone()
			step.Dependents = appendUnique(step.Dependents, target)
			n.Step = step
		case n.ID == target && n.Type == NodeStep && n.Step != nil:
			step := n.Step.Clone()
			step.Dependencies = appendUnique(step.Dependencies, source)
			n.Step = step
		}
		out[i] = n
	}
	return out
}

// SyncNodesOnEdgeRemove undoes SyncNodesOnEdgeAdd for the edge
// source→target.
func SyncNodesOnEdgeRemove(nodes []Node, source, target string) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		switch {
		case n.ID == source && n.Type == NodeStep && n.Step != nil:
			step := n.Step.Clone()
			step.Dependents = removeString(step.Dependents, target)
			n.Step = step
		case n.ID == target && n.Type == NodeStep && n.Step != nil:
			step := n.Step.Clone()
			step.Dependencies = removeString(step.Dependencies, source)
			n.Step = step
		}
		out[i] = n
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeString(ids []string, id string) []string {
	out := ids[:0:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
