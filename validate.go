package flowedit

import "sort"

// adjacency builds the step-id adjacency list over both dependency
// channels: Dependents and condition Else branches. Targets missing from
// the step map are skipped.
func (d *DAG) adjacency() map[string][]string {
	adj := make(map[string][]string, len(d.Steps))
	for id := range d.Steps {
		adj[id] = nil
	}
	for id, step := range d.Steps {
		for _, target := range step.Dependents {
			if _, ok := d.Steps[target]; ok {
				adj[id] = append(adj[id], target)
			}
		}
		for _, target := range step.Data.Else() {
			if _, ok := d.Steps[target]; ok {
				adj[id] = append(adj[id], target)
			}
		}
	}
	return adj
}

// Validate checks that the document's steps form a directed acyclic graph
// across both the Dependents and condition Else channels.
// Returns ErrCycleDetected otherwise.
func (d *DAG) Validate() error {
	adj := d.adjacency()

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(adj))

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for id := range adj {
		if state[id] == unvisited {
			if dfs(id) {
				return ErrCycleDetected
			}
		}
	}

	return nil
}

// ExecutionOrder returns a stable topological ordering of the document's
// step ids (Kahn's algorithm, ties broken by id). Returns ErrCycleDetected
// if the document is not acyclic.
func (d *DAG) ExecutionOrder() ([]string, error) {
	adj := d.adjacency()

	indegree := make(map[string]int, len(adj))
	for id := range adj {
		indegree[id] = 0
	}
	for _, targets := range adj {
		for _, t := range targets {
			indegree[t]++
		}
	}

	ready := make([]string, 0, len(indegree))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(indegree))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		changed := false
		for _, t := range adj[id] {
			indegree[t]--
			if indegree[t] == 0 {
				ready = append(ready, t)
				changed = true
			}
		}
		if changed {
			sort.Strings(ready)
		}
	}

	if len(order) != len(indegree) {
		return nil, ErrCycleDetected
	}
	return order, nil
}
