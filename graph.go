package flowedit

import (
	"fmt"
	"math"
)

// Layout geometry for the node grid. Node boxes are sized generously so
// the collision test leaves breathing room around the visual footprint.
const (
	GridSize   = 16
	NodeWidth  = 13 * GridSize
	NodeHeight = 4 * GridSize
)

// NodeType tags the payload carried by a graph node.
type NodeType string

const (
	NodeStep    NodeType = "step"
	NodeAdapter NodeType = "adapter"
)

// Position is a node's top-left coordinate on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the renderable projection of a Step or Adapter. Exactly one of
// Step/Adapter is non-nil, matching Type.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`

	Step    *Step    `json:"step,omitempty"`
	Adapter *Adapter `json:"adapter,omitempty"`
}

// Edge is the renderable projection of one dependency. Its ID is fully
// determined by (Source, Target); the model has no multi-edges.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeID returns the canonical identity key for a directed edge.
func EdgeID(source, target string) string {
	return fmt.Sprintf("edge-%s-%s", source, target)
}

// NewEdge builds an edge with its canonical id.
func NewEdge(source, target string) Edge {
	return Edge{ID: EdgeID(source, target), Source: source, Target: target}
}

// HasEdge reports whether an edge between source and target already exists.
func HasEdge(edges []Edge, source, target string) bool {
	id := EdgeID(source, target)
	for _, e := range edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// WouldCreateCycleOnAdd reports whether adding the directed edge
// source→target to the current edge set would create a cycle. It is a pure
// predicate, safe to call speculatively before committing an edge.
// A self-loop is always a cycle.
func WouldCreateCycleOnAdd(edges []Edge, sourceID, targetID string) bool {
	if sourceID == targetID {
		return true
	}

	adj := make(map[string][]string, len(edges)+1)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	adj[sourceID] = append(adj[sourceID], targetID)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(id string) bool
	dfs = func(id string) bool {
		if onStack[id] {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		onStack[id] = true
		for _, next := range adj[id] {
			if dfs(next) {
				return true
			}
		}
		onStack[id] = false
		return false
	}

	return dfs(sourceID)
}

// DetectCollision reports whether the candidate node sits too close to any
// other node: both center distances under the node box dimensions. A node
// never collides with itself (matched by id).
func DetectCollision(nodes []Node, candidate Node) bool {
	for _, n := range nodes {
		if n.ID == candidate.ID {
			continue
		}
		if math.Abs(n.Position.X-candidate.Position.X) < NodeWidth &&
			math.Abs(n.Position.Y-candidate.Position.Y) < NodeHeight {
			return true
		}
	}
	return false
}

// FindAvailablePosition probes diagonally from the requested position
// (GridSize per step in x, twice that in y) until a collision-free spot is
// found. Unbounded; node counts are human-curated and small.
func FindAvailablePosition(nodes []Node, position Position) Position {
	pos := position
	for i := 0; DetectCollision(nodes, Node{ID: "probe", Position: pos}); i++ {
		pos.X = position.X + float64(i)*GridSize
		pos.Y = position.Y + float64(i)*(GridSize*2)
	}
	return pos
}
