package flowedit

import (
	"strings"

	"github.com/google/uuid"
)

// Session is an in-memory editing session over one DAG document. It owns
// the authoritative node/edge arrays while the editor is open; the
// document itself is only reconstructed from them on demand via DAG().
//
// A Session is not safe for concurrent use. Editor events are expected to
// be serialized by the caller, so mutations run synchronously to
// completion with no internal locking.
type Session struct {
	dag        *DAG
	nodes      []Node
	edges      []Edge
	selectedID string
}

// NewSession creates an empty session with no document loaded.
func NewSession() *Session {
	return &Session{}
}

// SetDAG loads a fetched document into the session, replacing any previous
// state. Nodes and edges are projected via BuildGraph.
func (s *Session) SetDAG(d *DAG) {
	s.nodes, s.edges = BuildGraph(d)
	s.dag = d
	s.selectedID = ""
}

// InitializeNewDAG resets the session to an empty draft document, used by
// the create flow before the first save round-trip.
func (s *Session) InitializeNewDAG(id string, inputSchema map[string]any) {
	if inputSchema == nil {
		inputSchema = map[string]any{}
	}
	s.dag = &DAG{
		ID:          id,
		Name:        id,
		Steps:       map[string]*Step{},
		InputSchema: inputSchema,
		Adapters:    []Adapter{},
		Version:     1,
		Subversion:  1,
		Status:      StatusDraft,
	}
	s.nodes = nil
	s.edges = nil
	s.selectedID = ""
}

// DAG reconstructs the full document from the current node state.
// Returns ErrDAGNotSet if no document was loaded or initialized; that is a
// programming error, not a runtime condition to recover from.
func (s *Session) DAG() (*DAG, error) {
	if s.dag == nil {
		return nil, ErrDAGNotSet
	}
	d := *s.dag
	d.Steps = ReconstructSteps(s.nodes)
	return &d, nil
}

// Nodes returns a copy of the current node array.
func (s *Session) Nodes() []Node {
	return append([]Node(nil), s.nodes...)
}

// Edges returns a copy of the current edge array.
func (s *Session) Edges() []Edge {
	return append([]Edge(nil), s.edges...)
}

// Select marks a node as the current selection; an empty id clears it.
func (s *Session) Select(nodeID string) {
	s.selectedID = nodeID
}

// SelectedNode returns the currently selected node, or nil.
func (s *Session) SelectedNode() *Node {
	for i := range s.nodes {
		if s.nodes[i].ID == s.selectedID {
			return &s.nodes[i]
		}
	}
	return nil
}

// AddNode places a new step node at a collision-free position near the
// origin. A nil step gets full defaults: a fresh uuid, a generated
// "Adjective Animal" name, and an empty query configuration. Fields set on
// the given step are kept. The document itself is untouched until DAG()
// is called for an explicit save.
func (s *Session) AddNode(step *Step) *Node {
	pos := FindAvailablePosition(s.nodes, Position{})

	if step == nil {
		step = &Step{}
	}
	st := step.Clone()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if strings.TrimSpace(st.Name) == "" {
		st.Name = generateName()
	}
	if st.Data.Type == "" {
		st.Data = StepData{
			Type:  StepQuery,
			Query: &QueryMeta{Where: map[string]any{}, Select: []string{}},
		}
	}

	node := Node{ID: st.ID, Type: NodeStep, Position: pos, Step: st}
	s.nodes = append(s.nodes, node)
	return &s.nodes[len(s.nodes)-1]
}

// RemoveNode drops a node together with every edge it touches, and scrubs
// the removed id from the dependency arrays of the remaining steps so no
// dangling references survive. Returns ErrNodeNotFound for unknown ids.
func (s *Session) RemoveNode(nodeID string) error {
	found := false
	nodes := s.nodes[:0:0]
	for _, n := range s.nodes {
		if n.ID == nodeID {
			found = true
			continue
		}
		if n.Type == NodeStep && n.Step != nil {
			step := n.Step.Clone()
			step.Dependencies = removeString(step.Dependencies, nodeID)
			step.Dependents = removeString(step.Dependents, nodeID)
			n.Step = step
		}
		nodes = append(nodes, n)
	}
	if !found {
		return ErrNodeNotFound
	}

	edges := s.edges[:0:0]
	for _, e := range s.edges {
		if e.Source == nodeID || e.Target == nodeID {
			continue
		}
		edges = append(edges, e)
	}

	s.nodes = nodes
	s.edges = edges
	if s.selectedID == nodeID {
		s.selectedID = ""
	}
	return nil
}

// UpdateNode replaces a step node's payload and mirrors the change into
// the document's step map. This is the one mutation path that keeps the
// document continuously in sync instead of lazily reconciled.
func (s *Session) UpdateNode(nodeID string, step *Step) error {
	for i := range s.nodes {
		if s.nodes[i].ID != nodeID {
			continue
		}
		s.nodes[i].Step = step
		if s.dag != nil {
			if s.dag.Steps == nil {
				s.dag.Steps = map[string]*Step{}
			}
			s.dag.Steps[nodeID] = step
		}
		return nil
	}
	return ErrNodeNotFound
}

// MoveNode repositions a node, typically on drag-stop.
func (s *Session) MoveNode(nodeID string, pos Position) error {
	for i := range s.nodes {
		if s.nodes[i].ID == nodeID {
			s.nodes[i].Position = pos
			return nil
		}
	}
	return ErrNodeNotFound
}

// AddEdge validates and commits an edge. The edge id is canonicalized from
// its endpoints. Rejections are explicit: ErrSelfLoop, ErrDuplicateEdge or
// ErrCycleDetected, with no state change.
func (s *Session) AddEdge(e Edge) error {
	if e.Source == e.Target {
		return ErrSelfLoop
	}
	if HasEdge(s.edges, e.Source, e.Target) {
		return ErrDuplicateEdge
	}
	if WouldCreateCycleOnAdd(s.edges, e.Source, e.Target) {
		return ErrCycleDetected
	}

	s.edges = append(s.edges, NewEdge(e.Source, e.Target))
	s.nodes = SyncNodesOnEdgeAdd(s.nodes, e.Source, e.Target)
	return nil
}

// Connect adapts a raw connect gesture into a canonical edge and delegates
// to AddEdge, inheriting its validation.
func (s *Session) Connect(source, target string) error {
	return s.AddEdge(NewEdge(source, target))
}

// RemoveEdge removes an edge by id and undoes its dependency sync.
// Returns ErrEdgeNotFound for unknown ids.
func (s *Session) RemoveEdge(edgeID string) error {
	for i, e := range s.edges {
		if e.ID != edgeID {
			continue
		}
		s.nodes = SyncNodesOnEdgeRemove(s.nodes, e.Source, e.Target)
		s.edges = append(s.edges[:i:i], s.edges[i+1:]...)
		return nil
	}
	return ErrEdgeNotFound
}

// WouldCreateCycle is the pre-flight cycle check bound to the session's
// current edge set, for callers that want user-facing feedback before
// attempting AddEdge.
func (s *Session) WouldCreateCycle(sourceID, targetID string) bool {
	return WouldCreateCycleOnAdd(s.edges, sourceID, targetID)
}

// DetectCollision tests a candidate node against the session's nodes.
func (s *Session) DetectCollision(candidate Node) bool {
	return DetectCollision(s.nodes, candidate)
}

// FindAvailablePosition finds a collision-free position starting from the
// given one, against the session's nodes.
func (s *Session) FindAvailablePosition(pos Position) Position {
	return FindAvailablePosition(s.nodes, pos)
}
