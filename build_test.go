package flowedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryStep(id string, dependents ...string) *Step {
	return &Step{
		ID:         id,
		Name:       id,
		Dependents: dependents,
		Data: StepData{
			Type:  StepQuery,
			Query: &QueryMeta{Table: "users"},
		},
	}
}

func nodeByID(t *testing.T, nodes []Node, id string) Node {
	t.Helper()
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %q not found", id)
	return Node{}
}

func TestBuildGraph_LinearChain(t *testing.T) {
	d := &DAG{
		ID: "chain",
		Steps: map[string]*Step{
			"A": queryStep("A", "B"),
			"B": queryStep("B", "C"),
			"C": queryStep("C"),
		},
	}

	nodes, edges := BuildGraph(d)

	require.Len(t, nodes, 3)
	require.Len(t, edges, 2)
	assert.Equal(t, "edge-A-B", edges[0].ID)
	assert.Equal(t, "edge-B-C", edges[1].ID)

	colWidth := float64(NodeWidth + GridSize*2)
	assert.Equal(t, 1*colWidth, nodeByID(t, nodes, "A").Position.X)
	assert.Equal(t, 2*colWidth, nodeByID(t, nodes, "B").Position.X)
	assert.Equal(t, 3*colWidth, nodeByID(t, nodes, "C").Position.X)
}

func TestBuildGraph_RootDetection(t *testing.T) {
	d := &DAG{
		Steps: map[string]*Step{
			"A":        queryStep("A", "B"),
			"B":        queryStep("B"),
			"isolated": queryStep("isolated"),
		},
	}

	roots := rootSteps(d)
	assert.Equal(t, []string{"A", "isolated"}, roots,
		"unreferenced steps are roots, sorted by id")

	nodes, _ := BuildGraph(d)
	require.Len(t, nodes, 3, "isolated steps are laid out, never dropped")
}

func TestBuildGraph_DanglingReferenceSkipped(t *testing.T) {
	d := &DAG{
		Steps: map[string]*Step{
			"A": queryStep("A", "ghost"),
		},
	}

	nodes, edges := BuildGraph(d)

	require.Len(t, nodes, 1)
	// The edge is still synthesized; only the node placement is skipped.
	require.Len(t, edges, 1)
	assert.Equal(t, "edge-A-ghost", edges[0].ID)
}

func TestBuildGraph_ConditionElseChannel(t *testing.T) {
	cond := &Step{
		ID:         "cond",
		Name:       "cond",
		Dependents: []string{"thenStep"},
		Data: StepData{
			Type: StepCondition,
			Condition: &ConditionMeta{
				If:   Condition{Left: ".count", Operator: OpGt, Right: "0"},
				Then: []string{"thenStep"},
				Else: []string{"elseStep"},
			},
		},
	}
	d := &DAG{
		Steps: map[string]*Step{
			"cond":     cond,
			"thenStep": queryStep("thenStep"),
			"elseStep": queryStep("elseStep"),
		},
	}

	nodes, edges := BuildGraph(d)

	require.Len(t, nodes, 3)
	require.Len(t, edges, 2)
	assert.True(t, HasEdge(edges, "cond", "thenStep"))
	assert.True(t, HasEdge(edges, "cond", "elseStep"))
}

func TestBuildGraph_DualChannelEdgeDeduped(t *testing.T) {
	// Target reachable through both Dependents and Else must yield one edge.
	cond := &Step{
		ID:         "cond",
		Dependents: []string{"B"},
		Data: StepData{
			Type: StepCondition,
			Condition: &ConditionMeta{
				If:   Condition{Left: "x", Operator: OpEq, Right: "y"},
				Else: []string{"B"},
			},
		},
	}
	d := &DAG{
		Steps: map[string]*Step{
			"cond": cond,
			"B":    queryStep("B"),
		},
	}

	_, edges := BuildGraph(d)
	require.Len(t, edges, 1)
	assert.Equal(t, "edge-cond-B", edges[0].ID)
}

func TestBuildGraph_DiamondPlacedOnce(t *testing.T) {
	d := &DAG{
		Steps: map[string]*Step{
			"A": queryStep("A", "B", "C"),
			"B": queryStep("B", "D"),
			"C": queryStep("C", "D"),
			"D": queryStep("D"),
		},
	}

	nodes, edges := BuildGraph(d)

	require.Len(t, nodes, 4, "multi-parent step is emitted exactly once")
	require.Len(t, edges, 4)

	// First-visit wins: D is placed by B, the first parent traversed.
	colWidth := float64(NodeWidth + GridSize*2)
	assert.Equal(t, 3*colWidth, nodeByID(t, nodes, "D").Position.X)
}

func TestBuildGraph_Adapters(t *testing.T) {
	d := &DAG{
		Steps: map[string]*Step{"A": queryStep("A")},
		Adapters: []Adapter{
			{
				ID:   "hook",
				Name: "hook",
				Type: AdapterHTTP,
				HTTP: &HTTPAdapterMeta{Method: MethodPost, Path: "/run", AuthType: AuthNone},
			},
			{
				ID:   "nightly",
				Name: "nightly",
				Type: AdapterCron,
				Cron: &CronAdapterMeta{Schedule: "0 2 * * *"},
			},
		},
	}

	nodes, edges := BuildGraph(d)

	require.Len(t, nodes, 3)
	assert.Empty(t, edges, "adapters carry no dependency edges")

	first := nodeByID(t, nodes, "adapter-hook")
	second := nodeByID(t, nodes, "adapter-nightly")
	assert.Equal(t, NodeAdapter, first.Type)
	assert.Equal(t, 0.0, first.Position.X, "column 0 is reserved for adapters")
	assert.Equal(t, 0.0, second.Position.X)
	assert.Greater(t, second.Position.Y, first.Position.Y, "adapters stack vertically in input order")

	// Steps start at column 1, leaving the adapter column free.
	assert.Equal(t, float64(NodeWidth+GridSize*2), nodeByID(t, nodes, "A").Position.X)
}
