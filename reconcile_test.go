package flowedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructSteps_RoundTrip(t *testing.T) {
	d := &DAG{
		ID: "round",
		Steps: map[string]*Step{
			"A": queryStep("A", "B"),
			"B": queryStep("B"),
		},
	}

	nodes, edges := BuildGraph(d)
	require.Len(t, edges, 1)
	assert.Equal(t, "edge-A-B", edges[0].ID)

	steps := ReconstructSteps(nodes)
	assert.Equal(t, d.Steps, steps, "positions are dropped, step fields survive")
}

func TestReconstructSteps_ExcludesAdapters(t *testing.T) {
	nodes := []Node{
		{ID: "A", Type: NodeStep, Step: queryStep("A")},
		{
			ID:      "adapter-x",
			Type:    NodeAdapter,
			Adapter: &Adapter{ID: "x", Type: AdapterCron, Cron: &CronAdapterMeta{Schedule: "@hourly"}},
		},
	}

	steps := ReconstructSteps(nodes)

	require.Len(t, steps, 1)
	assert.Contains(t, steps, "A")
}

func TestSyncNodesOnEdge_Symmetry(t *testing.T) {
	nodes := []Node{
		{ID: "A", Type: NodeStep, Step: queryStep("A")},
		{ID: "B", Type: NodeStep, Step: queryStep("B")},
	}

	synced := SyncNodesOnEdgeAdd(nodes, "A", "B")

	assert.Contains(t, nodeByID(t, synced, "A").Step.Dependents, "B")
	assert.Contains(t, nodeByID(t, synced, "B").Step.Dependencies, "A")

	removed := SyncNodesOnEdgeRemove(synced, "A", "B")

	assert.NotContains(t, nodeByID(t, removed, "A").Step.Dependents, "B")
	assert.NotContains(t, nodeByID(t, removed, "B").Step.Dependencies, "A")
}

func TestSyncNodesOnEdgeAdd_Idempotent(t *testing.T) {
	nodes := []Node{
		{ID: "A", Type: NodeStep, Step: queryStep("A")},
		{ID: "B", Type: NodeStep, Step: queryStep("B")},
	}

	synced := SyncNodesOnEdgeAdd(nodes, "A", "B")
	synced = SyncNodesOnEdgeAdd(synced, "A", "B")

	assert.Equal(t, []string{"B"}, nodeByID(t, synced, "A").Step.Dependents)
	assert.Equal(t, []string{"A"}, nodeByID(t, synced, "B").Step.Dependencies)
}

func TestSyncNodesOnEdge_IgnoresAdapterNodes(t *testing.T) {
	adapter := &Adapter{ID: "A", Type: AdapterCron, Cron: &CronAdapterMeta{Schedule: "@daily"}}
	nodes := []Node{
		{ID: "A", Type: NodeAdapter, Adapter: adapter},
		{ID: "B", Type: NodeStep, Step: queryStep("B")},
	}

	synced := SyncNodesOnEdgeAdd(nodes, "A", "B")

	assert.Nil(t, nodeByID(t, synced, "A").Step)
	assert.Contains(t, nodeByID(t, synced, "B").Step.Dependencies, "A")
}

func TestSyncNodesOnEdge_DoesNotMutateInput(t *testing.T) {
	original := queryStep("A")
	nodes := []Node{{ID: "A", Type: NodeStep, Step: original}}

	SyncNodesOnEdgeAdd(nodes, "A", "B")

	assert.Empty(t, original.Dependents, "sync returns updated copies")
}
