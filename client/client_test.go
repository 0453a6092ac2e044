package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flowedit"
)

func testDAG(id string) *flowedit.DAG {
	return &flowedit.DAG{
		ID:     id,
		Name:   id,
		Status: flowedit.StatusDraft,
		Steps: map[string]*flowedit.Step{
			"A": {
				ID:         "A",
				Name:       "A",
				Dependents: []string{"B"},
				Data:       flowedit.StepData{Type: flowedit.StepQuery, Query: &flowedit.QueryMeta{Table: "users"}},
			},
			"B": {
				ID:           "B",
				Name:         "B",
				Dependencies: []string{"A"},
				Data:         flowedit.StepData{Type: flowedit.StepMap, Map: &flowedit.MapMeta{Function: "identity"}},
			},
		},
		Version:    1,
		Subversion: 1,
	}
}

func TestClient_GetDAG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/dags/doc-1", r.URL.Path)
		json.NewEncoder(w).Encode(testDAG("doc-1"))
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	d, err := c.GetDAG(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", d.ID)
	assert.Len(t, d.Steps, 2)
	assert.Equal(t, flowedit.StepQuery, d.Steps["A"].Data.Type)
}

func TestClient_CreateDAG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/dags", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var d flowedit.DAG
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		d.ID = "assigned-id"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(&d)
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	in := testDAG("")
	created, err := c.CreateDAG(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "assigned-id", created.ID)
	assert.Equal(t, in.Steps, created.Steps)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "cycle detected"})
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	_, err := c.UpdateDAG(context.Background(), testDAG("doc-1"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "cycle detected", apiErr.Message)
}

func TestClient_ListVersionsSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/dags/doc-1/versions", r.URL.Path)
		json.NewEncoder(w).Encode([]flowedit.DAGVersion{
			{Version: 1, Subversion: 1},
			{Version: 2, Subversion: 2},
			{Version: 2, Subversion: 1},
		})
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	versions, err := c.ListVersions(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 2, versions[0].Subversion)
	assert.Equal(t, 1, versions[2].Version)
}

func TestClient_ExecuteDAG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/dags/doc-1/execute", r.URL.Path)

		var input map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "42", input["answer"])

		json.NewEncoder(w).Encode(ExecutionResult{Order: []string{"A", "B"}})
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	result, err := c.ExecuteDAG(context.Background(), "doc-1", map[string]any{"answer": "42"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, result.Order)
}

func TestClient_ExecuteDAG_NilInputSendsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var input map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.NotNil(t, input)
		json.NewEncoder(w).Encode(ExecutionResult{})
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	_, err := c.ExecuteDAG(context.Background(), "doc-1", nil)
	require.NoError(t, err)
}

func TestClient_ListTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/tables":
			json.NewEncoder(w).Encode(map[string]any{"data": []string{"orders", "users"}})
		case "/v1/tables/users":
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "uuid", "email": "text"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")

	tables, err := c.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)

	columns, err := c.GetTable(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, "uuid", columns["id"])
}

func TestClient_PublishDAG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/dags/doc-1/publish", r.URL.Path)
		d := testDAG("doc-1")
		d.Status = flowedit.StatusPublished
		d.Version = 2
		json.NewEncoder(w).Encode(d)
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	published, err := c.PublishDAG(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, flowedit.StatusPublished, published.Status)
	assert.Equal(t, 2, published.Version)
}
