package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/meikuraledutech/flowedit"
	"github.com/meikuraledutech/flowedit/client"
)

func main() {
	// ── Build a session from scratch ──────────────────────────────────
	session := flowedit.NewSession()
	session.InitializeNewDAG("signup-flow", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email": map[string]any{"type": "string"},
		},
	})

	users := session.AddNode(&flowedit.Step{
		ID:   "query-users",
		Name: "Query Users",
		Data: flowedit.StepData{
			Type:  flowedit.StepQuery,
			Query: &flowedit.QueryMeta{Table: "users", Select: []string{"id", "email"}},
		},
	})
	notify := session.AddNode(&flowedit.Step{
		ID:   "notify",
		Name: "Notify",
		Data: flowedit.StepData{
			Type: flowedit.StepHTTP,
			HTTP: &flowedit.HTTPMeta{Method: flowedit.MethodPost, URL: "https://hooks.example.com/signup"},
		},
	})
	unnamed := session.AddNode(nil) // gets a generated name and query defaults
	fmt.Printf("auto-named step: %s\n", unnamed.Step.Name)

	// ── Connect and watch the dependency arrays stay in sync ──────────
	if err := session.Connect(users.ID, notify.ID); err != nil {
		log.Fatalf("connect: %v", err)
	}
	if err := session.Connect(notify.ID, unnamed.ID); err != nil {
		log.Fatalf("connect: %v", err)
	}

	// Closing the chain would create a cycle and is rejected.
	if err := session.Connect(unnamed.ID, users.ID); !errors.Is(err, flowedit.ErrCycleDetected) {
		log.Fatalf("expected cycle rejection, got %v", err)
	}
	fmt.Println("cycle rejected")

	// ── Reconstruct the document ──────────────────────────────────────
	doc, err := session.DAG()
	if err != nil {
		log.Fatalf("dag: %v", err)
	}
	printJSON(doc)

	order, err := doc.ExecutionOrder()
	if err != nil {
		log.Fatalf("order: %v", err)
	}
	fmt.Printf("execution order: %v\n", order)

	// ── Persist through the workflow API, if one is running ───────────
	baseURL := os.Getenv("FLOWEDIT_API")
	if baseURL == "" {
		fmt.Println("FLOWEDIT_API not set, skipping persistence")
		return
	}

	ctx := context.Background()
	api := client.New(baseURL)

	created, err := api.CreateDAG(ctx, doc)
	if err != nil {
		log.Fatalf("create dag: %v", err)
	}
	fmt.Printf("created %s version %d.%d\n", created.ID, created.Version, created.Subversion)

	published, err := api.PublishDAG(ctx, created.ID)
	if err != nil {
		log.Fatalf("publish dag: %v", err)
	}
	fmt.Printf("published %s as version %d\n", published.ID, published.Version)
}

func printJSON(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Println(string(raw))
}
