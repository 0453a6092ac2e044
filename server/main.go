package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/flowedit"
	"github.com/meikuraledutech/flowedit/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		logger.Error("connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var store flowedit.Store = postgres.New(pool)

	app := fiber.New()
	v1 := app.Group("/v1")

	// ── Schema ────────────────────────────────────────────────────────
	v1.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	v1.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── DAG documents ─────────────────────────────────────────────────
	v1.Get("/dags", func(c fiber.Ctx) error {
		dags, err := store.ListDAGs(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(dags)
	})

	v1.Post("/dags", func(c fiber.Ctx) error {
		var d flowedit.DAG
		if err := c.Bind().JSON(&d); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		created, err := store.CreateDAG(c.Context(), &d)
		if errors.Is(err, flowedit.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("dag created", "id", created.ID)
		return c.Status(201).JSON(created)
	})

	v1.Get("/dags/:id", func(c fiber.Ctx) error {
		d, err := store.GetDAG(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if d == nil {
			return c.Status(404).JSON(fiber.Map{"error": "dag not found"})
		}
		return c.JSON(d)
	})

	v1.Put("/dags/:id", func(c fiber.Ctx) error {
		var d flowedit.DAG
		if err := c.Bind().JSON(&d); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		d.ID = c.Params("id")
		updated, err := store.UpdateDAG(c.Context(), &d)
		if errors.Is(err, flowedit.ErrDAGNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "dag not found"})
		}
		if errors.Is(err, flowedit.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("dag updated", "id", updated.ID, "version", updated.Version, "subversion", updated.Subversion)
		return c.JSON(updated)
	})

	v1.Delete("/dags/:id", func(c fiber.Ctx) error {
		if err := store.DeleteDAG(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Versions / publish ────────────────────────────────────────────
	v1.Get("/dags/:id/versions", func(c fiber.Ctx) error {
		versions, err := store.ListVersions(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(versions)
	})

	v1.Post("/dags/:id/publish", func(c fiber.Ctx) error {
		published, err := store.PublishDAG(c.Context(), c.Params("id"))
		if errors.Is(err, flowedit.ErrDAGNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "dag not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("dag published", "id", published.ID, "version", published.Version)
		return c.JSON(published)
	})

	// ── Execute ───────────────────────────────────────────────────────
	v1.Post("/dags/:id/execute", func(c fiber.Ctx) error {
		var input map[string]any
		if err := c.Bind().JSON(&input); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		d, err := store.GetDAG(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if d == nil {
			return c.Status(404).JSON(fiber.Map{"error": "dag not found"})
		}

		order, err := d.ExecutionOrder()
		if errors.Is(err, flowedit.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": "cycle detected"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		logger.Info("dag executed", "id", d.ID, "steps", len(order))
		return c.JSON(fiber.Map{"order": order, "data": input})
	})

	// ── Adapters ──────────────────────────────────────────────────────
	v1.Put("/adapters/:id", func(c fiber.Ctx) error {
		var adapter flowedit.Adapter
		if err := c.Bind().JSON(&adapter); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		adapter.ID = c.Params("id")
		err := store.UpdateAdapter(c.Context(), &adapter)
		if errors.Is(err, flowedit.ErrAdapterNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "adapter not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Tables ────────────────────────────────────────────────────────
	v1.Get("/tables", func(c fiber.Ctx) error {
		tables, err := store.ListTables(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"data": tables})
	})

	v1.Get("/tables/:name", func(c fiber.Ctx) error {
		columns, err := store.GetTable(c.Context(), c.Params("name"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"data": columns})
	})

	logger.Info("listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
}
