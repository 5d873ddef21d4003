// go_careerlift: job ingestion and résumé graph MCP server.
//
// Pulls postings from job APIs and career pages into a graph, extracts
// structured facts from uploaded résumés, and scores jobs against them.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_careerlift/internal/app"
	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/jobserver"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := app.LoadConfig()
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.StartScheduler(ctx); err != nil {
		slog.Error("scheduler init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_careerlift",
		slog.String("port", cfg.Port),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_careerlift",
		Version: version,
	}, nil)

	n := jobserver.RegisterTools(server, a.Deps())
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_careerlift",
		Version:      version,
		Port:         cfg.Port,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}
