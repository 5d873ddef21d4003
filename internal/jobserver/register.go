// Package jobserver exposes ingestion, job listing and résumé operations as
// MCP tools.
package jobserver

import (
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/ingest"
	"github.com/anatolykoptev/go_careerlift/internal/resume"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps are the services behind the tools. Ollama may be nil.
type Deps struct {
	Ingest  *ingest.Orchestrator
	Jobs    *jobs.Repository
	Resumes *resume.Service
	Ollama  *resume.Ollama
}

type tools struct {
	Deps
}

// RegisterTools registers every tool on server and returns how many.
func RegisterTools(server *mcp.Server, d Deps) int {
	t := &tools{Deps: d}
	registerIngestTools(server, t)
	registerJobList(server, t)
	registerResumeTools(server, t)
	registerSavedJobTools(server, t)
	registerOllamaStatus(server, t)
	return 12
}
