package jobserver

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_careerlift/internal/resume"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerOllamaStatus(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ollama_status",
		Description: "Report whether the resume extraction model is reachable: configured model, available models, and a signin URL when the backend requires authentication.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.ollamaStatus)
}

func (t *tools) ollamaStatus(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, resume.Status, error) {
	if t.Ollama == nil {
		return nil, resume.Status{}, fmt.Errorf("generation backend is not configured")
	}
	return nil, t.Ollama.Status(ctx), nil
}
