package jobserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/ingest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerIngestTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_source",
		Description: "Fetch postings from one job source (usajobs, adzuna, remotive, weworkremotely) and upsert them into the graph by apply_url. Returns fetched, created and updated counts with a status: ok, unconfigured, failed or timeout.",
	}, t.ingestSource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_all",
		Description: "Ingest every job source in turn (usajobs, adzuna, remotive, weworkremotely). One failing source never stops the others. Returns new postings per source and the total.",
	}, t.ingestAll)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_seeds",
		Description: "Crawl career pages for job links and extract postings from each page (structured extraction, DOM heuristics, then whole-page text). Replays the offline fixture instead when one is configured or offline is set.",
	}, t.ingestSeeds)
}

func (t *tools) ingestSource(ctx context.Context, _ *mcp.CallToolRequest, input IngestSourceInput) (*mcp.CallToolResult, ingest.SourceResult, error) {
	src := jobs.Source(strings.ToLower(strings.TrimSpace(input.Source)))
	if src == "" {
		return nil, ingest.SourceResult{}, fmt.Errorf("source is required")
	}
	res, err := t.Ingest.IngestSource(ctx, src, jobs.Filters{
		Keyword:  input.Keyword,
		Location: input.Location,
		Remote:   input.Remote,
		Category: input.Category,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, ingest.SourceResult{}, err
	}
	return nil, res, nil
}

func (t *tools) ingestAll(ctx context.Context, _ *mcp.CallToolRequest, input IngestAllInput) (*mcp.CallToolResult, ingest.Report, error) {
	var report ingest.Report
	_ = engine.TrackOperation(ctx, "ingest_all", func(ctx context.Context) error {
		report = t.Ingest.IngestAll(ctx, input.LimitPerSource)
		return nil
	})
	return nil, report, nil
}

func (t *tools) ingestSeeds(ctx context.Context, _ *mcp.CallToolRequest, input IngestSeedsInput) (*mcp.CallToolResult, ingest.SeedReport, error) {
	report, err := t.Ingest.IngestSeeds(ctx, input.Seeds, input.Limit, input.Offline)
	if err != nil {
		return nil, ingest.SeedReport{}, fmt.Errorf("ingest seeds: %w", err)
	}
	return nil, report, nil
}
