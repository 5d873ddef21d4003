package jobserver

import (
	"context"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerJobList(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "job_list",
		Description: "List stored job postings, newest first. Filters: q (title/description), location, source, remote_only. With resume_id every job carries an ats_score (0-100) and results are sorted best match first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.jobList)
}

func (t *tools) jobList(ctx context.Context, _ *mcp.CallToolRequest, input JobListInput) (*mcp.CallToolResult, JobListOutput, error) {
	f := jobs.ListFilter{
		Query:      strings.TrimSpace(input.Query),
		Location:   strings.TrimSpace(input.Location),
		Source:     jobs.Source(strings.ToLower(strings.TrimSpace(input.Source))),
		RemoteOnly: input.RemoteOnly,
		Limit:      toolutil.Clamp(input.Limit, jobs.DefaultListLimit, jobs.MaxListLimit),
	}

	key := toolutil.ListingKey(f.Query, f.Location, string(f.Source),
		strconv.FormatBool(f.RemoteOnly), strconv.Itoa(f.Limit))
	list, err := toolutil.Cached(ctx, key, func() ([]jobs.StoredJob, error) {
		return t.Jobs.List(ctx, f)
	})
	if err != nil {
		return nil, JobListOutput{}, err
	}
	if list == nil {
		list = []jobs.StoredJob{}
	}

	if input.ResumeID != "" {
		if err := t.Resumes.Rank(ctx, input.ResumeID, list); err != nil {
			return nil, JobListOutput{}, err
		}
	}

	out := JobListOutput{Jobs: list, Count: len(list)}
	if jobs.HasSource(list, jobs.SourceAdzuna) {
		out.Attribution = jobs.AdzunaAttribution
	}
	return nil, out, nil
}
