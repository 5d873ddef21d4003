package jobserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/resume"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerSavedJobTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_job",
		Description: "Save a stored job to a resume with optional notes. Saving again refreshes saved_at and notes.",
	}, t.saveJob)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "saved_jobs",
		Description: "List jobs saved to a resume, newest first, each with an ats_score against the resume owner.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.savedJobs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_saved_job",
		Description: "Remove a saved job from a resume.",
	}, t.removeSavedJob)
}

func requireIDs(resumeID, applyURL string) error {
	if strings.TrimSpace(resumeID) == "" {
		return fmt.Errorf("resume_id is required")
	}
	if strings.TrimSpace(applyURL) == "" {
		return fmt.Errorf("apply_url is required")
	}
	return nil
}

func (t *tools) saveJob(ctx context.Context, _ *mcp.CallToolRequest, input SaveJobInput) (*mcp.CallToolResult, MessageOutput, error) {
	if err := requireIDs(input.ResumeID, input.ApplyURL); err != nil {
		return nil, MessageOutput{}, err
	}
	if err := t.Resumes.SaveJob(ctx, input.ResumeID, input.ApplyURL, input.Notes); err != nil {
		return nil, MessageOutput{}, err
	}
	return nil, MessageOutput{Message: "Job saved", ResumeID: input.ResumeID, ApplyURL: input.ApplyURL}, nil
}

func (t *tools) savedJobs(ctx context.Context, _ *mcp.CallToolRequest, input SavedJobsInput) (*mcp.CallToolResult, resume.SavedJobs, error) {
	if strings.TrimSpace(input.ResumeID) == "" {
		return nil, resume.SavedJobs{}, fmt.Errorf("resume_id is required")
	}
	out, err := t.Resumes.SavedJobs(ctx, input.ResumeID)
	if err != nil {
		return nil, resume.SavedJobs{}, err
	}
	return nil, out, nil
}

func (t *tools) removeSavedJob(ctx context.Context, _ *mcp.CallToolRequest, input RemoveSavedJobInput) (*mcp.CallToolResult, MessageOutput, error) {
	if err := requireIDs(input.ResumeID, input.ApplyURL); err != nil {
		return nil, MessageOutput{}, err
	}
	if err := t.Resumes.RemoveSavedJob(ctx, input.ResumeID, input.ApplyURL); err != nil {
		return nil, MessageOutput{}, err
	}
	return nil, MessageOutput{Message: "Saved job removed", ResumeID: input.ResumeID, ApplyURL: input.ApplyURL}, nil
}
