package jobserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/resume"
	"github.com/anatolykoptev/go_careerlift/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResumeTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_upload",
		Description: "Upload a resume (.txt, .md, .pdf, .doc, .docx as base64, or plain text). Extracts person, skills, experience and education with the generation model and stores them in the graph. Experience and education replace the previous ones; skills accumulate.",
	}, t.resumeUpload)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_graph",
		Description: "Return the stored person with their skills, experiences and education.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.resumeGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_score",
		Description: "Score every stored job against a person's skills and experience. Returns jobs with ats_score (0-100), best first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.resumeScore)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_list",
		Description: "List uploaded resumes, newest first, optionally for one person.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.resumeList)
}

func (t *tools) resumeUpload(ctx context.Context, _ *mcp.CallToolRequest, input ResumeUploadInput) (*mcp.CallToolResult, resume.UploadResult, error) {
	name, data, err := toolutil.FileInput(input.Filename, input.ContentBase64, input.Text)
	if err != nil {
		return nil, resume.UploadResult{}, err
	}
	res, err := t.Resumes.Upload(ctx, resume.Upload{
		Filename:   name,
		Data:       data,
		PersonName: strings.TrimSpace(input.PersonName),
		ResumeName: strings.TrimSpace(input.ResumeName),
	})
	if err != nil {
		return nil, resume.UploadResult{}, fmt.Errorf("resume upload: %w", err)
	}
	return nil, res, nil
}

func (t *tools) resumeGraph(ctx context.Context, _ *mcp.CallToolRequest, input PersonInput) (*mcp.CallToolResult, resume.PersonGraph, error) {
	if strings.TrimSpace(input.PersonName) == "" {
		return nil, resume.PersonGraph{}, fmt.Errorf("person_name is required")
	}
	g, err := t.Resumes.Graph(ctx, input.PersonName)
	if err != nil {
		return nil, resume.PersonGraph{}, err
	}
	return nil, g, nil
}

func (t *tools) resumeScore(ctx context.Context, _ *mcp.CallToolRequest, input PersonInput) (*mcp.CallToolResult, ResumeScoreOutput, error) {
	if strings.TrimSpace(input.PersonName) == "" {
		return nil, ResumeScoreOutput{}, fmt.Errorf("person_name is required")
	}
	scored, err := t.Resumes.Score(ctx, input.PersonName)
	if err != nil {
		return nil, ResumeScoreOutput{}, err
	}
	return nil, ResumeScoreOutput{PersonName: input.PersonName, Jobs: scored}, nil
}

func (t *tools) resumeList(ctx context.Context, _ *mcp.CallToolRequest, input ResumeListInput) (*mcp.CallToolResult, ResumeListOutput, error) {
	list, err := t.Resumes.List(ctx, strings.TrimSpace(input.PersonName))
	if err != nil {
		return nil, ResumeListOutput{}, err
	}
	if list == nil {
		list = []resume.Info{}
	}
	return nil, ResumeListOutput{Resumes: list}, nil
}
