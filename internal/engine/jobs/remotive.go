package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

const remotiveAPI = "https://remotive.com/api/remote-jobs"

// Remotive fetches remote postings from the open Remotive API.
type Remotive struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (a *Remotive) Name() Source    { return SourceRemotive }
func (a *Remotive) Configured() bool { return true }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID                        flexString `json:"id"`
	URL                       string     `json:"url"`
	Title                     string     `json:"title"`
	CompanyName               string     `json:"company_name"`
	Category                  string     `json:"category"`
	JobType                   string     `json:"job_type"`
	PublicationDate           string     `json:"publication_date"`
	CandidateRequiredLocation string     `json:"candidate_required_location"`
	Salary                    string     `json:"salary"`
	Description               string     `json:"description"`
}

// Fetch implements Adapter. Supports Keyword, Category, Company and Limit.
func (a *Remotive) Fetch(ctx context.Context, f Filters) ([]Posting, error) {
	engine.IncrRemotiveRequests()

	params := url.Values{}
	if f.Keyword != "" {
		params.Set("search", f.Keyword)
	}
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if f.Company != "" {
		params.Set("company_name", f.Company)
	}
	base := a.BaseURL
	if base == "" {
		base = remotiveAPI
	}
	body, err := getBody(ctx, a.HTTPClient, base, params, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("remotive: %w", err)
	}

	var resp remotiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("remotive: parse response: %w", err)
	}
	jobs := resp.Jobs
	if f.Limit > 0 && len(jobs) > f.Limit {
		jobs = jobs[:f.Limit]
	}
	out := make([]Posting, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.posting())
	}
	slog.Debug("remotive: fetch complete", slog.Int("raw", len(resp.Jobs)), slog.Int("jobs", len(out)))
	return out, nil
}

func (j remotiveJob) posting() Posting {
	location := j.CandidateRequiredLocation
	if location == "" {
		location = "Remote"
	}
	employment := j.JobType
	if employment == "" {
		employment = "Full-time"
	}
	if j.Category != "" {
		employment += " - " + j.Category
	}
	return Posting{
		Title:          Str(j.Title),
		Company:        Str(j.CompanyName),
		Location:       Str(location),
		EmploymentType: Str(employment),
		Remote:         Bool(true),
		SalaryText:     Str(j.Salary),
		PostedAt:       ParseTime(j.PublicationDate),
		ApplyURL:       j.URL,
		SourceURL:      Str(j.URL),
		Description:    Str(j.Description),
		Source:         SourceRemotive,
		SourceJobID:    Str(j.ID.String()),
	}
}
