package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

const (
	usaJobsAPI          = "https://data.usajobs.gov/api/search"
	usaJobsDefaultEmail = "noreply@example.com"
	usaJobsMaxPage      = 500
)

// USAJobs fetches federal postings. The API authenticates with an
// Authorization-Key header and requires a contact email as User-Agent.
type USAJobs struct {
	APIKey     string
	Email      string
	BaseURL    string
	HTTPClient *http.Client
}

func (a *USAJobs) Name() Source      { return SourceUSAJobs }
func (a *USAJobs) Configured() bool { return a.APIKey != "" }

type usaJobsResponse struct {
	SearchResult struct {
		SearchResultItems []struct {
			MatchedObjectDescriptor usaJobsDescriptor `json:"MatchedObjectDescriptor"`
		} `json:"SearchResultItems"`
	} `json:"SearchResult"`
}

type usaJobsDescriptor struct {
	PositionID       flexString `json:"PositionID"`
	PositionTitle    string     `json:"PositionTitle"`
	PositionURI      string     `json:"PositionURI"`
	ApplyURI         []string   `json:"ApplyURI"`
	OrganizationName string     `json:"OrganizationName"`
	PositionLocation []struct {
		CityName  string `json:"CityName"`
		StateCode string `json:"StateCode"`
	} `json:"PositionLocation"`
	PositionRemoteIndicator flexString `json:"PositionRemoteIndicator"`
	PositionSchedule        []struct {
		Name string `json:"Name"`
	} `json:"PositionSchedule"`
	SalaryMin            flexString `json:"PositionRemumerationMinimumAmount"`
	SalaryMax            flexString `json:"PositionRemumerationMaximumAmount"`
	PublicationStartDate string     `json:"PublicationStartDate"`
	UserArea             struct {
		Details struct {
			JobSummary string `json:"JobSummary"`
		} `json:"Details"`
	} `json:"UserArea"`
}

// Fetch implements Adapter. Supports Keyword, Location, Remote and Limit.
func (a *USAJobs) Fetch(ctx context.Context, f Filters) ([]Posting, error) {
	if !a.Configured() {
		slog.Debug("usajobs: api key not configured, skipping")
		return nil, nil
	}
	engine.IncrUSAJobsRequests()

	limit := f.Limit
	if limit <= 0 || limit > usaJobsMaxPage {
		limit = usaJobsMaxPage
	}
	params := url.Values{}
	params.Set("Keyword", f.Keyword)
	params.Set("ResultsPerPage", strconv.Itoa(limit))
	params.Set("Page", "1")
	if f.Location != "" {
		params.Set("LocationName", f.Location)
	}
	if f.Remote {
		params.Set("RemoteIndicator", "True")
	}

	email := a.Email
	if email == "" {
		email = usaJobsDefaultEmail
	}
	base := a.BaseURL
	if base == "" {
		base = usaJobsAPI
	}
	body, err := getBody(ctx, a.HTTPClient, base, params, map[string]string{
		"User-Agent":        email,
		"Authorization-Key": a.APIKey,
		"Accept":            "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("usajobs: %w", err)
	}

	var resp usaJobsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("usajobs: parse response: %w", err)
	}
	items := resp.SearchResult.SearchResultItems
	out := make([]Posting, 0, len(items))
	for _, it := range items {
		out = append(out, it.MatchedObjectDescriptor.posting())
	}
	slog.Debug("usajobs: fetch complete", slog.Int("jobs", len(out)))
	return out, nil
}

func (d usaJobsDescriptor) posting() Posting {
	var location string
	if len(d.PositionLocation) > 0 {
		city, state := d.PositionLocation[0].CityName, d.PositionLocation[0].StateCode
		if city != "" && state != "" {
			location = city + ", " + state
		} else {
			location = city + state
		}
	}

	var employment string
	if len(d.PositionSchedule) > 0 {
		employment = d.PositionSchedule[0].Name
	}

	var salary string
	switch minS, maxS := d.SalaryMin.String(), d.SalaryMax.String(); {
	case minS != "" && maxS != "":
		salary = fmt.Sprintf("$%s - $%s", minS, maxS)
	case minS != "":
		salary = "From $" + minS
	case maxS != "":
		salary = "Up to $" + maxS
	}

	var apply string
	if len(d.ApplyURI) > 0 {
		apply = d.ApplyURI[0]
	}
	if apply == "" {
		apply = d.PositionURI
	}

	// An absent indicator stays unknown unless the text says remote.
	var remote *bool
	switch ind := strings.ToLower(d.PositionRemoteIndicator.String()); {
	case ind != "":
		remote = Bool(ind == "true" || ind == "1" || ind == "yes")
	case mentionsRemote(d.UserArea.Details.JobSummary, location):
		remote = Bool(true)
	}
	return Posting{
		Title:          Str(d.PositionTitle),
		Company:        Str(d.OrganizationName),
		Location:       Str(location),
		EmploymentType: Str(employment),
		Remote:         remote,
		SalaryText:     Str(salary),
		PostedAt:       ParseTime(d.PublicationStartDate),
		ApplyURL:       strings.TrimSpace(apply),
		SourceURL:      Str(d.PositionURI),
		Description:    Str(d.UserArea.Details.JobSummary),
		Source:         SourceUSAJobs,
		SourceJobID:    Str(d.PositionID.String()),
	}
}
