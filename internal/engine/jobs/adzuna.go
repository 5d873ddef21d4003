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

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

const (
	adzunaAPI     = "https://api.adzuna.com/v1/api/jobs"
	adzunaMaxPage = 50
)

// remoteTerms mark a description as remote when the source has no remote flag.
var remoteTerms = []string{"remote", "work from home", "wfh", "telecommute"}

func mentionsRemote(texts ...string) bool {
	for _, t := range texts {
		t = strings.ToLower(t)
		for _, term := range remoteTerms {
			if strings.Contains(t, term) {
				return true
			}
		}
	}
	return false
}

var amountPrinter = message.NewPrinter(language.English)

// Adzuna fetches aggregated commercial postings; app_id and app_key travel as
// query parameters.
type Adzuna struct {
	AppID      string
	AppKey     string
	Country    string
	BaseURL    string
	HTTPClient *http.Client
}

func (a *Adzuna) Name() Source      { return SourceAdzuna }
func (a *Adzuna) Configured() bool { return a.AppID != "" && a.AppKey != "" }

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	ContractType string   `json:"contract_type"`
	SalaryMin    *float64 `json:"salary_min"`
	SalaryMax    *float64 `json:"salary_max"`
	Created      string   `json:"created"`
	RedirectURL  string   `json:"redirect_url"`
}

// Fetch implements Adapter. Supports Keyword, Location, Category and Limit.
func (a *Adzuna) Fetch(ctx context.Context, f Filters) ([]Posting, error) {
	if !a.Configured() {
		slog.Debug("adzuna: credentials not configured, skipping")
		return nil, nil
	}
	engine.IncrAdzunaRequests()

	limit := f.Limit
	if limit <= 0 || limit > adzunaMaxPage {
		limit = adzunaMaxPage
	}
	country := a.Country
	if country == "" {
		country = "us"
	}
	base := a.BaseURL
	if base == "" {
		base = adzunaAPI
	}

	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(limit))
	params.Set("what", f.Keyword)
	params.Set("where", f.Location)
	if f.Category != "" {
		params.Set("category", f.Category)
	}

	endpoint := fmt.Sprintf("%s/%s/search/1", strings.TrimRight(base, "/"), url.PathEscape(country))
	body, err := getBody(ctx, a.HTTPClient, endpoint, params, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("adzuna: %w", err)
	}

	var resp adzunaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("adzuna: parse response: %w", err)
	}
	out := make([]Posting, 0, len(resp.Results))
	for _, j := range resp.Results {
		out = append(out, j.posting())
	}
	slog.Debug("adzuna: fetch complete", slog.Int("jobs", len(out)))
	return out, nil
}

func (j adzunaJob) posting() Posting {
	remote := mentionsRemote(j.Description)
	return Posting{
		Title:          Str(j.Title),
		Company:        Str(j.Company.DisplayName),
		Location:       Str(j.Location.DisplayName),
		EmploymentType: Str(j.ContractType),
		Remote:         Bool(remote),
		SalaryText:     Str(salaryRange(j.SalaryMin, j.SalaryMax)),
		PostedAt:       ParseTime(j.Created),
		ApplyURL:       strings.TrimSpace(j.RedirectURL),
		SourceURL:      Str(j.RedirectURL),
		Description:    Str(j.Description),
		Source:         SourceAdzuna,
		SourceJobID:    Str(j.ID.String()),
	}
}

// salaryRange renders whichever bounds are present, e.g. "$90,000 - $120,000".
func salaryRange(lo, hi *float64) string {
	has := func(v *float64) bool { return v != nil && *v != 0 }
	amount := func(v *float64) string { return amountPrinter.Sprintf("$%d", int64(*v)) }
	switch {
	case has(lo) && has(hi):
		return amount(lo) + " - " + amount(hi)
	case has(lo):
		return "From " + amount(lo)
	case has(hi):
		return "Up to " + amount(hi)
	}
	return ""
}
