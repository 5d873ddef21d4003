package ingest

import (
	"time"

	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
)

// Status is the outcome class of one source call.
type Status string

const (
	StatusOK           Status = "ok"
	StatusUnconfigured Status = "unconfigured"
	StatusFailed       Status = "failed"
	StatusTimeout      Status = "timeout"
)

// SourceResult reports one adapter call. Failed and timed-out sources still
// count what they created before the failure.
type SourceResult struct {
	Source   jobs.Source   `json:"source"`
	Status   Status        `json:"status"`
	Fetched  int           `json:"fetched"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Limit    int           `json:"limit"`
}

// Report aggregates an ingest-all batch.
type Report struct {
	TotalCreated   int            `json:"total_ingested"`
	BySource       map[string]int `json:"by_source"`
	Results        []SourceResult `json:"results"`
	LimitPerSource int            `json:"limit_per_source"`
	Attribution    string         `json:"attribution,omitempty"`
}

// SeedReport describes a seed crawl or fixture replay.
type SeedReport struct {
	Created      int      `json:"ingested"`
	Seeds        []string `json:"seeds"`
	Limit        int      `json:"limit"`
	Offline      bool     `json:"offline"`
	PagesVisited int      `json:"pages_visited"`
	Skipped      int      `json:"skipped"`
}
