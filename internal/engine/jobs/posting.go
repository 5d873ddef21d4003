// Package jobs holds the canonical job record, its graph repository, the
// source adapters that produce it and the ATS scorer that consumes it.
package jobs

import (
	"context"
	"strings"
	"time"
)

// Source identifies where a posting came from.
type Source string

const (
	SourceUSAJobs  Source = "usajobs"
	SourceAdzuna   Source = "adzuna"
	SourceRemotive Source = "remotive"
	SourceWWR      Source = "weworkremotely"
	SourceScraped  Source = "scraped"
	SourceManual   Source = "manual"
)

// AdzunaAttribution must be shown wherever Adzuna results are displayed.
const AdzunaAttribution = "Jobs powered by Adzuna"

// Posting is the canonical job record every adapter converges to.
// Nil fields are unknown and never overwrite stored values.
type Posting struct {
	Title          *string    `json:"title"`
	Company        *string    `json:"company"`
	Location       *string    `json:"location"`
	EmploymentType *string    `json:"employment_type"`
	Remote         *bool      `json:"remote"`
	SalaryText     *string    `json:"salary_text"`
	PostedAt       *time.Time `json:"posted_at"`
	ApplyURL       string     `json:"apply_url"`
	SourceURL      *string    `json:"source_url"`
	Description    *string    `json:"description"`
	Source         Source     `json:"source"`
	SourceJobID    *string    `json:"source_job_id"`
}

// Filters narrows an adapter fetch. Each adapter reads the fields it supports.
type Filters struct {
	Keyword  string
	Location string
	Remote   bool
	Category string
	Company  string
	Limit    int
}

// Adapter fetches postings from one external source.
type Adapter interface {
	Name() Source
	// Configured reports whether required credentials are present.
	// Fetch on an unconfigured adapter returns no postings and no error.
	Configured() bool
	Fetch(ctx context.Context, f Filters) ([]Posting, error)
}

// Str returns a pointer to the trimmed s, or nil when it is empty.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Deref returns *p or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTime parses an ISO-8601 or RFC 1123 timestamp. It returns nil on
// empty or malformed input so a bad date never rejects a posting.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
