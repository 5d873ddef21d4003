package ingest

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
)

// LoadFixture reads previously captured jobs from path. The file holds either
// a bare list of job objects or {"jobs": [...]}. A missing or malformed file
// yields ok=false; non-object entries are skipped.
func LoadFixture(path string) (list []jobs.Posting, ok bool) {
	if path == "" {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapped struct {
			Jobs []json.RawMessage `json:"jobs"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Jobs == nil {
			slog.Warn("ingest: fixture unreadable, ignoring", slog.String("path", path), slog.Any("error", err))
			return nil, false
		}
		items = wrapped.Jobs
	}

	for _, raw := range items {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil || m == nil {
			continue
		}
		list = append(list, postingFromMap(m))
	}
	return list, true
}

func postingFromMap(m map[string]any) jobs.Posting {
	str := func(k string) *string {
		s, _ := m[k].(string)
		return jobs.Str(s)
	}
	apply, _ := m["apply_url"].(string)
	posted, _ := m["posted_at"].(string)
	p := jobs.Posting{
		Title:          str("title"),
		Company:        str("company"),
		Location:       str("location"),
		EmploymentType: str("employment_type"),
		SalaryText:     str("salary_text"),
		PostedAt:       jobs.ParseTime(posted),
		ApplyURL:       apply,
		SourceURL:      str("source_url"),
		Description:    str("description"),
		Source:         jobs.SourceScraped,
		SourceJobID:    str("source_job_id"),
	}
	if b, ok := m["remote"].(bool); ok {
		p.Remote = &b
	}
	if s, ok := m["source"].(string); ok && s != "" {
		p.Source = jobs.Source(s)
	}
	return p
}
