package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/graph"
)

// ErrMissingApplyURL rejects postings without a dedup key.
var ErrMissingApplyURL = errors.New("jobs: posting has no apply_url")

// Limits for ListJobs.
const (
	DefaultListLimit = 200
	MaxListLimit     = 500
)

// StoredJob is a posting as read back from the graph.
type StoredJob struct {
	Posting
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	ATSScore  *float64 `json:"ats_score,omitempty"`
}

// ListFilter selects stored jobs. Zero fields do not filter.
type ListFilter struct {
	Query      string
	Location   string
	Source     Source
	RemoteOnly bool
	Limit      int
}

// Repository writes and reads JobPosting nodes.
type Repository struct {
	store graph.Store
	now   func() time.Time
}

// NewRepository returns a Repository over store.
func NewRepository(store graph.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Upsert merges p by apply_url and reports whether a new node was created.
func (r *Repository) Upsert(ctx context.Context, p Posting) (bool, error) {
	key := strings.TrimSpace(p.ApplyURL)
	if key == "" {
		return false, ErrMissingApplyURL
	}
	var res graph.MergeResult
	err := r.store.InTx(ctx, func(tx graph.Tx) error {
		var err error
		res, err = graph.Merge(ctx, tx, graph.LabelJobPosting, key, postingProps(p), jobDefaults, r.now())
		return err
	})
	if err != nil {
		return false, fmt.Errorf("upsert job %s: %w", key, err)
	}
	engine.IncrJobUpserts(res.Created)
	return res.Created, nil
}

var jobDefaults = graph.Props{"title": "Unknown"}

func postingProps(p Posting) graph.Props {
	props := graph.Props{
		"title":           graph.Opt(p.Title),
		"company":         graph.Opt(p.Company),
		"location":        graph.Opt(p.Location),
		"employment_type": graph.Opt(p.EmploymentType),
		"remote":          graph.Opt(p.Remote),
		"salary_text":     graph.Opt(p.SalaryText),
		"source_url":      graph.Opt(p.SourceURL),
		"description":     graph.Opt(p.Description),
		"source_job_id":   graph.Opt(p.SourceJobID),
		"posted_at":       nil,
		"source":          nil,
	}
	if p.PostedAt != nil {
		props["posted_at"] = p.PostedAt.UTC().Format(time.RFC3339)
	}
	if p.Source != "" {
		props["source"] = string(p.Source)
	}
	return props
}

// FromProps rebuilds a stored job from node properties.
func FromProps(props graph.Props) StoredJob {
	str := func(k string) *string { return Str(props.String(k)) }
	j := StoredJob{
		Posting: Posting{
			Title:          str("title"),
			Company:        str("company"),
			Location:       str("location"),
			EmploymentType: str("employment_type"),
			SalaryText:     str("salary_text"),
			PostedAt:       ParseTime(props.String("posted_at")),
			ApplyURL:       props.String("apply_url"),
			SourceURL:      str("source_url"),
			Description:    str("description"),
			Source:         Source(props.String("source")),
			SourceJobID:    str("source_job_id"),
		},
		CreatedAt: props.String("created_at"),
		UpdatedAt: props.String("updated_at"),
	}
	if b, ok := props.Bool("remote"); ok {
		j.Remote = &b
	}
	return j
}

// Get returns the job stored under applyURL, or graph.ErrNotFound.
func (r *Repository) Get(ctx context.Context, applyURL string) (*StoredJob, error) {
	var job *StoredJob
	err := r.store.InTx(ctx, func(tx graph.Tx) error {
		n, err := tx.FindByKey(ctx, graph.LabelJobPosting, applyURL)
		if err != nil {
			return err
		}
		j := FromProps(n.Props)
		job = &j
		return nil
	})
	return job, err
}

// List returns jobs matching f, most recently written first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]StoredJob, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	var nodes []graph.Node
	err := r.store.InTx(ctx, func(tx graph.Tx) error {
		var err error
		nodes, err = tx.Nodes(ctx, graph.LabelJobPosting)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	q := strings.ToLower(f.Query)
	loc := strings.ToLower(f.Location)
	out := make([]StoredJob, 0, len(nodes))
	for _, n := range nodes {
		j := FromProps(n.Props)
		if q != "" && !strings.Contains(strings.ToLower(Deref(j.Title)), q) &&
			!strings.Contains(strings.ToLower(Deref(j.Description)), q) {
			continue
		}
		if loc != "" && !strings.Contains(strings.ToLower(Deref(j.Location)), loc) {
			continue
		}
		if f.Source != "" && j.Source != f.Source {
			continue
		}
		if f.RemoteOnly && (j.Remote == nil || !*j.Remote) {
			continue
		}
		out = append(out, j)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return recency(out[a]) > recency(out[b])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recency is updated_at falling back to created_at; stored timestamps sort lexically.
func recency(j StoredJob) string {
	if j.UpdatedAt != "" {
		return j.UpdatedAt
	}
	return j.CreatedAt
}

// HasSource reports whether any job in list came from s.
func HasSource(list []StoredJob, s Source) bool {
	for _, j := range list {
		if j.Source == s {
			return true
		}
	}
	return false
}
