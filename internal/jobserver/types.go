package jobserver

import (
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/resume"
)

// IngestSourceInput is the input for ingest_source.
type IngestSourceInput struct {
	Source   string `json:"source" jsonschema:"Source to ingest: usajobs, adzuna, remotive, weworkremotely"`
	Keyword  string `json:"keyword,omitempty" jsonschema:"Search keyword (usajobs, adzuna, remotive)"`
	Location string `json:"location,omitempty" jsonschema:"Location filter (usajobs, adzuna)"`
	Remote   bool   `json:"remote,omitempty" jsonschema:"usajobs only: remote positions"`
	Category string `json:"category,omitempty" jsonschema:"remotive category slug or weworkremotely feed (programming, design, devops, ...)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max postings to fetch (caps: usajobs 500, adzuna 50, remotive 500, weworkremotely 200)"`
}

// IngestAllInput is the input for ingest_all.
type IngestAllInput struct {
	LimitPerSource int `json:"limit_per_source,omitempty" jsonschema:"Max postings per source (default 50, max 200)"`
}

// IngestSeedsInput is the input for ingest_seeds.
type IngestSeedsInput struct {
	Seeds   []string `json:"seeds,omitempty" jsonschema:"Career page URLs to crawl (default: JOBS_SEED_URLS)"`
	Limit   int      `json:"limit,omitempty" jsonschema:"Stop after this many new postings (default: JOBS_INGEST_LIMIT)"`
	Offline bool     `json:"offline,omitempty" jsonschema:"Replay the JOBS_SAMPLE_PATH fixture instead of crawling"`
}

// JobListInput is the input for job_list.
type JobListInput struct {
	Query      string `json:"q,omitempty" jsonschema:"Case-insensitive text matched against title and description"`
	Location   string `json:"location,omitempty" jsonschema:"Case-insensitive location substring"`
	Source     string `json:"source,omitempty" jsonschema:"Exact source: usajobs, adzuna, remotive, weworkremotely, scraped, manual"`
	RemoteOnly bool   `json:"remote_only,omitempty" jsonschema:"Only remote postings"`
	ResumeID   string `json:"resume_id,omitempty" jsonschema:"Score and sort jobs against this resume"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max jobs (default 200, max 500)"`
}

// JobListOutput is the output of job_list.
type JobListOutput struct {
	Jobs        []jobs.StoredJob `json:"jobs"`
	Count       int              `json:"count"`
	Attribution string           `json:"attribution,omitempty"`
}

// ResumeUploadInput is the input for resume_upload.
type ResumeUploadInput struct {
	Filename      string `json:"filename,omitempty" jsonschema:"File name; the extension selects the parser (.txt, .md, .pdf, .doc, .docx)"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"Base64 file content"`
	Text          string `json:"text,omitempty" jsonschema:"Plain resume text, instead of content_base64"`
	PersonName    string `json:"person_name,omitempty" jsonschema:"Person the resume belongs to (default: name extracted from the resume)"`
	ResumeName    string `json:"resume_name,omitempty" jsonschema:"Label for this resume (default: Default Resume)"`
}

// PersonInput names a person in the graph.
type PersonInput struct {
	PersonName string `json:"person_name" jsonschema:"Person name as stored in the graph"`
}

// ResumeScoreOutput is the output of resume_score.
type ResumeScoreOutput struct {
	PersonName string           `json:"person_name"`
	Jobs       []jobs.StoredJob `json:"jobs"`
}

// ResumeListInput is the input for resume_list.
type ResumeListInput struct {
	PersonName string `json:"person_name,omitempty" jsonschema:"Only resumes of this person"`
}

// ResumeListOutput is the output of resume_list.
type ResumeListOutput struct {
	Resumes []resume.Info `json:"resumes"`
}

// SaveJobInput is the input for save_job.
type SaveJobInput struct {
	ResumeID string `json:"resume_id" jsonschema:"Resume to save the job to"`
	ApplyURL string `json:"apply_url" jsonschema:"apply_url of a stored job"`
	Notes    string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

// SavedJobsInput is the input for saved_jobs.
type SavedJobsInput struct {
	ResumeID string `json:"resume_id" jsonschema:"Resume whose saved jobs to list"`
}

// RemoveSavedJobInput is the input for remove_saved_job.
type RemoveSavedJobInput struct {
	ResumeID string `json:"resume_id"`
	ApplyURL string `json:"apply_url"`
}

// MessageOutput acknowledges a write.
type MessageOutput struct {
	Message  string `json:"message"`
	ResumeID string `json:"resume_id,omitempty"`
	ApplyURL string `json:"apply_url,omitempty"`
}

// EmptyInput is for tools without parameters.
type EmptyInput struct{}
