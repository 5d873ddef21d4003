package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	FetchRequests    atomic.Int64
	FetchErrors      atomic.Int64
	BrowserRequests  atomic.Int64
	LLMCalls         atomic.Int64
	LLMErrors        atomic.Int64
	USAJobsRequests  atomic.Int64
	AdzunaRequests   atomic.Int64
	RemotiveRequests atomic.Int64
	WWRRequests      atomic.Int64
	ScrapePages      atomic.Int64
	JobsCreated      atomic.Int64
	JobsUpdated      atomic.Int64
	IngestRuns       atomic.Int64
	ResumeUploads    atomic.Int64
	OllamaCalls      atomic.Int64
	OllamaErrors     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"fetch_requests":    metrics.FetchRequests.Load(),
		"fetch_errors":      metrics.FetchErrors.Load(),
		"browser_requests":  metrics.BrowserRequests.Load(),
		"llm_calls":         metrics.LLMCalls.Load(),
		"llm_errors":        metrics.LLMErrors.Load(),
		"usajobs_requests":  metrics.USAJobsRequests.Load(),
		"adzuna_requests":   metrics.AdzunaRequests.Load(),
		"remotive_requests": metrics.RemotiveRequests.Load(),
		"wwr_requests":      metrics.WWRRequests.Load(),
		"scrape_pages":      metrics.ScrapePages.Load(),
		"jobs_created":      metrics.JobsCreated.Load(),
		"jobs_updated":      metrics.JobsUpdated.Load(),
		"ingest_runs":       metrics.IngestRuns.Load(),
		"resume_uploads":    metrics.ResumeUploads.Load(),
		"ollama_calls":      metrics.OllamaCalls.Load(),
		"ollama_errors":     metrics.OllamaErrors.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

var metricKeys = []string{
	"fetch_requests", "fetch_errors", "browser_requests",
	"llm_calls", "llm_errors",
	"usajobs_requests", "adzuna_requests", "remotive_requests", "wwr_requests",
	"scrape_pages", "jobs_created", "jobs_updated", "ingest_runs",
	"resume_uploads", "ollama_calls", "ollama_errors",
	"cache_hits", "cache_misses",
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the jobs, scrape, ingest and resume packages.
func IncrUSAJobsRequests()  { metrics.USAJobsRequests.Add(1) }
func IncrAdzunaRequests()   { metrics.AdzunaRequests.Add(1) }
func IncrRemotiveRequests() { metrics.RemotiveRequests.Add(1) }
func IncrWWRRequests()      { metrics.WWRRequests.Add(1) }
func IncrScrapePages()      { metrics.ScrapePages.Add(1) }
func IncrIngestRuns()       { metrics.IngestRuns.Add(1) }
func IncrResumeUploads()    { metrics.ResumeUploads.Add(1) }
func IncrOllamaCalls()      { metrics.OllamaCalls.Add(1) }
func IncrOllamaErrors()     { metrics.OllamaErrors.Add(1) }

// IncrJobUpserts counts one job write as a create or an update.
func IncrJobUpserts(created bool) {
	if created {
		metrics.JobsCreated.Add(1)
		return
	}
	metrics.JobsUpdated.Add(1)
}

// JobWrites counts job upserts since start. Listing cache keys include it so
// any write makes older listings unreachable.
func JobWrites() int64 {
	return metrics.JobsCreated.Load() + metrics.JobsUpdated.Load()
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
