// Package ingest drives job source adapters and the seed crawler into the
// job repository, one source at a time, containing each source's failures.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
)

// Defaults and caps for per-call limits.
const (
	DefaultSeedLimit      = 30
	DefaultLimitPerSource = 50
	MaxLimitPerSource     = 200
	DefaultSourceTimeout  = 60 * time.Second
)

// sourceLimits caps a single-source call.
var sourceLimits = map[jobs.Source]int{
	jobs.SourceUSAJobs:  500,
	jobs.SourceAdzuna:   50,
	jobs.SourceRemotive: 500,
	jobs.SourceWWR:      200,
}

// sourceDefaults apply when a single-source call passes no limit.
var sourceDefaults = map[jobs.Source]int{
	jobs.SourceUSAJobs:  100,
	jobs.SourceAdzuna:   50,
	jobs.SourceRemotive: 100,
	jobs.SourceWWR:      100,
}

// Upserter stores postings by apply_url.
type Upserter interface {
	Upsert(ctx context.Context, p jobs.Posting) (created bool, err error)
}

// LinkDiscoverer finds candidate job pages under a root URL.
type LinkDiscoverer interface {
	Discover(ctx context.Context, rootURL string, limit int) ([]string, error)
}

// PageExtractor turns one page into postings.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) ([]jobs.Posting, error)
}

// Options configures an Orchestrator.
type Options struct {
	Adapters      []jobs.Adapter
	Discoverer    LinkDiscoverer
	Extractor     PageExtractor
	FixturePath   string
	Seeds         []string
	SeedLimit     int
	SourceTimeout time.Duration
}

// Orchestrator runs ingestion. Sources are processed sequentially.
type Orchestrator struct {
	repo       Upserter
	adapters   map[jobs.Source]jobs.Adapter
	order      []jobs.Source
	discoverer LinkDiscoverer
	extractor  PageExtractor
	fixture    string
	seeds      []string
	seedLimit  int
	timeout    time.Duration
}

// New returns an Orchestrator writing to repo. Adapters run in the order given.
func New(repo Upserter, opts Options) *Orchestrator {
	o := &Orchestrator{
		repo:       repo,
		adapters:   make(map[jobs.Source]jobs.Adapter, len(opts.Adapters)),
		discoverer: opts.Discoverer,
		extractor:  opts.Extractor,
		fixture:    opts.FixturePath,
		seeds:      opts.Seeds,
		seedLimit:  opts.SeedLimit,
		timeout:    opts.SourceTimeout,
	}
	if o.seedLimit <= 0 {
		o.seedLimit = DefaultSeedLimit
	}
	if o.timeout <= 0 {
		o.timeout = DefaultSourceTimeout
	}
	for _, a := range opts.Adapters {
		if _, dup := o.adapters[a.Name()]; !dup {
			o.order = append(o.order, a.Name())
		}
		o.adapters[a.Name()] = a
	}
	return o
}

// Sources lists the registered adapter names in run order.
func (o *Orchestrator) Sources() []jobs.Source {
	return append([]jobs.Source(nil), o.order...)
}

// ErrUnknownSource is returned for a source with no registered adapter.
var ErrUnknownSource = errors.New("ingest: unknown source")

// IngestSource fetches from one source and upserts what it returns. Adapter
// errors, panics and timeouts are reported in the result, never returned.
func (o *Orchestrator) IngestSource(ctx context.Context, src jobs.Source, f jobs.Filters) (res SourceResult, err error) {
	a, ok := o.adapters[src]
	if !ok {
		return SourceResult{}, fmt.Errorf("%w: %s", ErrUnknownSource, src)
	}
	engine.IncrIngestRuns()

	f.Limit = clampLimit(f.Limit, sourceDefaults[src], sourceLimits[src])
	res = SourceResult{Source: src, Status: StatusOK, Limit: f.Limit}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
	}()

	if !a.Configured() {
		res.Status = StatusUnconfigured
		slog.Info("ingest: source not configured, skipping", slog.String("source", string(src)))
		return res, nil
	}

	sctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	list, err := safeFetch(sctx, a, f)
	if err != nil {
		o.fail(sctx, &res, err)
		return res, nil
	}
	res.Fetched = len(list)

	if err := o.store(sctx, list, f.Limit, &res.Created, &res.Updated, &res.Skipped); err != nil {
		o.fail(sctx, &res, err)
		return res, nil
	}
	slog.Info("ingest: source complete",
		slog.String("source", string(src)),
		slog.Int("fetched", res.Fetched),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped))
	return res, nil
}

// IngestAll runs every registered source with the same per-source limit.
func (o *Orchestrator) IngestAll(ctx context.Context, limitPerSource int) Report {
	limitPerSource = clampLimit(limitPerSource, DefaultLimitPerSource, MaxLimitPerSource)
	rep := Report{BySource: make(map[string]int, len(o.order)), LimitPerSource: limitPerSource}
	for _, src := range o.order {
		if ctx.Err() != nil {
			rep.Results = append(rep.Results, SourceResult{Source: src, Status: StatusTimeout, Error: ctx.Err().Error()})
			rep.BySource[string(src)] = 0
			continue
		}
		res, _ := o.IngestSource(ctx, src, jobs.Filters{Limit: limitPerSource})
		rep.Results = append(rep.Results, res)
		rep.BySource[string(src)] = res.Created
		rep.TotalCreated += res.Created
		if src == jobs.SourceAdzuna && res.Fetched > 0 {
			rep.Attribution = jobs.AdzunaAttribution
		}
	}
	for _, r := range rep.Results {
		slog.Info("ingest: batch result",
			slog.String("source", string(r.Source)),
			slog.String("status", string(r.Status)),
			slog.Int("created", r.Created))
	}
	return rep
}

// IngestSeeds crawls seed sites and stores what the extractor finds, stopping
// as soon as limit new postings exist. When a fixture is available (or
// offline is set and the fixture loads) it is replayed instead and no network
// call is made.
func (o *Orchestrator) IngestSeeds(ctx context.Context, seeds []string, limit int, offline bool) (SeedReport, error) {
	engine.IncrIngestRuns()
	if len(seeds) == 0 {
		seeds = o.seeds
	}
	if limit <= 0 {
		limit = o.seedLimit
	}
	rep := SeedReport{Seeds: seeds, Limit: limit}

	if offline || fileExists(o.fixture) {
		if sample, ok := LoadFixture(o.fixture); ok && len(sample) > 0 {
			rep.Offline = true
			var updated int
			err := o.store(ctx, sample, limit, &rep.Created, &updated, &rep.Skipped)
			return rep, err
		}
		if offline {
			slog.Warn("ingest: offline requested but no fixture available", slog.String("path", o.fixture))
			return rep, nil
		}
	}

	if o.discoverer == nil || o.extractor == nil {
		return rep, errors.New("ingest: seed crawling is not configured")
	}

	seen := make(map[string]bool)
	for _, seed := range seeds {
		if rep.Created >= limit || ctx.Err() != nil {
			break
		}
		links, err := o.discoverer.Discover(ctx, seed, 0)
		if err != nil {
			slog.Warn("ingest: seed discovery failed", slog.String("seed", seed), slog.Any("error", err))
			continue
		}
		for _, link := range links {
			if seen[link] {
				continue
			}
			seen[link] = true
			if rep.Created >= limit {
				return rep, nil
			}
			list, err := o.extractor.Extract(ctx, link)
			rep.PagesVisited++
			if err != nil {
				slog.Warn("ingest: page extraction failed", slog.String("url", link), slog.Any("error", err))
				continue
			}
			var updated int
			if err := o.store(ctx, list, limit, &rep.Created, &updated, &rep.Skipped); err != nil {
				return rep, err
			}
		}
	}
	slog.Info("ingest: seeds complete",
		slog.Int("created", rep.Created),
		slog.Int("pages", rep.PagesVisited),
		slog.Int("skipped", rep.Skipped))
	return rep, nil
}

// store upserts list until *created reaches limit. Postings without an
// apply_url are skipped; a store error aborts.
func (o *Orchestrator) store(ctx context.Context, list []jobs.Posting, limit int, created, updated, skipped *int) error {
	for _, p := range list {
		if *created >= limit {
			return nil
		}
		isNew, err := o.repo.Upsert(ctx, p)
		switch {
		case errors.Is(err, jobs.ErrMissingApplyURL):
			*skipped++
		case err != nil:
			return err
		case isNew:
			*created++
		default:
			*updated++
		}
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, res *SourceResult, err error) {
	res.Status = StatusFailed
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.Status = StatusTimeout
	}
	res.Error = err.Error()
	slog.Warn("ingest: source failed",
		slog.String("source", string(res.Source)),
		slog.String("status", string(res.Status)),
		slog.Int("created", res.Created),
		slog.Any("error", err))
}

// safeFetch converts an adapter panic into an error.
func safeFetch(ctx context.Context, a jobs.Adapter, f jobs.Filters) (list []jobs.Posting, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s adapter panic: %v", a.Name(), r)
		}
	}()
	return a.Fetch(ctx, f)
}

func clampLimit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
