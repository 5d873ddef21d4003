// Package app builds the graph store, job sources, ingestion and résumé
// services from a Config. The MCP server and careerctl share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/graph"
	"github.com/anatolykoptev/go_careerlift/internal/ingest"
	"github.com/anatolykoptev/go_careerlift/internal/jobserver"
	"github.com/anatolykoptev/go_careerlift/internal/resume"
	"github.com/anatolykoptev/go_careerlift/internal/schedule"
	"github.com/anatolykoptev/go_careerlift/internal/scrape"
)

// App holds the wired services.
type App struct {
	Config  Config
	Store   graph.Store
	Jobs    *jobs.Repository
	Ingest  *ingest.Orchestrator
	Resumes *resume.Service
	Ollama  *resume.Ollama

	scheduler *schedule.Scheduler
}

// New opens the graph store and builds every service. The store is Postgres
// with Apache AGE when DatabaseURL is set, otherwise embedded SQLite.
func New(ctx context.Context, c Config) (*App, error) {
	engine.Init(engine.Config{
		FetchTimeout:         c.FetchTimeout,
		NavigationTimeout:    c.NavigationTimeout,
		CacheTTL:             c.CacheTTL,
		CacheMaxEntries:      c.CacheMaxEntries,
		CacheCleanupInterval: c.CacheCleanupInterval,
		HTTPClient:           c.httpClient(),
	})
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	repo := jobs.NewRepository(store)
	browser := engine.NewBrowser(c.WebshareAPIKey)
	complete := engine.NewCompleter(engine.LLMConfig{
		APIBase:     c.LLMAPIBase,
		APIKey:      c.LLMAPIKey,
		Fallbacks:   c.LLMFallbacks,
		Model:       c.LLMModel,
		Temperature: 0.1,
		MaxTokens:   8192,
	})
	if complete == nil {
		slog.Info("LLM_API_KEY not set, scrape extraction uses DOM and text heuristics only")
	}

	orch := ingest.New(repo, ingest.Options{
		Adapters:    adapters(c),
		Discoverer:  scrape.NewDiscoverer(browser, c.CrawlRPS),
		Extractor:   scrape.NewExtractor(browser, complete, c.CrawlRPS),
		FixturePath: c.SamplePath,
		Seeds:       c.SeedURLs,
		SeedLimit:   c.IngestLimit,
	})

	ollama := resume.NewOllama(c.OllamaURL, c.OllamaModel, c.OllamaAPIKey, c.GenerateTimeout)

	return &App{
		Config:  c,
		Store:   store,
		Jobs:    repo,
		Ingest:  orch,
		Resumes: resume.NewService(store, ollama),
		Ollama:  ollama,
	}, nil
}

func openStore(ctx context.Context, c Config) (graph.Store, error) {
	if c.DatabaseURL != "" {
		s, err := graph.ConnectAGE(ctx, c.DatabaseURL, c.GraphName)
		if err != nil {
			return nil, fmt.Errorf("connect graph: %w", err)
		}
		return s, nil
	}
	s, err := graph.OpenSQLite(ctx, c.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	slog.Info("graph sqlite opened", slog.String("path", c.SQLitePath))
	return s, nil
}

// adapters lists the API sources in their fixed batch order.
func adapters(c Config) []jobs.Adapter {
	list := []jobs.Adapter{
		&jobs.USAJobs{APIKey: c.USAJobsAPIKey, Email: c.USAJobsEmail},
		&jobs.Adzuna{AppID: c.AdzunaAppID, AppKey: c.AdzunaAppKey, Country: c.AdzunaCountry},
		&jobs.Remotive{},
		&jobs.WeWorkRemotely{},
	}
	for _, a := range list {
		if !a.Configured() {
			slog.Warn("job source not configured", slog.String("source", string(a.Name())))
		}
	}
	return list
}

// Deps returns the services the MCP tools run on.
func (a *App) Deps() jobserver.Deps {
	return jobserver.Deps{Ingest: a.Ingest, Jobs: a.Jobs, Resumes: a.Resumes, Ollama: a.Ollama}
}

// StartScheduler starts periodic ingest-all when INGEST_SCHEDULE is set.
func (a *App) StartScheduler(ctx context.Context) error {
	if a.Config.IngestSchedule == "" {
		return nil
	}
	s, err := schedule.New(a.Config.IngestSchedule, ingest.DefaultLimitPerSource, a.Ingest)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	a.scheduler = s
	return nil
}

// Close stops the scheduler and closes the store.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	return a.Store.Close()
}
