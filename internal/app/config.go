package app

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port string

	DatabaseURL string
	GraphName   string
	SQLitePath  string

	RedisURL             string
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	FetchTimeout      time.Duration
	NavigationTimeout time.Duration
	GenerateTimeout   time.Duration

	USAJobsAPIKey string
	USAJobsEmail  string
	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string

	OllamaURL    string
	OllamaModel  string
	OllamaAPIKey string

	LLMAPIBase   string
	LLMAPIKey    string
	LLMModel     string
	LLMFallbacks []string

	SamplePath     string
	IngestLimit    int
	SeedURLs       []string
	CrawlRPS       float64
	IngestSchedule string

	WebshareAPIKey string
}

// LoadConfig reads Config from the environment.
func LoadConfig() Config {
	return Config{
		Port: env.Str("MCP_PORT", "8893"),

		DatabaseURL: env.Str("DATABASE_URL", ""),
		GraphName:   env.Str("GRAPH_NAME", "career_graph"),
		SQLitePath:  env.Str("GRAPH_SQLITE_PATH", defaultSQLitePath()),

		RedisURL:             env.Str("REDIS_URL", ""),
		CacheTTL:             env.Duration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),

		FetchTimeout:      env.Duration("FETCH_TIMEOUT", 30*time.Second),
		NavigationTimeout: env.Duration("NAVIGATION_TIMEOUT", 30*time.Second),
		GenerateTimeout:   env.Duration("GENERATE_TIMEOUT", 180*time.Second),

		USAJobsAPIKey: env.Str("USAJOBS_API_KEY", ""),
		USAJobsEmail:  env.Str("USAJOBS_EMAIL", ""),
		AdzunaAppID:   env.Str("ADZUNA_APP_ID", ""),
		AdzunaAppKey:  env.Str("ADZUNA_APP_KEY", ""),
		AdzunaCountry: env.Str("ADZUNA_COUNTRY", "us"),

		OllamaURL:    env.Str("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:  env.Str("OLLAMA_MODEL", "gpt-oss:20b-cloud"),
		OllamaAPIKey: env.Str("OLLAMA_API_KEY", ""),

		LLMAPIBase:   env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMAPIKey:    env.Str("LLM_API_KEY", ""),
		LLMModel:     env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),

		SamplePath:     env.Str("JOBS_SAMPLE_PATH", ""),
		IngestLimit:    env.Int("JOBS_INGEST_LIMIT", 30),
		SeedURLs:       env.List("JOBS_SEED_URLS", "https://stripe.com/jobs"),
		CrawlRPS:       env.Float("CRAWL_RPS", 2),
		IngestSchedule: env.Str("INGEST_SCHEDULE", ""),

		WebshareAPIKey: env.Str("WEBSHARE_API_KEY", ""),
	}
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".go_careerlift", "graph.db")
}

func (c Config) httpClient() *http.Client {
	return &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}
