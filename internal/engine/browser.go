package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// browserTimeoutSeconds bounds a single stealth request; NavigationTimeout
// bounds the whole call including retries.
const browserTimeoutSeconds = 30

// PageLoader returns the raw HTML of a page.
type PageLoader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// HTTPLoader loads pages with a plain HTTP client.
type HTTPLoader struct{}

// Load implements PageLoader.
func (HTTPLoader) Load(ctx context.Context, url string) ([]byte, error) {
	return FetchHTML(ctx, url)
}

// Browser loads pages through a browser-fingerprinted client that is
// created on first use and shared afterwards. If the client cannot be
// created, pages are loaded over plain HTTP.
type Browser struct {
	webshareAPIKey string

	once   sync.Once
	client *stealth.BrowserClient
}

// NewBrowser returns a lazily initialized Browser. webshareAPIKey may be
// empty to disable the rotating proxy pool.
func NewBrowser(webshareAPIKey string) *Browser {
	return &Browser{webshareAPIKey: webshareAPIKey}
}

func (b *Browser) init() {
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(browserTimeoutSeconds))

	if b.webshareAPIKey != "" {
		pool, err := proxypool.NewWebshare(b.webshareAPIKey)
		if err != nil {
			slog.Warn("webshare proxy pool init failed", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("webshare proxy pool loaded", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed, using plain http", slog.Any("error", err))
		return
	}
	b.client = bc
	slog.Info("stealth browser client initialized")
}

// Load implements PageLoader. The navigation is bounded by NavigationTimeout.
func (b *Browser) Load(ctx context.Context, url string) ([]byte, error) {
	b.once.Do(b.init)
	if b.client == nil {
		return FetchHTML(ctx, url)
	}
	metrics.BrowserRequests.Add(1)

	ctx, cancel := context.WithTimeout(ctx, cfg.NavigationTimeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := stealth.RetryDo(ctx, stealth.DefaultRetryConfig, func() ([]byte, error) {
			headers := stealth.ChromeHeaders()
			headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
			data, _, status, err := b.client.Do("GET", url, headers, nil)
			if err != nil {
				return nil, err
			}
			if status != 200 {
				return nil, fmt.Errorf("status %d", status)
			}
			return data, nil
		})
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			metrics.FetchErrors.Add(1)
		}
		return r.data, r.err
	case <-ctx.Done():
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("navigate %s: %w", url, ctx.Err())
	}
}
