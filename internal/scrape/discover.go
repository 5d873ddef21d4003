// Package scrape finds job pages on sites without a structured API and
// extracts canonical postings from them.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

// DefaultDiscoverLimit caps links kept from one root page.
const DefaultDiscoverLimit = 100

// jobLinkKeywords marks a link as job-related when found in its URL or text.
var jobLinkKeywords = []string{
	"job", "career", "position", "opening",
	"greenhouse", "lever", "workday", "ashby", "apply",
}

// Discoverer collects job-related links from a root page.
type Discoverer struct {
	loader  engine.PageLoader
	limiter *rate.Limiter
}

// NewDiscoverer returns a Discoverer loading pages with loader, at most rps
// page loads per second (rps <= 0 disables the limit).
func NewDiscoverer(loader engine.PageLoader, rps float64) *Discoverer {
	return &Discoverer{loader: loader, limiter: newLimiter(rps)}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Discover loads rootURL and returns absolute, de-duplicated job links in
// page order, at most limit of them.
func (d *Discoverer) Discover(ctx context.Context, rootURL string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultDiscoverLimit
	}
	cacheKey := engine.CacheKey("links", rootURL)
	if links, ok := engine.CacheLoadJSON[[]string](ctx, cacheKey); ok {
		return capLinks(links, limit), nil
	}

	base, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", rootURL, err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrScrapePages()
	body, err := d.loader.Load(ctx, rootURL)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", rootURL, err)
	}

	links := jobLinks(body, base)
	engine.CacheStoreJSON(ctx, cacheKey, links)
	slog.Debug("scrape: links discovered", slog.String("root", rootURL), slog.Int("links", len(links)))
	return capLinks(links, limit), nil
}

func capLinks(links []string, limit int) []string {
	if len(links) > limit {
		return links[:limit]
	}
	return links
}

// jobLinks walks anchors in body and keeps job-related http(s) links.
func jobLinks(body []byte, base *url.URL) []string {
	z := html.NewTokenizer(bytes.NewReader(body))
	seen := make(map[string]bool)
	var links []string

	var href string
	var text strings.Builder
	inAnchor := false
	flush := func() {
		if u, ok := resolve(base, href); ok && !seen[u] && isJobLink(u, text.String()) {
			seen[u] = true
			links = append(links, u)
		}
		inAnchor = false
		href = ""
		text.Reset()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if inAnchor {
				flush()
			}
			return links
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" {
				continue
			}
			if inAnchor {
				flush()
			}
			inAnchor = true
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				if string(k) == "href" {
					href = string(v)
				}
			}
		case html.TextToken:
			if inAnchor {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "a" && inAnchor {
				flush()
			}
		}
	}
}

// resolve turns href into an absolute http(s) URL without fragment.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func isJobLink(u, text string) bool {
	u = strings.ToLower(u)
	text = strings.ToLower(text)
	for _, kw := range jobLinkKeywords {
		if strings.Contains(u, kw) || strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
