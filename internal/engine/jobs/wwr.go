package jobs

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

const wwrDefaultCategory = "programming"

// wwrFeeds maps category slugs to their RSS feeds.
var wwrFeeds = map[string]string{
	"programming":      "https://weworkremotely.com/categories/remote-programming-jobs.rss",
	"design":           "https://weworkremotely.com/categories/remote-design-jobs.rss",
	"devops":           "https://weworkremotely.com/categories/remote-devops-sysadmin-jobs.rss",
	"marketing":        "https://weworkremotely.com/categories/remote-marketing-jobs.rss",
	"customer-support": "https://weworkremotely.com/categories/remote-customer-support-jobs.rss",
	"sales":            "https://weworkremotely.com/categories/remote-sales-jobs.rss",
	"product":          "https://weworkremotely.com/categories/remote-product-jobs.rss",
}

// WWRCategories lists the supported category slugs.
func WWRCategories() []string {
	out := make([]string, 0, len(wwrFeeds))
	for k := range wwrFeeds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	wwrLocationRe  = regexp.MustCompile(`(?i)Location:?\s*([^<\n]+)`)
	wwrPartTimeRe  = regexp.MustCompile(`(?i)\bpart[- ]time\b`)
	wwrContractRe  = regexp.MustCompile(`(?i)\bcontract\b`)
	wwrFreelanceRe = regexp.MustCompile(`(?i)\bfreelance\b`)
)

// WeWorkRemotely reads the per-category RSS feeds. Every posting is remote.
type WeWorkRemotely struct {
	// FeedURL overrides the category feed, for tests.
	FeedURL    string
	HTTPClient *http.Client
}

func (a *WeWorkRemotely) Name() Source    { return SourceWWR }
func (a *WeWorkRemotely) Configured() bool { return true }

type wwrRSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []wwrItem `xml:"item"`
	} `xml:"channel"`
}

type wwrItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Fetch implements Adapter. Supports Category and Limit; unknown categories
// read the programming feed.
func (a *WeWorkRemotely) Fetch(ctx context.Context, f Filters) ([]Posting, error) {
	engine.IncrWWRRequests()

	feed, ok := wwrFeeds[f.Category]
	if !ok {
		feed = wwrFeeds[wwrDefaultCategory]
	}
	if a.FeedURL != "" {
		feed = a.FeedURL
	}
	body, err := getBody(ctx, a.HTTPClient, feed, nil, map[string]string{
		"Accept": "application/rss+xml, application/xml;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("weworkremotely: %w", err)
	}
	return parseWWRFeed(body, f.Category, f.Limit)
}

func parseWWRFeed(body []byte, category string, limit int) ([]Posting, error) {
	var rss wwrRSS
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, fmt.Errorf("weworkremotely: parse feed: %w", err)
	}
	items := rss.Channel.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Posting, 0, len(items))
	for _, it := range items {
		p, ok := it.posting(category)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	slog.Debug("weworkremotely: fetch complete", slog.Int("items", len(items)), slog.Int("jobs", len(out)))
	return out, nil
}

// posting maps one item; items without a title or link are skipped.
func (it wwrItem) posting(category string) (Posting, bool) {
	titleText := strings.TrimSpace(it.Title)
	link := strings.TrimSpace(it.Link)
	if titleText == "" || link == "" {
		return Posting{}, false
	}

	company, title := SplitCompanyTitle(titleText)

	location := "Remote"
	if m := wwrLocationRe.FindStringSubmatch(it.Description); m != nil {
		if loc := strings.TrimSpace(m[1]); loc != "" {
			location = loc
		}
	}

	employment := "Full-time"
	switch {
	case wwrPartTimeRe.MatchString(it.Description):
		employment = "Part-time"
	case wwrContractRe.MatchString(it.Description):
		employment = "Contract"
	case wwrFreelanceRe.MatchString(it.Description):
		employment = "Freelance"
	}
	if category != "" {
		employment += " - " + titleCase(category)
	}

	jobID := link
	if i := strings.LastIndex(link, "/"); i >= 0 {
		jobID = link[i+1:]
	}

	return Posting{
		Title:          Str(title),
		Company:        Str(company),
		Location:       Str(location),
		EmploymentType: Str(employment),
		Remote:         Bool(true),
		PostedAt:       ParseTime(it.PubDate),
		ApplyURL:       link,
		SourceURL:      Str(link),
		Description:    Str(it.Description),
		Source:         SourceWWR,
		SourceJobID:    Str(jobID),
	}, true
}

// SplitCompanyTitle splits a feed title of the form "Company: Title".
// Titles without the separator have no company.
func SplitCompanyTitle(s string) (company, title string) {
	if c, t, ok := strings.Cut(s, ": "); ok {
		return strings.TrimSpace(c), strings.TrimSpace(t)
	}
	return "", s
}

// titleCase upper-cases the first letter of every word, hyphenated parts included.
func titleCase(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if upper && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		upper = !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
	}
	return string(b)
}
