package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
)

const (
	maxElementsPerPage = 20
	descriptionChars   = 500
	titleChars         = 100
)

// containerSelectors are probed in order; the first that yields titled jobs wins.
var containerSelectors = []string{
	`div[class*="job"]`,
	`div[class*="position"]`,
	`article[class*="job"]`,
	`li[class*="job"]`,
	`.job-listing`,
	`.position-listing`,
}

const (
	titleSelector = `h1, h2, h3, h4, strong, .title, .job-title`
	applySelector = `a[href*="apply"], a[href*="job"]`
)

// cityStateRe matches "City, ST". Words of a city name stay on one line.
var cityStateRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)*,\s*[A-Z]{2})\b`)

// Method records which extraction path produced a page's jobs.
type Method string

const (
	MethodSchema    Method = "schema"
	MethodSelectors Method = "selectors"
	MethodPageText  Method = "page_text"
	MethodNone      Method = "none"
)

// Extractor turns a job page into canonical postings.
type Extractor struct {
	loader   engine.PageLoader
	complete engine.Completer
	limiter  *rate.Limiter
}

// NewExtractor returns an Extractor. complete may be nil, which disables
// schema-guided extraction and leaves only the DOM and text heuristics.
func NewExtractor(loader engine.PageLoader, complete engine.Completer, rps float64) *Extractor {
	return &Extractor{loader: loader, complete: complete, limiter: newLimiter(rps)}
}

// Extract loads pageURL and returns the postings found on it.
func (e *Extractor) Extract(ctx context.Context, pageURL string) ([]jobs.Posting, error) {
	list, _, err := e.ExtractWithMethod(ctx, pageURL)
	return list, err
}

// ExtractWithMethod is Extract that also reports the path that succeeded.
func (e *Extractor) ExtractWithMethod(ctx context.Context, pageURL string) ([]jobs.Posting, Method, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, MethodNone, err
	}
	engine.IncrScrapePages()
	body, err := e.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, MethodNone, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	if e.complete != nil {
		list, err := e.extractWithSchema(ctx, body, pageURL)
		switch {
		case err != nil:
			slog.Warn("scrape: schema extraction failed, using heuristics",
				slog.String("url", pageURL), slog.Any("error", err))
		case len(list) > 0:
			return list, MethodSchema, nil
		}
	}

	if list := extractFromElements(body, pageURL); len(list) > 0 {
		return list, MethodSelectors, nil
	}
	if list := extractFromText(engine.PageText(body), pageURL); len(list) > 0 {
		// Readability's main text leaves out navigation and boilerplate.
		if _, main := engine.ReadableText(body, pageURL); main != "" {
			list[0].Description = jobs.Str(truncate(main, descriptionChars))
		}
		return list, MethodPageText, nil
	}
	return nil, MethodNone, nil
}

const schemaPrompt = `Extract all job listings on this page under "jobs".
For each: title, company, location, employment_type, remote, salary_text,
posted_at (ISO if present), apply_url (direct if possible),
source_url (this page or the detail page), description (short).
Reply with one JSON object matching this schema and nothing else:
{"jobs":[{"title":"string","company":"string|null","location":"string|null",
"employment_type":"string|null","remote":"boolean|null","salary_text":"string|null",
"posted_at":"string|null","apply_url":"string|null","source_url":"string|null",
"description":"string|null"}]}
If the page lists no jobs, reply {"jobs":[]}.

Page URL: %s

Page content:
%s`

// schemaJob mirrors the extraction schema; every field may be missing.
type schemaJob struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type"`
	Remote         *bool  `json:"remote"`
	SalaryText     string `json:"salary_text"`
	PostedAt       string `json:"posted_at"`
	ApplyURL       string `json:"apply_url"`
	SourceURL      string `json:"source_url"`
	Description    string `json:"description"`
}

func (e *Extractor) extractWithSchema(ctx context.Context, body []byte, pageURL string) ([]jobs.Posting, error) {
	md, err := engine.Markdown(body)
	if err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	raw, err := e.complete(ctx, fmt.Sprintf(schemaPrompt, pageURL, md))
	if err != nil {
		return nil, err
	}
	obj, ok := engine.FirstJSONObject(raw)
	if !ok {
		return nil, errors.New("no JSON object in reply")
	}
	var out struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	list := make([]jobs.Posting, 0, len(out.Jobs))
	for _, item := range out.Jobs {
		var j schemaJob
		if err := json.Unmarshal(item, &j); err != nil || strings.TrimSpace(j.Title) == "" {
			continue
		}
		sourceURL := j.SourceURL
		if strings.TrimSpace(sourceURL) == "" {
			sourceURL = pageURL
		}
		list = append(list, jobs.Posting{
			Title:          jobs.Str(j.Title),
			Company:        jobs.Str(j.Company),
			Location:       jobs.Str(j.Location),
			EmploymentType: jobs.Str(j.EmploymentType),
			Remote:         j.Remote,
			SalaryText:     jobs.Str(j.SalaryText),
			PostedAt:       jobs.ParseTime(j.PostedAt),
			ApplyURL:       absolute(pageURL, j.ApplyURL),
			SourceURL:      jobs.Str(absolute(pageURL, sourceURL)),
			Description:    jobs.Str(j.Description),
			Source:         jobs.SourceScraped,
		})
	}
	return list, nil
}

// extractFromElements probes containerSelectors and maps up to
// maxElementsPerPage matches of the first productive selector.
func extractFromElements(body []byte, pageURL string) []jobs.Posting {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	doc.Find("script, style, noscript").Remove()

	for _, sel := range containerSelectors {
		matches := doc.Find(sel)
		if matches.Length() > maxElementsPerPage {
			matches = matches.Slice(0, maxElementsPerPage)
		}
		var list []jobs.Posting
		matches.Each(func(_ int, s *goquery.Selection) {
			if p, ok := postingFromElement(s, pageURL); ok {
				list = append(list, p)
			}
		})
		if len(list) > 0 {
			return list
		}
	}
	return nil
}

func postingFromElement(s *goquery.Selection, pageURL string) (jobs.Posting, bool) {
	text := s.Text()

	var title string
	if t := s.Find(titleSelector).First(); t.Length() > 0 {
		title = strings.TrimSpace(t.Text())
	} else {
		first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
		title = truncate(strings.TrimSpace(first), titleChars)
		if title == "" {
			title = "Unknown Position"
		}
	}
	if title == "" {
		return jobs.Posting{}, false
	}

	apply := pageURL
	if href, ok := s.Find(applySelector).First().Attr("href"); ok {
		if u := absolute(pageURL, href); u != "" {
			apply = u
		}
	}

	p := jobs.Posting{
		Title:       jobs.Str(title),
		ApplyURL:    apply,
		SourceURL:   jobs.Str(pageURL),
		Description: jobs.Str(truncate(collapse(text), descriptionChars)),
		Source:      jobs.SourceScraped,
	}
	if strings.Contains(strings.ToLower(text), "remote") {
		p.Remote = jobs.Bool(true)
	}
	if m := cityStateRe.FindStringSubmatch(text); m != nil {
		p.Location = jobs.Str(m[1])
	}
	return p, true
}

// extractFromText treats the whole page as one listing when it mentions jobs.
func extractFromText(text, pageURL string) []jobs.Posting {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "job") && !strings.Contains(lower, "position") {
		return nil
	}
	title := "Position Available"
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); len(line) > 5 {
			title = line
			break
		}
	}
	return []jobs.Posting{{
		Title:       jobs.Str(truncate(title, titleChars)),
		ApplyURL:    pageURL,
		SourceURL:   jobs.Str(pageURL),
		Description: jobs.Str(truncate(text, descriptionChars)),
		Source:      jobs.SourceScraped,
	}}
}

func absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

var wsRe = regexp.MustCompile(`\s+`)

func collapse(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	return engine.TruncateRunes(s, n, "")
}
