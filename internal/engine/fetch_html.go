package engine

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var (
	spaceRunRe = regexp.MustCompile(`[ \t\f\r]+`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// noiseSelectors are stripped before text or markdown extraction.
var noiseSelectors = strings.Join([]string{
	"script", "style", "noscript", "iframe", "svg",
	"header", "footer", "nav", "aside",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}, ", ")

// ReadableText returns the title and main text of an HTML page using
// go-readability, falling back to the goquery body text.
func ReadableText(body []byte, pageURL string) (title, text string) {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.Title), limitContent(normalizeText(article.TextContent))
	}
	return textWithGoquery(body)
}

// PageText returns the visible text of a whole page, one block per line.
func PageText(body []byte) string {
	_, text := textWithGoquery(body)
	return text
}

func textWithGoquery(body []byte) (title, text string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find("meta[property='og:title']").First().Attr("content")
	}
	doc.Find(noiseSelectors).Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, ul, ol, table").AppendHtml("\n")

	var lines []string
	for _, l := range strings.Split(doc.Find("body").Text(), "\n") {
		if l = strings.TrimSpace(spaceRunRe.ReplaceAllString(l, " ")); l != "" {
			lines = append(lines, l)
		}
	}
	return title, limitContent(strings.Join(lines, "\n"))
}

// Markdown converts a page to markdown for LLM prompts.
func Markdown(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find(noiseSelectors).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertString(cleaned)
	if err != nil {
		return "", err
	}
	return limitContent(strings.TrimSpace(md)), nil
}

func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.TrimSpace(spaceRunRe.ReplaceAllString(l, " ")))
	}
	return strings.TrimSpace(blankRunRe.ReplaceAllString(strings.Join(out, "\n"), "\n\n"))
}

func limitContent(s string) string {
	if cfg.MaxContentChars > 0 && len(s) > cfg.MaxContentChars {
		return TruncateRunes(s, cfg.MaxContentChars, "...")
	}
	return s
}
