package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryRunes = 280

// PageInfo is the display data read from a brand's home page.
type PageInfo struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Scraper reads PageInfo from live pages.
type Scraper struct {
	Options *Options
}

// NewScraper returns a scraper using opts (defaults when nil).
func NewScraper(opts *Options) *Scraper {
	return &Scraper{Options: opts}
}

// ScrapePageInfo fetches rawURL and reads its display data.
func (s *Scraper) ScrapePageInfo(ctx context.Context, rawURL string) (*PageInfo, error) {
	var opts *Options
	if s != nil {
		opts = s.Options
	}
	res, err := URL(ctx, normalizeURL(rawURL), opts)
	if err != nil {
		return nil, err
	}
	info, err := ParsePageInfo(res.HTML)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to parse page", Cause: err}
	}
	info.URL = res.URL
	return info, nil
}

// ParsePageInfo reads the site name and description from page HTML.
// og:site_name is preferred over <title>, and meta description over og:description.
func ParsePageInfo(html string) (*PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	info := &PageInfo{
		Name:        firstNonEmpty(metaContent(doc, `meta[property="og:site_name"]`), titleName(doc.Find("title").First().Text())),
		Description: firstNonEmpty(metaContent(doc, `meta[name="description"]`), metaContent(doc, `meta[property="og:description"]`)),
	}
	info.Summary = truncateRunes(strings.ReplaceAll(mainText(doc, DefaultTextSelectors()), "\n", " "), maxSummaryRunes)
	return info, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// titleName keeps the brand part of titles like "Etsy - Shop for handmade goods".
func titleName(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{" | ", " - ", " – ", " — ", ": "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return title
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
