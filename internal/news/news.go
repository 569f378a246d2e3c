// Package news fetches recent company headlines from Yahoo Finance's RSS feed.
package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/companydash/pkg/models"
	"github.com/seenimoa/companydash/pkg/utils"
)

// DefaultFeedURL is Yahoo's per-ticker headline feed; %s is the ticker.
const DefaultFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// Feed fetches headlines for a ticker.
type Feed struct {
	urlFormat string
	limit     int
	parser    *gofeed.Parser
}

// NewFeed creates a headline feed. urlFormat must contain one %s for the
// ticker; limit <= 0 means no limit.
func NewFeed(urlFormat string, limit int, timeout time.Duration) *Feed {
	if urlFormat == "" {
		urlFormat = DefaultFeedURL
	}
	p := gofeed.NewParser()
	if timeout > 0 {
		p.Client = &http.Client{Timeout: timeout}
	}
	return &Feed{urlFormat: urlFormat, limit: limit, parser: p}
}

// Headlines returns the ticker's headlines, newest first.
func (f *Feed) Headlines(ctx context.Context, ticker string) ([]models.Headline, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("headlines: empty ticker")
	}
	feedURL := fmt.Sprintf(f.urlFormat, url.QueryEscape(symbol))

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS for %s: %w", symbol, err)
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = "Yahoo Finance"
	}
	headlines := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := cleanHTML(item.Title)
		if title == "" {
			continue
		}
		h := models.Headline{
			Title:   title,
			URL:     item.Link,
			Source:  source,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = item.PublishedParsed.UTC()
		}
		headlines = append(headlines, h)
	}

	sortByDate(headlines)
	if f.limit > 0 && len(headlines) > f.limit {
		headlines = headlines[:f.limit]
	}
	return headlines, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// sortByDate sorts headlines newest first; undated items go last.
func sortByDate(h []models.Headline) {
	sort.SliceStable(h, func(i, j int) bool {
		return h[i].PublishedAt.After(h[j].PublishedAt)
	})
}
