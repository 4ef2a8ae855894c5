package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/lysyi3m/board-feeds/app/feed"
	"github.com/lysyi3m/board-feeds/app/site"
	"github.com/samber/lo"
)

// Listing collects post titles, links and categories from board index pages.
type Listing struct {
	fetcher    *Fetcher
	newBackOff func() backoff.BackOff
}

func NewListing(fetcher *Fetcher) *Listing {
	return &Listing{
		fetcher: fetcher,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
}

// Run scrapes every configured page in order. Pages that cannot be fetched
// are skipped; an error is returned only when no page could be read.
func (l *Listing) Run(ctx context.Context, c *site.Config) ([]feed.PostItem, error) {
	base, err := url.Parse(c.Listing.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	var posts []feed.PostItem
	var lastErr error
	pagesRead := 0

	for page := c.Listing.StartPage; page <= c.Listing.EndPage; page++ {
		pageURL := c.PageURL(page)

		body, err := l.fetchPage(ctx, c, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Listing page skipped", "site", c.Name, "page", page, "url", pageURL, "error", err)
			lastErr = err
			continue
		}
		pagesRead++

		found, err := l.parsePage(c, base, body)
		if err != nil {
			slog.Warn("Listing page unparseable", "site", c.Name, "page", page, "error", err)
			continue
		}

		slog.Debug("Listing page scraped", "site", c.Name, "page", page, "posts", len(found))
		posts = append(posts, found...)

		if c.Settings.MaxItems > 0 && len(posts) >= c.Settings.MaxItems {
			posts = posts[:c.Settings.MaxItems]
			break
		}
	}

	if pagesRead == 0 && lastErr != nil {
		return nil, fmt.Errorf("no listing page could be fetched: %w", lastErr)
	}

	return posts, nil
}

func (l *Listing) fetchPage(ctx context.Context, c *site.Config, pageURL string) (string, error) {
	timeout := time.Duration(c.Settings.Timeout) * time.Second

	var body string
	operation := func() error {
		var err error
		body, err = l.fetcher.Fetch(ctx, pageURL, timeout, c.Content.Encoding)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError && statusErr.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(l.newBackOff(), uint64(c.Listing.Retries)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return "", err
	}
	return body, nil
}

func (l *Listing) parsePage(c *site.Config, base *url.URL, body string) ([]feed.PostItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var posts []feed.PostItem
	doc.Find(c.Listing.ItemSelector).Each(func(_ int, s *goquery.Selection) {
		link := resolveLink(base, s.AttrOr("href", ""))
		if link == "" {
			return
		}

		titleSel := s
		if c.Listing.TitleSelector != "" {
			titleSel = s.Find(c.Listing.TitleSelector).First()
		}
		title := strings.Join(strings.Fields(titleSel.Text()), " ")
		if title == "" {
			return
		}

		posts = append(posts, feed.PostItem{
			Title:      title,
			Link:       link,
			Categories: l.categories(c, s),
		})
	})

	return posts, nil
}

func (l *Listing) categories(c *site.Config, item *goquery.Selection) []string {
	if c.Listing.CategorySelector == "" {
		return nil
	}

	scope := item.Parent()
	if c.Listing.ItemParentSelector != "" {
		scope = item.Closest(c.Listing.ItemParentSelector)
	}

	var categories []string
	scope.Find(c.Listing.CategorySelector).Each(func(_ int, s *goquery.Selection) {
		categories = append(categories, strings.TrimSpace(s.Text()))
	})
	return lo.Compact(categories)
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}
