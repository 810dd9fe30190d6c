// Package crawler harvests posts from the external Everytime community board
// into the everytime_posts side table.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"campusfind/internal/middleware"
	"campusfind/internal/models"
	"campusfind/internal/repository"

	"github.com/PuerkitoBio/goquery"
	"github.com/codeGROOVE-dev/retry"
	"github.com/gocolly/colly"
)

const (
	defaultMaxPages    = 10
	defaultPageTimeout = 10 * time.Second
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
)

// Crawler walks the board's listing pages and upserts every post it finds,
// deduplicated by link. A page that repeatedly fails to load aborts the whole
// run rather than hanging.
type Crawler struct {
	repo        repository.EverytimeRepository
	boardURL    string
	maxPages    int
	pageTimeout time.Duration
}

// Result summarizes one crawl run.
type Result struct {
	PagesVisited int
	PostsStored  int
	Skipped      int
}

// New creates a crawler for the given board listing URL.
func New(repo repository.EverytimeRepository, boardURL string, maxPages int) *Crawler {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Crawler{
		repo:        repo,
		boardURL:    boardURL,
		maxPages:    maxPages,
		pageTimeout: defaultPageTimeout,
	}
}

// Run crawls pages 1..maxPages. It stops early at the first page with no
// articles (end of the board) and aborts when a page cannot be fetched
// within the bounded retry window.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	if c.boardURL == "" {
		return nil, fmt.Errorf("board URL is not configured")
	}

	result := &Result{}

	for page := 1; page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageURL, err := c.pageURL(page)
		if err != nil {
			return result, err
		}

		var entries []models.EverytimePost
		err = retry.Do(
			func() error {
				var fetchErr error
				entries, fetchErr = c.collectPage(pageURL)
				return fetchErr
			},
			retry.Attempts(3),
			retry.Delay(time.Second),
			retry.MaxDelay(10*time.Second),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				middleware.Logger.Warn("retrying page fetch",
					slog.String("url", pageURL),
					slog.Uint64("attempt", uint64(n)+1),
					slog.String("error", err.Error()))
			}),
		)
		if err != nil {
			return result, fmt.Errorf("page %d did not load, aborting crawl: %w", page, err)
		}

		result.PagesVisited++
		if len(entries) == 0 {
			middleware.Logger.Info("reached empty page, stopping crawl", slog.Int("page", page))
			break
		}

		for i := range entries {
			entry := entries[i]
			if err := c.repo.Upsert(ctx, &entry); err != nil {
				middleware.CrawledPosts.WithLabelValues("error").Inc()
				middleware.Logger.Warn("failed to store crawled post",
					slog.String("link", entry.Link),
					slog.String("error", err.Error()))
				result.Skipped++
				continue
			}
			middleware.CrawledPosts.WithLabelValues("stored").Inc()
			result.PostsStored++
		}
	}

	middleware.Logger.Info("crawl finished",
		slog.Int("pages", result.PagesVisited),
		slog.Int("stored", result.PostsStored),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// collectPage fetches one listing page and extracts its articles.
func (c *Crawler) collectPage(pageURL string) ([]models.EverytimePost, error) {
	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	collector.SetRequestTimeout(c.pageTimeout)

	var entries []models.EverytimePost
	var pageErr error

	collector.OnHTML("article", func(e *colly.HTMLElement) {
		entry, ok := extractArticle(e.DOM, e.Request)
		if !ok {
			return
		}
		entries = append(entries, entry)
	})

	collector.OnError(func(r *colly.Response, err error) {
		pageErr = err
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, err
	}
	collector.Wait()

	if pageErr != nil {
		return nil, pageErr
	}
	return entries, nil
}

// extractArticle pulls (title, link, content, time) out of one article
// element. Entries without a title or link are not worth keeping.
func extractArticle(sel *goquery.Selection, req *colly.Request) (models.EverytimePost, bool) {
	title := strings.TrimSpace(sel.Find("h2").First().Text())
	href, _ := sel.Find("a").First().Attr("href")
	if title == "" || href == "" {
		return models.EverytimePost{}, false
	}

	return models.EverytimePost{
		Title:   title,
		Link:    req.AbsoluteURL(href),
		Content: strings.TrimSpace(sel.Find("p.medium").First().Text()),
		Time:    strings.TrimSpace(sel.Find("time.small").First().Text()),
	}, true
}

// pageURL appends the page number to the board URL's query string.
func (c *Crawler) pageURL(page int) (string, error) {
	u, err := url.Parse(c.boardURL)
	if err != nil {
		return "", fmt.Errorf("invalid board URL %q: %w", c.boardURL, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
