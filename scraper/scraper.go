// Package scraper reads artwork and synopsis meta tags from a title's public
// page when the metadata API leaves them out.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cine-catalog/logging"

	"github.com/gocolly/colly"
)

// PageMeta is what we take from a title page.
type PageMeta struct {
	Image       string
	Description string
}

// Empty reports whether nothing useful was found.
func (m PageMeta) Empty() bool {
	return m.Image == "" && m.Description == ""
}

type ScraperInterface interface {
	Scrape(ctx context.Context, url string) (PageMeta, error)
}

type Scraper struct {
	timeout   time.Duration
	userAgent string
}

func NewScraper(timeout time.Duration) ScraperInterface {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		timeout:   timeout,
		userAgent: "cine-catalog/1.0 (+artwork)",
	}
}

// Scrape visits url and collects the og:image and og:description tags,
// falling back to the plain description meta tag.
func (s *Scraper) Scrape(ctx context.Context, url string) (PageMeta, error) {
	logger := logging.WithComponent("scraper")

	if err := ctx.Err(); err != nil {
		return PageMeta{}, err
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)

	var meta PageMeta
	var fallbackDescription string

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		logger.Debug().Str("event", "scrape.visit").Str("url", r.URL.String()).Msg("visiting")
	})

	c.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		if meta.Image == "" {
			meta.Image = strings.TrimSpace(e.Attr("content"))
		}
	})

	c.OnHTML(`meta[property="og:description"]`, func(e *colly.HTMLElement) {
		if meta.Description == "" {
			meta.Description = strings.TrimSpace(e.Attr("content"))
		}
	})

	c.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if fallbackDescription == "" {
			fallbackDescription = strings.TrimSpace(e.Attr("content"))
		}
	})

	c.OnResponse(func(r *colly.Response) {
		logger.Debug().Str("event", "scrape.response").Int("status", r.StatusCode).Msg("response received")
	})

	if err := c.Visit(url); err != nil {
		return PageMeta{}, fmt.Errorf("visit %s: %w", url, err)
	}
	if err := ctx.Err(); err != nil {
		return PageMeta{}, err
	}

	if meta.Description == "" {
		meta.Description = fallbackDescription
	}
	return meta, nil
}
