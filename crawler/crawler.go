package crawler

import (
	"context"
	"log"
	"net/url"

	"landseek/config"
	"landseek/models"
)

// Crawler is the public entry point of the scraping pipeline. One Crawl call
// owns one browser session for its whole lifetime; concurrent calls never
// share state.
type Crawler struct {
	sessions  SessionFactory
	navigator Navigator
	options   OptionApplier
	extractor Extractor
}

// New wires the default playwright-backed pipeline from configuration.
func New(cfg *config.CrawlerConfig) (*Crawler, error) {
	selectors, err := LoadSelectors(cfg.SelectorFile)
	if err != nil {
		return nil, err
	}
	return &Crawler{
		sessions:  NewPlaywrightSessions(cfg),
		navigator: NewNavigator(selectors),
		options:   NewOptionApplier(selectors, cfg.SettleDelay),
		extractor: NewExtractor(selectors, siteBase(cfg.EntryURL)),
	}, nil
}

// NewWithParts wires a crawler from explicit step implementations.
func NewWithParts(sessions SessionFactory, nav Navigator, options OptionApplier, extractor Extractor) *Crawler {
	return &Crawler{sessions: sessions, navigator: nav, options: options, extractor: extractor}
}

func siteBase(entryURL string) string {
	u, err := url.Parse(entryURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Crawl runs the full pipeline: open session, navigate to the address,
// apply the filter, extract listings, always close the session.
//
// Only *InvalidFilterError propagates to the caller. Every downstream
// failure is contained here and surfaces as an empty or partial result; a
// broken scrape must look like "no matching listings" to the search flow
// above it.
func (c *Crawler) Crawl(ctx context.Context, filter *models.SearchFilter) ([]models.Listing, error) {
	if filter == nil {
		return nil, &InvalidFilterError{Reason: errNilFilter}
	}
	if err := filter.Validate(); err != nil {
		return nil, &InvalidFilterError{Reason: err}
	}

	log.Printf("[crawler] starting crawl for %q", filter.Address)

	sess, err := c.sessions.Open(ctx)
	if err != nil {
		log.Printf("[crawler] session init: %v", err)
		return []models.Listing{}, nil
	}
	defer sess.Close()

	if err := c.navigator.GoToAddress(ctx, sess, filter.Address); err != nil {
		log.Printf("[crawler] navigation: %v", err)
		return []models.Listing{}, nil
	}

	if err := c.options.Apply(ctx, sess, filter); err != nil {
		// Searching with the site's default filters still yields usable
		// results; only cancellation ends the crawl here.
		log.Printf("[crawler] filter application: %v", err)
		if ctx.Err() != nil {
			return []models.Listing{}, nil
		}
	}

	listings, err := c.extractor.Extract(ctx, sess, filter.Address)
	if err != nil {
		log.Printf("[crawler] extraction: %v", err)
		return []models.Listing{}, nil
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	log.Printf("[crawler] crawl finished: %d listings for %q", len(listings), filter.Address)
	return listings, nil
}
