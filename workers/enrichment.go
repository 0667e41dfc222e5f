package workers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"landseek/storage"
)

// EnrichmentWorker visits listing detail pages and fills in the description
// and photo URLs the map cards never carry.
type EnrichmentWorker struct {
	store      *storage.PostgresStore
	media      *MediaWorker
	httpClient *http.Client
	userAgent  string
}

func NewEnrichmentWorker(store *storage.PostgresStore, media *MediaWorker, userAgent string) *EnrichmentWorker {
	return &EnrichmentWorker{
		store:      store,
		media:      media,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
	}
}

// EnrichedData is what one detail page yields.
type EnrichedData struct {
	Description string   `json:"description"`
	ImageURLs   []string `json:"image_urls"`
}

// Enrich fetches a detail URL and extracts description and photos.
func (w *EnrichmentWorker) Enrich(ctx context.Context, detailURL string) (*EnrichedData, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", detailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, fmt.Errorf("listing gone: %d", resp.StatusCode)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return w.ParseHTML(resp.Body)
}

// ParseHTML extracts the enrichment fields from a detail page document.
func (w *EnrichmentWorker) ParseHTML(r io.Reader) (*EnrichedData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	data := &EnrichedData{}

	data.Description = strings.TrimSpace(doc.Find("div.detail_description, p.detail_description--text").Text())
	if data.Description == "" {
		if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			data.Description = strings.TrimSpace(content)
		}
	}

	seen := make(map[string]bool)
	addImage := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") || seen[src] {
			return
		}
		seen[src] = true
		data.ImageURLs = append(data.ImageURLs, src)
	}

	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		addImage(content)
	}
	doc.Find("div.detail_photo img, ul.photo_list img").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addImage(src)
		}
	})

	return data, nil
}

// Run polls for listings awaiting enrichment until the context ends.
func (w *EnrichmentWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Enrichment worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *EnrichmentWorker) processBatch(ctx context.Context, batchSize int) {
	targets, err := w.store.PendingEnrichment(ctx, batchSize)
	if err != nil {
		log.Printf("Enrichment: query error: %v", err)
		return
	}
	if len(targets) == 0 {
		return
	}

	log.Printf("Enrichment: processing %d listings", len(targets))

	for _, target := range targets {
		if ctx.Err() != nil {
			return
		}

		data, err := w.Enrich(ctx, target.DetailURL)
		if err != nil {
			log.Printf("Enrichment: failed %s: %v", target.ArticleNo, err)
			if err := w.store.MarkEnrichmentAttempt(ctx, target.ID); err != nil {
				log.Printf("Enrichment: failed to mark attempt for %s: %v", target.ArticleNo, err)
			}
			continue
		}

		if w.media != nil && len(data.ImageURLs) > 0 {
			data.ImageURLs = w.media.Mirror(ctx, target.ArticleNo, data.ImageURLs)
		}

		if err := w.store.SaveEnrichment(ctx, target.ID, data.Description, data.ImageURLs); err != nil {
			log.Printf("Enrichment: failed to save %s: %v", target.ArticleNo, err)
			continue
		}

		log.Printf("Enrichment: enriched %s (%d photos)", target.ArticleNo, len(data.ImageURLs))

		// Rate limit between requests
		time.Sleep(500 * time.Millisecond)
	}
}
