package crawler

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"landseek/models"
)

// Extractor reveals and extracts every unique listing for the current
// filtered view.
type Extractor interface {
	Extract(ctx context.Context, sess Session, address string) ([]models.Listing, error)
}

type listingExtractor struct {
	selectors SelectorTable
	baseURL   string
}

// NewExtractor builds the marker-driven listing extractor. baseURL turns
// relative item links into absolute detail URLs.
func NewExtractor(selectors SelectorTable, baseURL string) Extractor {
	return &listingExtractor{selectors: selectors, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Extract clicks every cluster marker in DOM order, reads the listing panel
// it reveals and collects one record per unique article number. A single bad
// marker or item is logged and skipped; partial results always beat none.
func (e *listingExtractor) Extract(ctx context.Context, sess Session, address string) ([]models.Listing, error) {
	page := sess.Page()

	markerSel, ok := e.waitForMarkers(page)
	if !ok {
		// An empty map area is a valid outcome, not an error.
		log.Printf("[extractor] no cluster markers found, returning empty result")
		return []models.Listing{}, nil
	}

	markers, err := page.Locator(markerSel).All()
	if err != nil {
		log.Printf("[extractor] enumerate markers: %v", err)
		return []models.Listing{}, nil
	}
	log.Printf("[extractor] found %d marker groups via %q", len(markers), markerSel)

	seen := newDedupeSet()
	var results []models.Listing

	for i, marker := range markers {
		if err := ctx.Err(); err != nil {
			log.Printf("[extractor] crawl cancelled at marker %d/%d", i+1, len(markers))
			return results, nil
		}

		if !e.clickMarker(page, marker, i, len(markers)) {
			continue
		}

		items, err := page.Locator(e.selectors.Primary(RoleListingItem)).All()
		if err != nil {
			log.Printf("[extractor] marker %d: enumerate items: %v", i+1, err)
			continue
		}
		log.Printf("[extractor] marker %d: %d listing items visible", i+1, len(items))

		for _, item := range items {
			raw, ok := e.extractRawItem(item)
			if !ok {
				continue
			}
			// The same listing surfaces under overlapping markers near
			// cluster boundaries; only the first sighting counts.
			if raw.ArticleNo != "" && !seen.add(raw.ArticleNo) {
				continue
			}
			results = append(results, e.normalize(raw, address))
		}
	}

	log.Printf("[extractor] collected %d unique listings for %q", len(results), address)
	return results, nil
}

// waitForMarkers waits for at least one marker to attach, trying each
// candidate selector against a shared 15 second deadline.
func (e *listingExtractor) waitForMarkers(page playwright.Page) (string, bool) {
	deadline := time.Now().Add(15 * time.Second)
	for _, sel := range e.selectors.Candidates(RoleMarker) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			remaining = 2 * time.Second
		}
		if _, err := page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(remaining.Milliseconds())),
		}); err != nil {
			log.Printf("[extractor] marker selector %q: %v", sel, err)
			continue
		}
		count, err := page.Locator(sel).Count()
		if err != nil || count == 0 {
			continue
		}
		return sel, true
	}
	return "", false
}

// clickMarker scrolls a marker into view and clicks it, forcing the click
// when the marker is occluded by an overlapping layer. Returns false when
// the marker should be skipped.
func (e *listingExtractor) clickMarker(page playwright.Page, marker playwright.Locator, index, total int) bool {
	log.Printf("[extractor] clicking marker group %d/%d", index+1, total)

	if err := marker.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		log.Printf("[extractor] marker %d not visible, skipping: %v", index+1, err)
		return false
	}
	if err := marker.ScrollIntoViewIfNeeded(); err != nil {
		log.Printf("[extractor] marker %d scroll: %v", index+1, err)
	}
	page.WaitForTimeout(1000)

	if err := marker.Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(true),
		Timeout: playwright.Float(10000),
	}); err != nil {
		log.Printf("[extractor] marker %d click failed, skipping: %v", index+1, err)
		return false
	}

	waitNetworkIdle(page, 20000)
	// The listing panel slides in after the network settles.
	page.WaitForTimeout(2000)
	return true
}

// extractRawItem reads the raw text fields off one listing card. A card
// without an owner label is a placeholder and is dropped.
func (e *listingExtractor) extractRawItem(item playwright.Locator) (models.RawListingItem, bool) {
	var raw models.RawListingItem

	inner := item.Locator(e.selectors.Primary(RoleListingInner))
	if count, err := inner.Count(); err != nil || count == 0 {
		return raw, false
	}

	link := item.Locator(e.selectors.Primary(RoleListingLink)).First()
	if count, err := link.Count(); err == nil && count > 0 {
		if articleNo, err := link.GetAttribute("_articleno"); err == nil {
			raw.ArticleNo = articleNo
		}
		if href, err := link.GetAttribute("href"); err == nil && href != "" {
			raw.DetailHref = href
		}
	} else {
		return raw, false
	}

	raw.OwnerLabel = e.textOf(inner, RoleOwnerLabel)
	raw.TransactionLabel = e.textOf(inner, RoleTransactionType)
	raw.RawPrice = e.textOf(inner, RolePrice)
	raw.BuildingLabel = e.textOf(inner, RoleBuildingType)
	raw.RawSpec = e.textOf(inner, RoleSpec)
	raw.RawConfirmDate = e.textOf(inner, RoleConfirmDate)
	raw.RawTags = e.textsOf(inner, RoleTags)

	if raw.OwnerLabel == "" {
		return raw, false
	}
	return raw, true
}

func (e *listingExtractor) textOf(scope playwright.Locator, role Role) string {
	loc := scope.Locator(e.selectors.Primary(role))
	count, err := loc.Count()
	if err != nil || count == 0 {
		return ""
	}
	text, err := loc.First().InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(1000)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *listingExtractor) textsOf(scope playwright.Locator, role Role) []string {
	loc := scope.Locator(e.selectors.Primary(role))
	texts, err := loc.AllInnerTexts()
	if err != nil {
		return nil
	}
	var out []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalize turns a raw card into a typed record via the field parsers.
func (e *listingExtractor) normalize(raw models.RawListingItem, address string) models.Listing {
	spec := ParseSpec(raw.RawSpec)
	return models.Listing{
		ArticleNo:       raw.ArticleNo,
		Address:         address,
		OwnerType:       raw.OwnerLabel,
		TransactionType: raw.TransactionLabel,
		Price:           ParsePrice(raw.RawPrice),
		BuildingType:    raw.BuildingLabel,
		AreaPyeong:      spec.AreaPyeong,
		FloorInfo:       spec.FloorInfo,
		Direction:       spec.Direction,
		Tags:            raw.RawTags,
		UpdatedDate:     ParseConfirmDate(raw.RawConfirmDate),
		DetailURL:       e.absoluteURL(raw.DetailHref),
	}
}

func (e *listingExtractor) absoluteURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return e.baseURL + href
}

// dedupeSet tracks article numbers seen within one crawl invocation.
type dedupeSet struct {
	seen map[string]struct{}
}

func newDedupeSet() *dedupeSet {
	return &dedupeSet{seen: make(map[string]struct{})}
}

// add reports whether id was new.
func (d *dedupeSet) add(id string) bool {
	if _, dup := d.seen[id]; dup {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}
