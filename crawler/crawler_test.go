package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"

	"landseek/models"
)

type fakeSession struct {
	closed int
}

func (s *fakeSession) Page() playwright.Page { return nil }
func (s *fakeSession) Close()                { s.closed++ }

type fakeFactory struct {
	opens int
	err   error
	sess  *fakeSession
}

func (f *fakeFactory) Open(ctx context.Context) (Session, error) {
	f.opens++
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

type fakeNavigator struct {
	calls int
	err   error
}

func (n *fakeNavigator) GoToAddress(ctx context.Context, sess Session, address string) error {
	n.calls++
	return n.err
}

type fakeApplier struct {
	calls int
	err   error
}

func (a *fakeApplier) Apply(ctx context.Context, sess Session, filter *models.SearchFilter) error {
	a.calls++
	return a.err
}

type fakeExtractor struct {
	calls    int
	listings []models.Listing
	err      error
}

func (e *fakeExtractor) Extract(ctx context.Context, sess Session, address string) ([]models.Listing, error) {
	e.calls++
	return e.listings, e.err
}

func validFilter() *models.SearchFilter {
	return &models.SearchFilter{
		Address:          "서울시 강남구",
		TransactionTypes: []string{models.TransactionSale},
		BuildingTypes:    []string{"아파트"},
	}
}

func newTestCrawler(factory *fakeFactory, nav *fakeNavigator, applier *fakeApplier, ext *fakeExtractor) *Crawler {
	return NewWithParts(factory, nav, applier, ext)
}

func TestCrawl_InvalidFilterFailsBeforeSessionOpen(t *testing.T) {
	factory := &fakeFactory{sess: &fakeSession{}}
	c := newTestCrawler(factory, &fakeNavigator{}, &fakeApplier{}, &fakeExtractor{})

	filter := validFilter()
	filter.TransactionTypes = nil

	_, err := c.Crawl(context.Background(), filter)

	var invalid *InvalidFilterError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidFilterError, got %v", err)
	}
	if factory.opens != 0 {
		t.Fatalf("session opened %d times for an invalid filter", factory.opens)
	}
}

func TestCrawl_NilFilter(t *testing.T) {
	factory := &fakeFactory{sess: &fakeSession{}}
	c := newTestCrawler(factory, &fakeNavigator{}, &fakeApplier{}, &fakeExtractor{})

	_, err := c.Crawl(context.Background(), nil)

	var invalid *InvalidFilterError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidFilterError, got %v", err)
	}
	if factory.opens != 0 {
		t.Fatalf("session opened for nil filter")
	}
}

func TestCrawl_MalformedAddressRejected(t *testing.T) {
	factory := &fakeFactory{sess: &fakeSession{}}
	c := newTestCrawler(factory, &fakeNavigator{}, &fakeApplier{}, &fakeExtractor{})

	filter := validFilter()
	filter.Address = "서울시"

	if _, err := c.Crawl(context.Background(), filter); err == nil {
		t.Fatalf("expected error for province-only address")
	}
	if factory.opens != 0 {
		t.Fatalf("session opened for malformed address")
	}
}

func TestCrawl_SessionInitFailureReturnsEmpty(t *testing.T) {
	factory := &fakeFactory{err: &SessionInitError{Attempts: 5, Err: errors.New("launch failed")}}
	nav := &fakeNavigator{}
	c := newTestCrawler(factory, nav, &fakeApplier{}, &fakeExtractor{})

	listings, err := c.Crawl(context.Background(), validFilter())
	if err != nil {
		t.Fatalf("session failure must not propagate, got %v", err)
	}
	if listings == nil || len(listings) != 0 {
		t.Fatalf("expected empty slice, got %v", listings)
	}
	if nav.calls != 0 {
		t.Fatalf("navigation attempted without a session")
	}
}

func TestCrawl_AddressNotFoundReturnsEmptyAndClosesOnce(t *testing.T) {
	sess := &fakeSession{}
	factory := &fakeFactory{sess: sess}
	nav := &fakeNavigator{err: &AddressNotFoundError{Address: "서울시 강남구"}}
	ext := &fakeExtractor{}
	c := newTestCrawler(factory, nav, &fakeApplier{}, ext)

	listings, err := c.Crawl(context.Background(), validFilter())
	if err != nil {
		t.Fatalf("address-not-found must not propagate, got %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
	if ext.calls != 0 {
		t.Fatalf("extraction ran after failed navigation")
	}
	if sess.closed != 1 {
		t.Fatalf("session closed %d times, want exactly 1", sess.closed)
	}
}

func TestCrawl_ExtractorFailureReturnsEmptyAndClosesOnce(t *testing.T) {
	sess := &fakeSession{}
	factory := &fakeFactory{sess: sess}
	ext := &fakeExtractor{err: errors.New("panel never appeared")}
	c := newTestCrawler(factory, &fakeNavigator{}, &fakeApplier{}, ext)

	listings, err := c.Crawl(context.Background(), validFilter())
	if err != nil {
		t.Fatalf("extraction failure must not propagate, got %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
	if sess.closed != 1 {
		t.Fatalf("session closed %d times, want exactly 1", sess.closed)
	}
}

func TestCrawl_FilterApplyFailureStillExtracts(t *testing.T) {
	sess := &fakeSession{}
	factory := &fakeFactory{sess: sess}
	applier := &fakeApplier{err: errors.New("apply button gone")}
	ext := &fakeExtractor{listings: []models.Listing{{ArticleNo: "100"}}}
	c := newTestCrawler(factory, &fakeNavigator{}, applier, ext)

	listings, err := c.Crawl(context.Background(), validFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ext.calls != 1 {
		t.Fatalf("extraction skipped after filter failure")
	}
	if len(listings) != 1 {
		t.Fatalf("expected degraded result to carry listings, got %d", len(listings))
	}
}

func TestCrawl_SuccessClosesSessionOnce(t *testing.T) {
	sess := &fakeSession{}
	factory := &fakeFactory{sess: sess}
	applier := &fakeApplier{}
	ext := &fakeExtractor{listings: []models.Listing{
		{ArticleNo: "1", Price: 500_000_000},
		{ArticleNo: "2", Price: 350_000_000},
	}}
	c := newTestCrawler(factory, &fakeNavigator{}, applier, ext)

	listings, err := c.Crawl(context.Background(), validFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if applier.calls != 1 {
		t.Fatalf("filter applied %d times, want 1", applier.calls)
	}
	if sess.closed != 1 {
		t.Fatalf("session closed %d times, want exactly 1", sess.closed)
	}
}

func TestDedupeSet(t *testing.T) {
	set := newDedupeSet()
	if !set.add("2503123456") {
		t.Fatalf("first sighting reported as duplicate")
	}
	if set.add("2503123456") {
		t.Fatalf("second sighting reported as new")
	}
	if !set.add("2503999999") {
		t.Fatalf("distinct id reported as duplicate")
	}
}
