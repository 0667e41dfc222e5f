package services

import (
	"context"
	"errors"
	"testing"

	"landseek/models"
)

type stubExtractor struct {
	filter *models.SearchFilter
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, query string) (*models.SearchFilter, error) {
	return s.filter, s.err
}

type stubCrawler struct {
	calls    int
	listings []models.Listing
	err      error
}

func (s *stubCrawler) Crawl(ctx context.Context, filter *models.SearchFilter) ([]models.Listing, error) {
	s.calls++
	return s.listings, s.err
}

func testFilter() *models.SearchFilter {
	return &models.SearchFilter{
		Address:          "서울시 강남구",
		TransactionTypes: []string{models.TransactionSale},
		BuildingTypes:    []string{"아파트"},
	}
}

func TestSearch_ReturnsCrawledListings(t *testing.T) {
	crawler := &stubCrawler{listings: []models.Listing{{ArticleNo: "1"}, {ArticleNo: "2"}}}
	svc := NewSearchService(&stubExtractor{filter: testFilter()}, crawler, nil, nil, nil)

	result, err := svc.Search(context.Background(), "u1", "강남 아파트 매매")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Listings) != 2 {
		t.Errorf("got %d listings, want 2", len(result.Listings))
	}
	if result.CacheHit {
		t.Errorf("cache hit without a cache")
	}
	if crawler.calls != 1 {
		t.Errorf("crawler called %d times, want 1", crawler.calls)
	}
}

func TestSearch_ExtractionErrorPropagates(t *testing.T) {
	crawler := &stubCrawler{}
	svc := NewSearchService(&stubExtractor{err: errors.New("no address in query")}, crawler, nil, nil, nil)

	if _, err := svc.Search(context.Background(), "", "아무거나"); err == nil {
		t.Fatalf("expected extraction error")
	}
	if crawler.calls != 0 {
		t.Errorf("crawler ran despite extraction failure")
	}
}

func TestSearch_CrawlErrorPropagates(t *testing.T) {
	crawler := &stubCrawler{err: errors.New("invalid filter")}
	svc := NewSearchService(&stubExtractor{filter: testFilter()}, crawler, nil, nil, nil)

	if _, err := svc.Search(context.Background(), "", "강남 아파트"); err == nil {
		t.Fatalf("expected crawl error")
	}
}

func TestRefresh_DecodesStoredFilter(t *testing.T) {
	crawler := &stubCrawler{}
	svc := NewSearchService(&stubExtractor{}, crawler, nil, nil, nil)

	err := svc.Refresh(context.Background(),
		[]byte(`{"address":"서울시 강남구","transaction_types":["매매"],"building_types":["아파트"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crawler.calls != 1 {
		t.Errorf("crawler called %d times, want 1", crawler.calls)
	}
}

func TestRefresh_RejectsBadJSON(t *testing.T) {
	svc := NewSearchService(&stubExtractor{}, &stubCrawler{}, nil, nil, nil)
	if err := svc.Refresh(context.Background(), []byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
