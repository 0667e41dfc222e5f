package storage

import (
	"strings"
	"testing"

	"landseek/models"
)

func sampleFilter() *models.SearchFilter {
	return &models.SearchFilter{
		Address:          "서울시 강남구",
		TransactionTypes: []string{"매매", "전세"},
		BuildingTypes:    []string{"아파트"},
		SalePrice:        &models.PriceRange{Min: 500_000_000, Max: 1_000_000_000},
		AreaBucket:       "30평대",
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	first, err := CacheKey(sampleFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := CacheKey(sampleFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("same filter produced %q and %q", first, second)
	}
}

func TestCacheKey_Shape(t *testing.T) {
	key, err := CacheKey(sampleFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "search:") || !strings.HasSuffix(key, ":results") {
		t.Errorf("unexpected key shape: %q", key)
	}

	hash := strings.TrimSuffix(strings.TrimPrefix(key, "search:"), ":results")
	if len(hash) != 16 {
		t.Errorf("hash segment %q has length %d, want 16", hash, len(hash))
	}
}

func TestCacheKey_DistinguishesFilters(t *testing.T) {
	base, err := CacheKey(sampleFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := sampleFilter()
	other.Address = "부산시 해운대구"
	changed, err := CacheKey(other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base == changed {
		t.Errorf("different addresses produced the same key %q", base)
	}
}

func TestScoreKey(t *testing.T) {
	if got := scoreKey("", CategoryAddress); got != "global:keywords:address" {
		t.Errorf("global key = %q", got)
	}
	if got := scoreKey("42", CategoryBuilding); got != "user:42:keywords:building_type" {
		t.Errorf("user key = %q", got)
	}
}
