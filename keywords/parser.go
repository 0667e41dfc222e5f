package keywords

import (
	"encoding/json"
	"fmt"
	"strings"

	"landseek/models"
)

// payload mirrors the JSON schema the chat model is instructed to return.
// Optional price fields arrive as [max] or [min, max]; absent fields are null.
type payload struct {
	Address         string   `json:"address"`
	TransactionType []string `json:"transaction_type"`
	BuildingType    []string `json:"building_type"`
	SalePrice       []int64  `json:"sale_price"`
	Deposit         []int64  `json:"deposit"`
	MonthlyRent     []int64  `json:"monthly_rent"`
	AreaRange       string   `json:"area_range"`
}

// ParseFilter turns the model's raw JSON reply into a validated SearchFilter.
func ParseFilter(raw string) (*models.SearchFilter, error) {
	raw = stripCodeFence(raw)

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	filter := &models.SearchFilter{
		Address:          strings.TrimSpace(p.Address),
		TransactionTypes: p.TransactionType,
		BuildingTypes:    p.BuildingType,
		AreaBucket:       p.AreaRange,
	}

	var err error
	if filter.SalePrice, err = rangeFromSlice("sale_price", p.SalePrice); err != nil {
		return nil, err
	}
	if filter.Deposit, err = rangeFromSlice("deposit", p.Deposit); err != nil {
		return nil, err
	}
	if filter.MonthlyRent, err = rangeFromSlice("monthly_rent", p.MonthlyRent); err != nil {
		return nil, err
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return filter, nil
}

// rangeFromSlice accepts [max] or [min, max]. A single element means an
// upper bound only.
func rangeFromSlice(field string, vals []int64) (*models.PriceRange, error) {
	switch len(vals) {
	case 0:
		return nil, nil
	case 1:
		if vals[0] < 0 {
			return nil, fmt.Errorf("%s must be non-negative, got %d", field, vals[0])
		}
		return &models.PriceRange{Max: vals[0]}, nil
	case 2:
		if vals[0] < 0 || vals[1] < 0 {
			return nil, fmt.Errorf("%s must be non-negative, got %v", field, vals)
		}
		if vals[0] > vals[1] {
			return nil, fmt.Errorf("%s minimum %d exceeds maximum %d", field, vals[0], vals[1])
		}
		return &models.PriceRange{Min: vals[0], Max: vals[1]}, nil
	default:
		return nil, fmt.Errorf("%s allows at most 2 elements, got %d", field, len(vals))
	}
}

// stripCodeFence removes a surrounding markdown fence the model sometimes
// adds despite the instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
