package models

import (
	"fmt"
	"strings"
)

// Transaction types as labeled on the target site.
const (
	TransactionSale        = "매매"
	TransactionLease       = "전세"
	TransactionMonthlyRent = "월세"
	TransactionShortTerm   = "단기임대"
)

// TransactionTypes lists every valid transaction label.
var TransactionTypes = []string{
	TransactionSale,
	TransactionLease,
	TransactionMonthlyRent,
	TransactionShortTerm,
}

// BuildingTypes lists the 18 building categories the site exposes.
var BuildingTypes = []string{
	"아파트",
	"오피스텔",
	"빌라",
	"아파트분양권",
	"오피스텔분양권",
	"재건축",
	"전원주택",
	"단독/다가구",
	"상가주택",
	"한옥주택",
	"재개발",
	"원룸",
	"상가",
	"사무실",
	"공장/창고",
	"건물",
	"토지",
	"지식산업센터",
}

// AreaBuckets lists the 8 fixed pyeong bucket labels.
var AreaBuckets = []string{
	"~ 10평",
	"10평대",
	"20평대",
	"30평대",
	"40평대",
	"50평대",
	"60평대",
	"70평 ~",
}

// PriceRange is a price bound pair in won. Min == 0 means "max only".
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// SearchFilter is the structured search produced by keyword extraction.
type SearchFilter struct {
	Address          string      `json:"address"`
	TransactionTypes []string    `json:"transaction_types"`
	BuildingTypes    []string    `json:"building_types"`
	SalePrice        *PriceRange `json:"sale_price,omitempty"`
	Deposit          *PriceRange `json:"deposit,omitempty"`
	MonthlyRent      *PriceRange `json:"monthly_rent,omitempty"`
	AreaBucket       string      `json:"area_bucket,omitempty"`
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Validate checks the filter shape before any browser resource is spent.
// The upstream extraction step validates too, but a malformed filter must
// never reach the crawler unnoticed.
func (f *SearchFilter) Validate() error {
	if tokens := strings.Fields(f.Address); len(tokens) < 2 {
		return fmt.Errorf("address %q needs at least province and district", f.Address)
	}
	if len(f.TransactionTypes) == 0 {
		return fmt.Errorf("at least one transaction type is required")
	}
	for _, tt := range f.TransactionTypes {
		if !contains(TransactionTypes, tt) {
			return fmt.Errorf("unknown transaction type %q", tt)
		}
	}
	if len(f.BuildingTypes) == 0 {
		return fmt.Errorf("at least one building type is required")
	}
	for _, bt := range f.BuildingTypes {
		if !contains(BuildingTypes, bt) {
			return fmt.Errorf("unknown building type %q", bt)
		}
	}
	if f.AreaBucket != "" && !contains(AreaBuckets, f.AreaBucket) {
		return fmt.Errorf("unknown area bucket %q", f.AreaBucket)
	}
	for name, r := range map[string]*PriceRange{
		"sale_price":   f.SalePrice,
		"deposit":      f.Deposit,
		"monthly_rent": f.MonthlyRent,
	} {
		if r == nil {
			continue
		}
		if r.Max < 0 || r.Min < 0 {
			return fmt.Errorf("%s bounds must not be negative", name)
		}
		if r.Min > 0 && r.Max > 0 && r.Min > r.Max {
			return fmt.Errorf("%s range is inverted (%d > %d)", name, r.Min, r.Max)
		}
	}
	return nil
}
