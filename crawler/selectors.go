package crawler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role names a logical interaction point on the target site. The site's
// markup drifts, so every role maps to an ordered list of candidate
// selectors tried in order instead of a single hardcoded one.
type Role string

const (
	RoleSearchInput     Role = "search-input"
	RoleFilterPanelOpen Role = "filter-panel-open"
	RoleTransactionItem Role = "transaction-item"
	RoleBuildingItem    Role = "building-item"
	RoleSalePriceMin    Role = "sale-price-min"
	RoleSalePriceMax    Role = "sale-price-max"
	RoleDepositMin      Role = "deposit-min"
	RoleDepositMax      Role = "deposit-max"
	RoleMonthlyRentMin  Role = "monthly-rent-min"
	RoleMonthlyRentMax  Role = "monthly-rent-max"
	RoleAreaOptionList  Role = "area-option-list"
	RoleApplyButton     Role = "apply-button"
	RoleMarker          Role = "marker"
	RoleListingItem     Role = "listing-item"
	RoleListingInner    Role = "listing-inner"
	RoleListingLink     Role = "listing-link"
	RoleOwnerLabel      Role = "owner-label"
	RoleTransactionType Role = "transaction-type"
	RolePrice           Role = "price"
	RoleBuildingType    Role = "building-type"
	RoleSpec            Role = "spec"
	RoleTags            Role = "tags"
	RoleConfirmDate     Role = "confirm-date"
)

// SelectorTable maps roles to ordered candidate selectors. Toggle roles
// contain a %s placeholder for the item label.
type SelectorTable map[Role][]string

// DefaultSelectors reflects the site markup as last observed.
func DefaultSelectors() SelectorTable {
	return SelectorTable{
		RoleSearchInput: {"#search"},
		RoleFilterPanelOpen: {
			"a.header_option_add._optionChange",
			"a._optionChange",
			".header_option_add",
			"a[class*='option']",
			"a[href*='option']",
		},
		RoleTransactionItem: {
			"div.article_box--option:not(._complexFilterBox) div._multiFilter[filtername='tradTpCd'] input[headernm='%s'] + label",
		},
		RoleBuildingItem: {
			"div.article_box--option:not(._complexFilterBox) div._multiFilter[filtername='rletTpCd'] input[headernm='%s'] + label",
		},
		RoleSalePriceMin:   {"#dprcMin"},
		RoleSalePriceMax:   {"#dprcMax"},
		RoleDepositMin:     {"#wprcMin"},
		RoleDepositMax:     {"#wprcMax"},
		RoleMonthlyRentMin: {"#rprcMin"},
		RoleMonthlyRentMax: {"#rprcMax"},
		RoleAreaOptionList: {"#filterLayer #ct"},
		RoleApplyButton: {
			"a.btn_option.btn_option--search._filterSaveBtn",
			"._filterSaveBtn",
		},
		RoleMarker: {
			".marker_circle_count",
			".marker_count",
			"[class*='marker']",
			"[class*='circle_count']",
			".map_marker",
			".cluster_marker",
		},
		RoleListingItem:     {".item_area._Listitem"},
		RoleListingInner:    {".item_inner"},
		RoleListingLink:     {"a.item_link"},
		RoleOwnerLabel:      {"em.title_place"},
		RoleTransactionType: {"div.price_area > span.type"},
		RolePrice:           {"div.price_area > strong.price"},
		RoleBuildingType:    {"div.information_area p.info > strong.type"},
		RoleSpec:            {"div.information_area p.info > span.spec"},
		RoleTags:            {"div.tag_area > em.tag"},
		RoleConfirmDate:     {"span.icon-badge.type-confirmed"},
	}
}

// LoadSelectors merges a YAML override file into the default table. Roles
// absent from the file keep their defaults; a missing file is not an error.
func LoadSelectors(path string) (SelectorTable, error) {
	table := DefaultSelectors()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("read selector file: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse selector file: %w", err)
	}
	for role, candidates := range overrides {
		if len(candidates) > 0 {
			table[Role(role)] = candidates
		}
	}
	return table, nil
}

// Candidates returns the ordered selector list for a role.
func (t SelectorTable) Candidates(role Role) []string {
	return t[role]
}

// Primary returns the first candidate for a role, or "".
func (t SelectorTable) Primary(role Role) string {
	if c := t[role]; len(c) > 0 {
		return c[0]
	}
	return ""
}
