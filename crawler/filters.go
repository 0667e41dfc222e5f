package crawler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/playwright-community/playwright-go"

	"landseek/models"
)

// The site pre-selects these when the filter panel opens. Toggling is
// stateful, so requested sets must be applied as a symmetric difference
// against the defaults rather than clicked blindly.
var (
	DefaultTransactionTypes = []string{models.TransactionSale, models.TransactionLease}
	DefaultBuildingTypes    = []string{"아파트", "아파트분양권", "재건축"}
)

// areaBucketLabels maps each pyeong bucket to the site's square-meter
// option label (1 pyeong = 3.305785 m²).
var areaBucketLabels = map[string]string{
	"~ 10평": "~ 33㎡",
	"10평대":  "33~66㎡",
	"20평대":  "66~99㎡",
	"30평대":  "99~132㎡",
	"40평대":  "132~165㎡",
	"50평대":  "165~198㎡",
	"60평대":  "198~231㎡",
	"70평 ~": "231㎡ ~",
}

// AreaBucketLabel resolves a pyeong bucket to its on-site option label.
func AreaBucketLabel(bucket string) (string, bool) {
	label, ok := areaBucketLabels[bucket]
	return label, ok
}

// TogglePlan is the concrete toggle actions for one multi-select dimension.
type TogglePlan struct {
	Off []string // default-selected items the filter does not want
	On  []string // requested items the defaults do not cover
}

// PlanToggles computes the symmetric difference between the site defaults
// and the requested set. Items in both receive no action, so applying the
// same filter twice never double-toggles a control.
func PlanToggles(defaults, requested []string) TogglePlan {
	var plan TogglePlan
	for _, d := range defaults {
		if !contains(requested, d) {
			plan.Off = append(plan.Off, d)
		}
	}
	for _, r := range requested {
		if !contains(defaults, r) {
			plan.On = append(plan.On, r)
		}
	}
	return plan
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// OptionApplier translates a SearchFilter into UI interactions on the open
// filter panel.
type OptionApplier interface {
	Apply(ctx context.Context, sess Session, filter *models.SearchFilter) error
}

type optionApplier struct {
	selectors   SelectorTable
	settleDelay time.Duration
}

// NewOptionApplier builds the default filter-panel driver.
func NewOptionApplier(selectors SelectorTable, settleDelay time.Duration) OptionApplier {
	if settleDelay <= 0 {
		settleDelay = 500 * time.Millisecond
	}
	return &optionApplier{selectors: selectors, settleDelay: settleDelay}
}

// Apply flips toggles, fills range inputs and picks the area bucket, then
// triggers the search action. Every individual miss is logged and skipped;
// the crawl proceeds with whatever filtering the site ended up with.
func (a *optionApplier) Apply(ctx context.Context, sess Session, filter *models.SearchFilter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := sess.Page()

	if len(filter.TransactionTypes) > 0 {
		plan := PlanToggles(DefaultTransactionTypes, filter.TransactionTypes)
		a.applyToggles(page, RoleTransactionItem, "transaction", plan)
	}
	if len(filter.BuildingTypes) > 0 {
		plan := PlanToggles(DefaultBuildingTypes, filter.BuildingTypes)
		a.applyToggles(page, RoleBuildingItem, "building", plan)
	}

	a.fillRange(page, "sale price", RoleSalePriceMin, RoleSalePriceMax, filter.SalePrice)
	a.fillRange(page, "deposit", RoleDepositMin, RoleDepositMax, filter.Deposit)
	a.fillRange(page, "monthly rent", RoleMonthlyRentMin, RoleMonthlyRentMax, filter.MonthlyRent)

	if filter.AreaBucket != "" {
		a.pickAreaBucket(page, filter.AreaBucket)
	}

	a.triggerSearch(page)
	return nil
}

func (a *optionApplier) applyToggles(page playwright.Page, role Role, dimension string, plan TogglePlan) {
	for _, item := range plan.Off {
		a.clickToggle(page, role, dimension, item, "deselect")
	}
	for _, item := range plan.On {
		a.clickToggle(page, role, dimension, item, "select")
	}
}

func (a *optionApplier) clickToggle(page playwright.Page, role Role, dimension, item, action string) {
	template := a.selectors.Primary(role)
	if template == "" {
		log.Printf("[filters] no selector configured for %s toggles", dimension)
		return
	}
	loc := page.Locator(fmt.Sprintf(template, item))
	count, err := loc.Count()
	if err != nil || count == 0 {
		log.Printf("[filters] %s toggle %q not found, skipping", dimension, item)
		return
	}
	if err := loc.First().Click(); err != nil {
		log.Printf("[filters] %s %s %q: %v", dimension, action, item, err)
		return
	}
	log.Printf("[filters] %s %s %q", dimension, action, item)
	// Let the panel's reactive UI catch up before the next toggle.
	page.WaitForTimeout(float64(a.settleDelay.Milliseconds()))
}

// fillRange fills the min/max inputs for one price dimension. A range with
// no minimum fills only the max field, matching how a single-value bound is
// expressed upstream.
func (a *optionApplier) fillRange(page playwright.Page, name string, minRole, maxRole Role, r *models.PriceRange) {
	if r == nil {
		return
	}
	if r.Min > 0 {
		if err := page.Locator(a.selectors.Primary(minRole)).Fill(strconv.FormatInt(r.Min, 10)); err != nil {
			log.Printf("[filters] %s min input: %v", name, err)
			return
		}
	}
	if err := page.Locator(a.selectors.Primary(maxRole)).Fill(strconv.FormatInt(r.Max, 10)); err != nil {
		log.Printf("[filters] %s max input: %v", name, err)
		return
	}
	log.Printf("[filters] %s range applied: %d ~ %d", name, r.Min, r.Max)
	page.WaitForTimeout(float64(a.settleDelay.Milliseconds()))
}

func (a *optionApplier) pickAreaBucket(page playwright.Page, bucket string) {
	label, ok := AreaBucketLabel(bucket)
	if !ok {
		log.Printf("[filters] unknown area bucket %q, skipping", bucket)
		return
	}
	tile := page.Locator(a.selectors.Primary(RoleAreaOptionList)).
		GetByRole(*playwright.AriaRoleListitem).
		Filter(playwright.LocatorFilterOptions{HasText: label}).
		Locator("label")
	if err := tile.Click(); err != nil {
		log.Printf("[filters] area bucket %q (%s): %v", bucket, label, err)
		return
	}
	log.Printf("[filters] area bucket %q -> %q applied", bucket, label)
	page.WaitForTimeout(float64(a.settleDelay.Milliseconds()))
}

// triggerSearch clicks the apply button through its selector chain. Losing
// the button is logged, not fatal; the panel may auto-apply on some layouts.
func (a *optionApplier) triggerSearch(page playwright.Page) {
	for i, sel := range a.selectors.Candidates(RoleApplyButton) {
		loc := page.Locator(sel)
		timeout := 5000.0
		if i == 0 {
			timeout = 10000.0
		}
		if err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(timeout),
		}); err != nil {
			log.Printf("[filters] apply button %q: %v", sel, err)
			continue
		}
		if err := loc.Click(); err != nil {
			log.Printf("[filters] apply button click %q: %v", sel, err)
			continue
		}
		log.Printf("[filters] search applied via %q", sel)
		waitNetworkIdle(page, 30000)
		page.WaitForTimeout(2000)
		return
	}
	log.Printf("[filters] apply button not found, results keep current filtering")
}
