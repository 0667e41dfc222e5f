package crawler

import (
	"context"
	"log"

	"github.com/playwright-community/playwright-go"
)

// Navigator drives a session to the filterable results view for an address.
type Navigator interface {
	GoToAddress(ctx context.Context, sess Session, address string) error
}

type searchNavigator struct {
	selectors SelectorTable
}

// NewNavigator builds the default site navigator over a selector table.
func NewNavigator(selectors SelectorTable) Navigator {
	return &searchNavigator{selectors: selectors}
}

func (n *searchNavigator) GoToAddress(ctx context.Context, sess Session, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := sess.Page()

	log.Printf("[navigator] searching for %q", address)
	input := page.Locator(n.selectors.Primary(RoleSearchInput))
	if err := input.Fill(address); err != nil {
		return &AddressNotFoundError{Address: address}
	}
	// Let the autocomplete react before submitting.
	page.WaitForTimeout(2000)
	if err := page.Keyboard().Press("Enter"); err != nil {
		return &AddressNotFoundError{Address: address}
	}
	waitNetworkIdle(page, 30000)

	// The exact-match suggestion is the only trustworthy navigation target;
	// partial matches route to the wrong district.
	suggestion := page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
		Name:  address,
		Exact: playwright.Bool(true),
	}).First()
	if err := suggestion.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(10000),
	}); err != nil {
		return &AddressNotFoundError{Address: address}
	}

	// Navigating via the link target skips the site's panel animation,
	// which is a common source of flaky clicks.
	href, err := suggestion.GetAttribute("href")
	if err == nil && href != "" {
		if _, err := page.Goto(href, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
		}); err != nil {
			return &AddressNotFoundError{Address: address}
		}
	} else {
		log.Printf("[navigator] suggestion has no href, falling back to click")
		if err := suggestion.Click(); err != nil {
			return &AddressNotFoundError{Address: address}
		}
	}

	waitNetworkIdle(page, 30000)
	page.WaitForTimeout(2000)

	n.openFilterPanel(page)
	return nil
}

// openFilterPanel tries the selector chain for the options link. Failure is
// not fatal: a search without explicit filters still returns usable results
// with the site defaults applied.
func (n *searchNavigator) openFilterPanel(page playwright.Page) {
	log.Printf("[navigator] opening filter panel, current URL: %s", page.URL())

	for i, sel := range n.selectors.Candidates(RoleFilterPanelOpen) {
		loc := page.Locator(sel).First()
		timeout := 5000.0
		if i == 0 {
			timeout = 15000.0
		}
		if err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(timeout),
		}); err != nil {
			log.Printf("[navigator] filter panel selector %q: %v", sel, err)
			continue
		}
		if err := loc.Click(); err != nil {
			log.Printf("[navigator] filter panel click %q: %v", sel, err)
			continue
		}
		waitNetworkIdle(page, 30000)
		page.WaitForTimeout(3000)
		log.Printf("[navigator] filter panel open via %q, URL: %s", sel, page.URL())
		return
	}
	log.Printf("[navigator] could not open filter panel, proceeding with site defaults")
}

// waitNetworkIdle waits for network idle with a bounded timeout and
// swallows the timeout; a page that never fully settles is still usable.
func waitNetworkIdle(page playwright.Page, timeoutMs float64) {
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(timeoutMs),
	}); err != nil {
		log.Printf("[navigator] network idle wait: %v", err)
	}
}
