package crawler

import (
	"errors"
	"fmt"
)

var errNilFilter = errors.New("filter is nil")

// InvalidFilterError is the only error kind Crawl returns to its caller.
// It is raised before any browser resource is allocated.
type InvalidFilterError struct {
	Reason error
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid search filter: %v", e.Reason)
}

func (e *InvalidFilterError) Unwrap() error { return e.Reason }

// SessionInitError means the browser could not be launched and navigated to
// the entry URL within the retry budget. Fatal for one crawl attempt;
// absorbed at the orchestrator boundary.
type SessionInitError struct {
	Attempts int
	Err      error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("browser session init failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SessionInitError) Unwrap() error { return e.Err }

// AddressNotFoundError means the searched address produced no exact
// suggestion on the site. The caller treats it as "no results".
type AddressNotFoundError struct {
	Address string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("address %q has no matching suggestion", e.Address)
}
