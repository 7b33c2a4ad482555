package models

import "fmt"

// NoPriceDataError reports that a ticker has no usable price after the
// full fallback chain. Recovered locally by omitting the ticker from
// batch results; never surfaced to callers of the screening facade.
type NoPriceDataError struct {
	Ticker string
}

func (e *NoPriceDataError) Error() string {
	return fmt.Sprintf("no price data available for %s", e.Ticker)
}

// DirectoryEnumerationError reports a failed page load during a directory
// crawl. The crawl stops early with the instruments collected so far.
type DirectoryEnumerationError struct {
	Page int
	Err  error
}

func (e *DirectoryEnumerationError) Error() string {
	return fmt.Sprintf("directory enumeration failed at page %d: %v", e.Page, e.Err)
}

func (e *DirectoryEnumerationError) Unwrap() error { return e.Err }

// FilterExecutionError reports an unexpected failure while hydrating a
// filtered field. The engine degrades to the fields that did hydrate and
// the facade surfaces this as a soft warning.
type FilterExecutionError struct {
	Field string
	Err   error
}

func (e *FilterExecutionError) Error() string {
	return fmt.Sprintf("hydrating %s failed: %v", e.Field, e.Err)
}

func (e *FilterExecutionError) Unwrap() error { return e.Err }
