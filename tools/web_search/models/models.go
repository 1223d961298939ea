package models

import (
	"errors"
	"fmt"
)

// Hit is one organic search result.
type Hit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

var (
	// ErrSearch is wrapped by every failure a searcher returns.
	ErrSearch = errors.New("search failed")
	// ErrMissingAPIKey is returned before any request when no key is configured.
	ErrMissingAPIKey = fmt.Errorf("%w: api key not set", ErrSearch)
)

// SearchError describes a failed provider call. Status is zero for transport errors.
type SearchError struct {
	Provider string
	Status   int
	Err      error
}

func (e *SearchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s search: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s search: %v", e.Provider, e.Err)
}

func (e *SearchError) Unwrap() []error { return []error{ErrSearch, e.Err} }
