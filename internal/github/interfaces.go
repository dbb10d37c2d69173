// Package github provides the rate-limited request engine and paginated
// lister used to talk to the GitHub REST API
package github

import (
	"context"
	"net/url"
)

// Requester performs a single logical API call
type Requester interface {
	// Execute sends method to path (relative to the API root, or absolute)
	// with an optional JSON body
	Execute(ctx context.Context, method, path string, body any) (*Response, error)
}

// Page size bounds accepted by the GitHub API
const (
	DefaultPerPage = 100
	MaxPerPage     = 100
)

// ListOptions specifies optional parameters for list operations
type ListOptions struct {
	// PerPage specifies the number of results per page (1-100)
	PerPage int

	// ArrayKey names the field holding the items when the page is an object
	ArrayKey string

	// Query holds extra query parameters sent with every page
	Query url.Values
}

// ClampPerPage bounds a page size to what the API accepts
func ClampPerPage(n int) int {
	if n <= 0 {
		return DefaultPerPage
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

var _ Requester = (*Engine)(nil)
