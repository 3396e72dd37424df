package interfaces

import "context"

// Fetcher issues one GET request and returns the raw response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
