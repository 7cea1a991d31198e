package fetch

import "context"

// Fetcher retrieves the raw text of one option source.
type Fetcher interface {
	// Fetch returns the text stored at location. Failures are *FetchError.
	Fetch(ctx context.Context, location string) (string, error)
}

// Lister enumerates auxiliary action sources.
type Lister interface {
	// ListActionSources returns every action source in one request.
	ListActionSources(ctx context.Context) ([]Source, error)
}

// Source names one option source and where to fetch it.
type Source struct {
	Name     string
	Location string
}
