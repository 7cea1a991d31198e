package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thellimist/lanemeta/internal/nameutil"
)

// DefaultActionsListing is the contents API listing of fastlane's actions.
const DefaultActionsListing = "https://api.github.com/repos/fastlane/fastlane/contents/fastlane/lib/fastlane/actions"

// GitHubLister implements Lister with the GitHub repository contents API.
type GitHubLister struct {
	URL        string
	UserAgent  string
	httpClient *http.Client
}

// NewGitHubLister creates a lister for the contents listing at url. Pass an
// authenticated client (see auth.NewHTTPClient) to lift the anonymous rate
// limit.
func NewGitHubLister(url string, client *http.Client, userAgent string) *GitHubLister {
	if url == "" {
		url = DefaultActionsListing
	}
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &GitHubLister{
		URL:        url,
		UserAgent:  userAgent,
		httpClient: client,
	}
}

// ListActionSources returns one Source per Ruby file in the listing, named
// after the file and located at its raw download URL.
func (l *GitHubLister) ListActionSources(ctx context.Context) ([]Source, error) {
	body, err := getBody(ctx, l.httpClient, l.URL, map[string]string{
		"User-Agent": l.UserAgent,
		"Accept":     "application/vnd.github.v3+json",
	})
	if err != nil {
		return nil, err
	}

	var entries []contentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &FetchError{Location: l.URL, Err: fmt.Errorf("decode listing: %w", err)}
	}

	sources := make([]Source, 0, len(entries))
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		name, ok := nameutil.SourceName(e.Name)
		if !ok || e.DownloadURL == "" {
			continue
		}
		sources = append(sources, Source{Name: name, Location: e.DownloadURL})
	}
	return sources, nil
}
