package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DefaultUserAgent identifies lanemeta to remote hosts.
const DefaultUserAgent = "lanemeta metadata generator"

// maxErrorBody caps how much of an error response is kept in a FetchError.
const maxErrorBody = 512

// HTTPFetcher implements Fetcher over HTTP(S). Locations without a scheme,
// or with the file scheme, are read from the local file system.
type HTTPFetcher struct {
	UserAgent  string
	httpClient *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses
// http.DefaultClient, which transparently decompresses gzip responses.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		UserAgent:  userAgent,
		httpClient: client,
	}
}

// Fetch returns the body stored at location.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", &FetchError{Location: location, Err: err}
	}
	if u.Scheme == "" || u.Scheme == "file" {
		return readLocal(location, u)
	}

	body, err := getBody(ctx, f.httpClient, location, map[string]string{"User-Agent": f.UserAgent})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func readLocal(location string, u *url.URL) (string, error) {
	path := location
	if u.Scheme == "file" {
		path = u.Path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &FetchError{Location: location, Err: err}
	}
	return string(data), nil
}

// getBody performs a GET and returns the response body of a 2xx response.
func getBody(ctx context.Context, client *http.Client, location string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &FetchError{Location: location, Err: fmt.Errorf("create http request: %w", err)}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: location, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{
			Location:   location,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Location: location, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
