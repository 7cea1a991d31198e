package auth

import (
	"context"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2"
)

// TokenEnv is the environment variable consulted for a GitHub token.
const TokenEnv = "GITHUB_TOKEN"

// ResolveToken picks the API token for the host of apiURL. An explicit token
// wins, then $GITHUB_TOKEN, then the credentials file at credPath (skipped
// when credPath is empty or unreadable).
func ResolveToken(explicit, apiURL, credPath string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(TokenEnv); env != "" {
		return env
	}
	if credPath == "" {
		return ""
	}
	creds, err := LoadCredentials(credPath)
	if err != nil {
		return ""
	}
	return GetToken(creds, Host(apiURL))
}

// Host returns the host part of rawURL, or rawURL itself when it does not
// parse as an absolute URL.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// NewHTTPClient returns a client that sends token as a Bearer credential.
// With an empty token it returns base (or http.DefaultClient) unchanged.
func NewHTTPClient(ctx context.Context, token string, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if token == "" {
		return base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}
