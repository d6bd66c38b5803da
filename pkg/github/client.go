// Package github is the hosting-API client for monorepo-sync. It wraps
// go-github behind the small set of operations the sync flow needs:
// fetching a pull request, fetching its file-level change list, listing
// merged pull requests, and opening the sync pull request.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the default GitHub API base URL.
	DefaultBaseURL = "https://api.github.com"

	// TokenEnv is the environment variable for the API token.
	TokenEnv = "GITHUB_TOKEN"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL (enterprise hosts, tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout sets a custom HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client. The VCR recorder in tests
// injects its replaying transport this way.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client is the GitHub API client. The underlying go-github client is
// built lazily so options can be applied in any order.
type Client struct {
	token        string
	baseURL      string
	timeout      time.Duration
	httpClient   *http.Client
	githubClient *github.Client
}

// NewClient creates a new client with the given token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromEnv creates a client with the token from GITHUB_TOKEN.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	token := os.Getenv(TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%s environment variable is required", TokenEnv)
	}
	return NewClient(token, opts...), nil
}

// GitHubClient returns the underlying go-github client, building it on
// first use with an oauth2 bearer-token transport.
func (c *Client) GitHubClient() *github.Client {
	if c.githubClient == nil {
		httpClient := c.httpClient
		if httpClient == nil {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
			httpClient = oauth2.NewClient(context.Background(), ts)
			httpClient.Timeout = c.timeout
		}

		c.githubClient = github.NewClient(httpClient)

		if c.baseURL != DefaultBaseURL && c.baseURL != "" {
			baseURL := c.baseURL
			if baseURL[len(baseURL)-1] != '/' {
				baseURL += "/"
			}
			if parsed, err := url.Parse(baseURL); err == nil {
				c.githubClient.BaseURL = parsed
			}
		}
	}
	return c.githubClient
}
