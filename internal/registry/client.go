package registry

import (
	"context"
	"net/http"
	"strings"

	"github.com/typo3nix/typo3nix/internal/branding"
)

// Client issues authenticated requests against the registry.
type Client struct {
	baseURL     string
	downloadURL string
	user        string
	password    string
	userAgent   string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL sets the API base URL, e.g. "https://extensions.typo3.org/api/v1".
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

// WithDownloadURL sets the host artifacts are downloaded from.
func WithDownloadURL(u string) Option {
	return func(cl *Client) {
		cl.downloadURL = strings.TrimRight(u, "/")
	}
}

// WithCredentials sets the basic-auth pair sent with every request.
func WithCredentials(user, password string) Option {
	return func(cl *Client) {
		cl.user = user
		cl.password = password
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// New creates a Client. Without options it targets the public registry
// anonymously.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(branding.RegistryURL(), "/"),
		downloadURL: strings.TrimRight(branding.DownloadURL(), "/"),
		userAgent:   branding.CLIName(),
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs an authenticated GET. A non-2xx status is turned into a
// *TransferError and the body is closed; otherwise the caller owns resp.Body.
func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransferError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransferError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &TransferError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}
