package registry

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/typo3nix/typo3nix/internal/integrity"
)

// DownloadURL returns the zip artifact URL for one extension release.
func (c *Client) DownloadURL(key, version string) string {
	return fmt.Sprintf("%s/extension/download/%s/%s/zip", c.downloadURL, url.PathEscape(key), url.PathEscape(version))
}

// Open starts an authenticated download and returns the body stream. The
// caller must close it.
func (c *Client) Open(ctx context.Context, artifactURL string) (io.ReadCloser, error) {
	resp, err := c.get(ctx, artifactURL, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Hash downloads artifactURL and returns the integrity string of its body.
// The body is streamed through the digest chunk by chunk.
func (c *Client) Hash(ctx context.Context, artifactURL string) (string, error) {
	body, err := c.Open(ctx, artifactURL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = body.Close()
	}()

	sum, err := integrity.FromReader(body)
	if err != nil {
		return "", &TransferError{URL: artifactURL, Err: err}
	}
	return sum.String(), nil
}
