package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// AssetFetcher retrieves file content from pullconfd's /assets route for
// File resources whose source parameter names a server-side asset, per
// spec.md §4.7 ("fetch source from /assets/{source} ... using
// If-None-Match from the current disk SHA-256 to skip write on 304").
type AssetFetcher struct {
	Client   *http.Client
	Server   string
	Hostname string
	APIKey   string
}

// Fetch returns the asset's bytes, or notModified=true if currentETag
// matches the server's copy and no body was transferred.
func (f *AssetFetcher) Fetch(ctx context.Context, sourcePath string, currentETag string) (data []byte, notModified bool, err error) {
	url := fmt.Sprintf("%s/assets/%s", f.Server, sourcePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("X-API-KEY", f.APIKey)
	if currentETag != "" {
		req.Header.Set("If-None-Match", currentETag)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("transport error: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil, true, nil
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		return body, false, nil
	default:
		return nil, false, fmt.Errorf("asset %q: unexpected status %d", sourcePath, resp.StatusCode)
	}
}
