package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/puetzp/pullconf/internal/apierror"
	"github.com/puetzp/pullconf/internal/catalog"
	"github.com/puetzp/pullconf/pkg/logging"
)

const (
	etagFile    = "/var/lib/pullconf/etag"
	catalogFile = "/var/lib/pullconf/catalog"
)

const fetchScope = "fetcher"

// Fetcher retrieves a host's compiled catalog from pullconfd with
// conditional GET, caching the previous catalog and ETag on disk per
// spec.md §4.5 and original_source/client/src/configuration.rs's get().
type Fetcher struct {
	Client   *http.Client
	Server   string
	Hostname string
	APIKey   string
}

// Get issues the catalog request, updating the on-disk cache on a fresh
// 200 response and returning the cached catalog unchanged on 304.
func (f *Fetcher) Get(ctx context.Context) (*catalog.Catalog, error) {
	etag := readETag()

	url := fmt.Sprintf("%s/api/clients/%s/resources", f.Server, f.Hostname)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", f.APIKey)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport error: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		logging.Debug(fetchScope, "catalog unchanged, using cache")
		return readCachedCatalog(f.Hostname)

	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var env catalog.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		newEtag := resp.Header.Get("ETag")
		if err := writeCache(newEtag, body); err != nil {
			return nil, fmt.Errorf("update cache: %w", err)
		}
		return &catalog.Catalog{Host: f.Hostname, Resources: env.Data}, nil

	default:
		var apiErr apierror.Error
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Status != 0 {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func readETag() string {
	data, err := os.ReadFile(etagFile)
	if err != nil {
		return ""
	}
	return string(data)
}

func readCachedCatalog(hostname string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("read cached catalog: %w", err)
	}
	var env catalog.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode cached catalog: %w", err)
	}
	return &catalog.Catalog{Host: hostname, Resources: env.Data}, nil
}

func writeCache(etag string, body []byte) error {
	if err := os.WriteFile(catalogFile, body, 0o600); err != nil {
		return err
	}
	return os.WriteFile(etagFile, []byte(etag), 0o600)
}
