package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puetzp/pullconf/internal/catalog"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestState(t *testing.T, hostToml, assetFile, assetContent string) *State {
	t.Helper()
	clientDir, groupDir, assetDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, clientDir, "db01.toml", hostToml)
	if assetFile != "" {
		require.NoError(t, os.WriteFile(filepath.Join(assetDir, assetFile), []byte(assetContent), 0o644))
	}

	s := NewState(clientDir, groupDir, assetDir)
	require.NoError(t, s.Reload())
	return s
}

const baseHostToml = `
api-key = "db01-secret"

[[resources]]
type = "directory"
path = "/srv/app"
owner = "root"
`

func TestHandleResourcesRequiresAPIKey(t *testing.T) {
	s := newTestState(t, baseHostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/clients/db01/resources")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleResourcesRejectsUnknownKey(t *testing.T) {
	s := newTestState(t, baseHostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/clients/db01/resources", nil)
	req.Header.Set("X-API-KEY", "wrong-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleResourcesRejectsMismatchedHostname(t *testing.T) {
	s := newTestState(t, baseHostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/clients/other-host/resources", nil)
	req.Header.Set("X-API-KEY", "db01-secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandleResourcesServesCatalogAndETag(t *testing.T) {
	s := newTestState(t, baseHostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/clients/db01/resources", nil)
	req.Header.Set("X-API-KEY", "db01-secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	assert.NotEmpty(t, etag)

	req2, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/clients/db01/resources", nil)
	req2.Header.Set("X-API-KEY", "db01-secret")
	req2.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
}

func TestHandleResourcesUnknownHost(t *testing.T) {
	s := newTestState(t, baseHostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	// db02 was never declared, so no API key maps to it: expect unauthorized
	// rather than a lookup leaking which hostnames exist.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/clients/db02/resources", nil)
	req.Header.Set("X-API-KEY", "no-such-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

const hostWithSourcedFile = `
api-key = "db01-secret"

[[resources]]
type = "file"
path = "/etc/app.conf"
owner = "root"
mode = "644"
source = "/app.conf"
`

func TestHandleAssetServesClaimedSource(t *testing.T) {
	s := newTestState(t, hostWithSourcedFile, "app.conf", "managed content\n")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/assets/app.conf", nil)
	req.Header.Set("X-API-KEY", "db01-secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleAssetRejectsUnclaimedSource(t *testing.T) {
	s := newTestState(t, hostWithSourcedFile, "other.conf", "not claimed\n")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/assets/other.conf", nil)
	req.Header.Set("X-API-KEY", "db01-secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReloadRejectsDuplicateAPIKey(t *testing.T) {
	clientDir, groupDir, assetDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, clientDir, "db01.toml", baseHostToml)
	writeFile(t, clientDir, "db02.toml", `
api-key = "db01-secret"

[[resources]]
type = "directory"
path = "/srv/app"
owner = "root"
`)

	s := NewState(clientDir, groupDir, assetDir)
	err := s.Reload()
	require.Error(t, err)
	var cerr *catalog.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, catalog.ErrDuplicateApiKey, cerr.Kind)
}

func TestHandleAssetServesETagAndNotModified(t *testing.T) {
	s := newTestState(t, hostWithSourcedFile, "app.conf", "managed content\n")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/assets/app.conf", nil)
	req.Header.Set("X-API-KEY", "db01-secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	assert.NotEmpty(t, etag)

	req2, _ := http.NewRequest(http.MethodGet, srv.URL+"/assets/app.conf", nil)
	req2.Header.Set("X-API-KEY", "db01-secret")
	req2.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
}

func TestHandleAssetRejectsPathTraversal(t *testing.T) {
	s := newTestState(t, hostWithSourcedFile, "app.conf", "managed content\n")

	// Bypass the mux's own path cleaning so the raw traversal path reaches
	// handleAsset; no resource claims it, so it is rejected before any file
	// is read.
	req := httptest.NewRequest(http.MethodGet, "/assets/app.conf", nil)
	req.SetPathValue("path", "../escape.conf")
	req.Header.Set("X-API-KEY", "db01-secret")

	rec := httptest.NewRecorder()
	s.handleAsset(rec, req)

	assert.NotEqual(t, http.StatusOK, rec.Code)
}
