// Package e2e drives pullconfd and pullconf-agent together through a real
// HTTP round trip, covering spec.md §8's concrete end-to-end scenarios
// (S1-S6) that no single package's unit tests exercise in combination.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puetzp/pullconf/internal/agent"
	"github.com/puetzp/pullconf/internal/catalog"
	"github.com/puetzp/pullconf/internal/server"
)

func currentUsername(t *testing.T) string {
	t.Helper()
	u, err := user.Current()
	require.NoError(t, err)
	return u.Username
}

// fetchCatalog performs the same request the agent's Fetcher issues, without
// going through its hardcoded /var/lib/pullconf cache paths, so the test can
// exercise the HTTP round trip against an httptest.Server.
func fetchCatalog(t *testing.T, srv *httptest.Server, hostname, apiKey, ifNoneMatch string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/clients/%s/resources", srv.URL, hostname), nil)
	require.NoError(t, err)
	req.Header.Set("X-API-KEY", apiKey)
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func newState(t *testing.T, hostToml, assetFile, assetContent string) (*server.State, string) {
	t.Helper()
	clientDir, groupDir, assetDir := t.TempDir(), t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(clientDir, "db01.toml"), []byte(hostToml), 0o644))
	if assetFile != "" {
		require.NoError(t, os.WriteFile(filepath.Join(assetDir, assetFile), []byte(assetContent), 0o644))
	}
	s := server.NewState(clientDir, groupDir, assetDir)
	require.NoError(t, s.Reload())
	return s, assetDir
}

// S1: a client presenting an If-None-Match that matches the server's
// current ETag gets a 304 with an empty body.
func TestS1CatalogFetchNotModified(t *testing.T) {
	owner := currentUsername(t)
	hostToml := fmt.Sprintf(`
api-key = "db01-secret"

[[resources]]
type = "directory"
path = "/srv/app"
owner = %q
`, owner)
	s, _ := newState(t, hostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	fresh, body := fetchCatalog(t, srv, "db01", "db01-secret", "")
	require.Equal(t, http.StatusOK, fresh.StatusCode)
	require.NotEmpty(t, body)
	etag := fresh.Header.Get("ETag")
	require.NotEmpty(t, etag)

	cached, body2 := fetchCatalog(t, srv, "db01", "db01-secret", etag)
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)
	assert.Empty(t, body2)
}

// S2: a file nested under a declared directory depends on it; the directory
// does not depend on the file. The scheduler therefore applies the
// directory first.
func TestS2ContainmentDependencyOrdersDirectoryBeforeFile(t *testing.T) {
	owner := currentUsername(t)
	base := t.TempDir()
	dirPath := filepath.Join(base, "foo")
	filePath := filepath.Join(dirPath, "bar.conf")

	hostToml := fmt.Sprintf(`
api-key = "db01-secret"

[[resources]]
type = "directory"
path = %q
owner = %q

[[resources]]
type = "file"
path = %q
owner = %q
mode = "644"
content = "hello\n"
`, dirPath, owner, filePath, owner)

	s, _ := newState(t, hostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, body := fetchCatalog(t, srv, "db01", "db01-secret", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env catalog.Envelope
	require.NoError(t, decodeEnvelope(body, &env))

	var dir, file catalog.Resource
	for _, r := range env.Data {
		switch v := r.(type) {
		case *catalog.Directory:
			dir = v
		case *catalog.File:
			file = v
		}
	}
	require.NotNil(t, dir)
	require.NotNil(t, file)

	dependsOn := func(r catalog.Resource, target catalog.Resource) bool {
		for _, dep := range r.Dependencies() {
			if dep.ID == target.ID() {
				return true
			}
		}
		return false
	}
	assert.True(t, dependsOn(file, dir), "file must depend on its containing directory")
	assert.False(t, dependsOn(dir, file), "directory must not depend on its child file")

	sched := agent.NewScheduler(env.Data, nil)
	results, err := sched.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, agent.Created, results[dir.ID()].Action)
	assert.Equal(t, agent.Created, results[file.ID()].Action)

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

// S3: a directory apply fails (here, via an unresolvable owner username
// rather than relying on filesystem permission semantics that root would
// bypass); the file depending on it is Skipped and never applied.
func TestS3SkipPropagationOnFailedDependency(t *testing.T) {
	base := t.TempDir()
	dirPath := filepath.Join(base, "foo")
	filePath := filepath.Join(dirPath, "bar.conf")

	hostToml := fmt.Sprintf(`
api-key = "db01-secret"

[[resources]]
type = "directory"
path = %q
owner = "pullconf-test-nonexistent-user"

[[resources]]
type = "file"
path = %q
owner = "pullconf-test-nonexistent-user"
mode = "644"
content = "hello\n"
`, dirPath, filePath)

	s, _ := newState(t, hostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, body := fetchCatalog(t, srv, "db01", "db01-secret", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env catalog.Envelope
	require.NoError(t, decodeEnvelope(body, &env))

	sched := agent.NewScheduler(env.Data, nil)
	results, err := sched.Run(context.Background())
	require.NoError(t, err)

	for _, r := range env.Data {
		switch r.Kind() {
		case catalog.KindDirectory:
			assert.Equal(t, agent.Failed, results[r.ID()].Action)
		case catalog.KindFile:
			assert.Equal(t, agent.Skipped, results[r.ID()].Action)
		}
	}
	_, err = os.Stat(filePath)
	assert.True(t, os.IsNotExist(err), "skipped file must never be written")
}

// S4: an existing /etc/hosts-style entry with a drifted alias is rewritten
// in place via the write-temp-then-rename path, matching partial-match
// semantics.
func TestS4HostsFilePartialUpdate(t *testing.T) {
	hostsPath := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(hostsPath, []byte("10.0.0.1 olddb\n"), 0o644))

	hostToml := fmt.Sprintf(`
api-key = "db01-secret"

[[resources]]
type = "host"
target = %q
ip-address = "10.0.0.1"
hostname = "db"
aliases = ["primary"]
`, hostsPath)

	s, _ := newState(t, hostToml, "", "")
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, body := fetchCatalog(t, srv, "db01", "db01-secret", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env catalog.Envelope
	require.NoError(t, decodeEnvelope(body, &env))

	sched := agent.NewScheduler(env.Data, nil)
	results, err := sched.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, env.Data, 1)
	assert.Equal(t, agent.Changed, results[env.Data[0].ID()].Action)

	data, err := os.ReadFile(hostsPath)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1 db primary\n", string(data))
}

// S5: a client may only download an asset that some File resource in its
// own catalog claims via "source".
func TestS5AssetAuthorization(t *testing.T) {
	owner := currentUsername(t)
	hostToml := fmt.Sprintf(`
api-key = "db01-secret"

[[resources]]
type = "file"
path = "/etc/app.conf"
owner = %q
mode = "644"
source = "/configs/x.conf"
`, owner)

	s, _ := newState(t, hostToml, "", "")
	require.NoError(t, os.MkdirAll(filepath.Join(s.AssetDir(), "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.AssetDir(), "configs", "x.conf"), []byte("managed content\n"), 0o644))
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	// claimed asset: served.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/assets/configs/x.conf", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-KEY", "db01-secret")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("ETag"))

	// unclaimed asset: rejected even though the API key is valid.
	req2, err := http.NewRequest(http.MethodGet, srv.URL+"/assets/configs/y.conf", nil)
	require.NoError(t, err)
	req2.Header.Set("X-API-KEY", "db01-secret")
	resp2, err := srv.Client().Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}

// S6: a dependency cycle between two resources is rejected at compile time
// (on reload); no catalog is ever served for that host.
func TestS6DependencyCycleRejectedAtReload(t *testing.T) {
	owner := currentUsername(t)
	hostToml := fmt.Sprintf(`
api-key = "db01-secret"

[[resources]]
type = "file"
path = "/etc/x.conf"
owner = %q
mode = "644"
content = "x\n"
requires = [{ type = "file", path = "/etc/y.conf" }]

[[resources]]
type = "file"
path = "/etc/y.conf"
owner = %q
mode = "644"
content = "y\n"
requires = [{ type = "file", path = "/etc/x.conf" }]
`, owner, owner)

	clientDir, groupDir, assetDir := t.TempDir(), t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(clientDir, "db01.toml"), []byte(hostToml), 0o644))

	s := server.NewState(clientDir, groupDir, assetDir)
	err := s.Reload()
	assert.Error(t, err)
}

func decodeEnvelope(body []byte, env *catalog.Envelope) error {
	return json.Unmarshal(body, env)
}
