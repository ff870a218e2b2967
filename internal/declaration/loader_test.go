package declaration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadHosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "db01.toml", `
api-key = "deadbeef"
groups = ["base"]

[variables]
hostname = "db01"

[[resources]]
type = "directory"
path = "/srv/app"
`)
	writeFile(t, dir, "ignored.txt", "not toml")

	hosts, err := LoadHosts(dir)
	require.NoError(t, err)
	require.Contains(t, hosts, "db01")

	h := hosts["db01"]
	assert.Equal(t, "db01", h.Name)
	assert.Equal(t, "deadbeef", h.APIKey)
	assert.Equal(t, []string{"base"}, h.Groups)
	require.Len(t, h.Resources, 1)
	assert.Equal(t, "directory", h.Resources[0]["type"])
}

func TestLoadHostsRejectsUnknownTopLevelField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "db01.toml", `
api-key = "deadbeef"
bogus = "nope"
`)
	_, err := LoadHosts(dir)
	assert.Error(t, err)
}

func TestLoadGroupsRejectsUnknownTopLevelField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.toml", `
bogus = "nope"
`)
	_, err := LoadGroups(dir)
	assert.Error(t, err)
}

func TestLoadHostsMissingDir(t *testing.T) {
	_, err := LoadHosts(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadGroups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.toml", `
[[resources]]
type = "apt::package"
name = "curl"
ensure = "present"
`)

	groups, err := LoadGroups(dir)
	require.NoError(t, err)
	require.Contains(t, groups, "base")
	assert.Equal(t, "base", groups["base"].Name)
	require.Len(t, groups["base"].Resources, 1)
}

func TestWarnUnreferencedGroups(t *testing.T) {
	hosts := map[string]Host{
		"db01": {Name: "db01", Groups: []string{"base"}},
	}
	groups := map[string]Group{
		"base":   {Name: "base"},
		"unused": {Name: "unused"},
	}
	// No assertion beyond "does not panic": the function only logs.
	// This still exercises the referenced/unreferenced branch split.
	WarnUnreferencedGroups(hosts, groups)
}
