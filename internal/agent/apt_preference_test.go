package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puetzp/pullconf/internal/catalog"
)

func TestAptPreferenceApplierCreates(t *testing.T) {
	target := filepath.Join(t.TempDir(), "pin-nginx")
	params := catalog.AptPreferenceParameters{
		Target: target, Ensure: catalog.EnsurePresent, Name: "pin-nginx",
		Package: catalog.PackageSelector{Names: []string{"nginx"}},
		Pin:     "release a=stable", PinPriority: 900,
	}

	a := &aptPreferenceApplier{params: params}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Created, action)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, params.Render(), string(data))
}

func TestAptPreferenceApplierUnchangedWhenContentMatches(t *testing.T) {
	target := filepath.Join(t.TempDir(), "pin-nginx")
	params := catalog.AptPreferenceParameters{
		Target: target, Ensure: catalog.EnsurePresent, Name: "pin-nginx",
		Package: catalog.PackageSelector{Wildcard: true},
		Pin:     "release a=stable", PinPriority: 100,
	}
	require.NoError(t, os.WriteFile(target, []byte(params.Render()), 0o644))

	a := &aptPreferenceApplier{params: params}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, action)
}

func TestAptPreferenceApplierUpdatesOnPriorityDrift(t *testing.T) {
	target := filepath.Join(t.TempDir(), "pin-nginx")
	old := catalog.AptPreferenceParameters{
		Target: target, Ensure: catalog.EnsurePresent, Name: "pin-nginx",
		Package: catalog.PackageSelector{Names: []string{"nginx"}},
		Pin:     "release a=stable", PinPriority: 100,
	}
	require.NoError(t, os.WriteFile(target, []byte(old.Render()), 0o644))

	updated := old
	updated.PinPriority = 900

	a := &aptPreferenceApplier{params: updated}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Changed, action)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, updated.Render(), string(data))
}

func TestAptPreferenceApplierRemovesWhenAbsent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "pin-nginx")
	require.NoError(t, os.WriteFile(target, []byte("placeholder"), 0o644))

	a := &aptPreferenceApplier{params: catalog.AptPreferenceParameters{Target: target, Ensure: catalog.EnsureAbsent, Name: "pin-nginx"}}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Deleted, action)

	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}
