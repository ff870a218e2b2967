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

func TestDirectoryApplierCreatesAndIsIdempotent(t *testing.T) {
	owner := currentUsername(t)
	path := filepath.Join(t.TempDir(), "app")

	a := &directoryApplier{params: catalog.DirectoryParameters{Path: path, Ensure: catalog.EnsurePresent, Owner: owner}}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Created, action)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	action, err = a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, action)
}

func TestDirectoryApplierRemovesWhenAbsent(t *testing.T) {
	owner := currentUsername(t)
	path := filepath.Join(t.TempDir(), "app")
	require.NoError(t, os.Mkdir(path, 0o755))

	a := &directoryApplier{params: catalog.DirectoryParameters{Path: path, Ensure: catalog.EnsureAbsent, Owner: owner}}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Deleted, action)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDirectoryApplierPurgesUnknownChildren(t *testing.T) {
	owner := currentUsername(t)
	path := t.TempDir()
	keep := filepath.Join(path, "keep.txt")
	stray := filepath.Join(path, "stray.txt")
	require.NoError(t, os.WriteFile(keep, []byte("k"), 0o644))
	require.NoError(t, os.WriteFile(stray, []byte("s"), 0o644))

	a := &directoryApplier{
		params:   catalog.DirectoryParameters{Path: path, Ensure: catalog.EnsurePresent, Owner: owner, Purge: true},
		children: []catalog.Child{{Kind: catalog.ChildFile, Path: keep}},
	}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Changed, action)

	_, err = os.Stat(keep)
	assert.NoError(t, err)
	_, err = os.Stat(stray)
	assert.True(t, os.IsNotExist(err))
}

func TestDirectoryApplierPurgeNoOpWhenNothingForeign(t *testing.T) {
	owner := currentUsername(t)
	path := t.TempDir()
	keep := filepath.Join(path, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("k"), 0o644))

	a := &directoryApplier{
		params:   catalog.DirectoryParameters{Path: path, Ensure: catalog.EnsurePresent, Owner: owner, Purge: true},
		children: []catalog.Child{{Kind: catalog.ChildFile, Path: keep}},
	}
	action, err := a.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, action)
}
