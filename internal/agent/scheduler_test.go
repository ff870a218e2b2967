package agent

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puetzp/pullconf/internal/catalog"
)

func currentUsername(t *testing.T) string {
	t.Helper()
	u, err := user.Current()
	require.NoError(t, err)
	return u.Username
}

func TestSchedulerAppliesInDependencyOrder(t *testing.T) {
	owner := currentUsername(t)
	root := t.TempDir()
	dirPath := filepath.Join(root, "app")
	filePath := filepath.Join(dirPath, "config.ini")

	dir := &catalog.Directory{Parameters: catalog.DirectoryParameters{Path: dirPath, Ensure: catalog.EnsurePresent, Owner: owner}}
	dir.SetID(uuid.New())

	content := "managed\n"
	file := &catalog.File{Parameters: catalog.FileParameters{Path: filePath, Ensure: catalog.EnsurePresent, Mode: "644", Owner: owner, Content: &content}}
	file.SetID(uuid.New())
	file.AddRequires(catalog.ResourceMetadata{Kind: catalog.KindDirectory, ID: dir.ID()})

	s := NewScheduler([]catalog.Resource{file, dir}, nil)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Created, results[dir.ID()].Action)
	assert.Equal(t, Created, results[file.ID()].Action)

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestSchedulerSkipsOnFailedDependency(t *testing.T) {
	root := t.TempDir()
	dirPath := filepath.Join(root, "app")

	dir := &catalog.Directory{Parameters: catalog.DirectoryParameters{Path: dirPath, Ensure: catalog.EnsurePresent, Owner: "no-such-user-pullconf-test"}}
	dir.SetID(uuid.New())

	filePath := filepath.Join(dirPath, "config.ini")
	content := "managed\n"
	file := &catalog.File{Parameters: catalog.FileParameters{Path: filePath, Ensure: catalog.EnsurePresent, Mode: "644", Owner: "root", Content: &content}}
	file.SetID(uuid.New())
	file.AddRequires(catalog.ResourceMetadata{Kind: catalog.KindDirectory, ID: dir.ID()})

	s := NewScheduler([]catalog.Resource{file, dir}, nil)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Failed, results[dir.ID()].Action)
	assert.Equal(t, Skipped, results[file.ID()].Action)

	_, statErr := os.Stat(filePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSchedulerFailsPresentDependingOnAbsent(t *testing.T) {
	root := t.TempDir()
	owner := currentUsername(t)

	absentPath := filepath.Join(root, "gone")
	absentDir := &catalog.Directory{Parameters: catalog.DirectoryParameters{Path: absentPath, Ensure: catalog.EnsureAbsent, Owner: owner}}
	absentDir.SetID(uuid.New())

	presentPath := filepath.Join(root, "present")
	presentDir := &catalog.Directory{Parameters: catalog.DirectoryParameters{Path: presentPath, Ensure: catalog.EnsurePresent, Owner: owner}}
	presentDir.SetID(uuid.New())
	presentDir.AddRequires(catalog.ResourceMetadata{Kind: catalog.KindDirectory, ID: absentDir.ID()})

	s := NewScheduler([]catalog.Resource{presentDir, absentDir}, nil)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Unchanged, results[absentDir.ID()].Action)
	assert.Equal(t, Failed, results[presentDir.ID()].Action)
}

func TestSchedulerFileWithSourceButNoAssetFetcherFails(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "app.conf")
	source := "/app.conf"

	file := &catalog.File{Parameters: catalog.FileParameters{Path: path, Ensure: catalog.EnsurePresent, Mode: "644", Owner: "root", Source: &source}}
	file.SetID(uuid.New())

	s := NewScheduler([]catalog.Resource{file}, nil)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Failed, results[file.ID()].Action)
	assert.Error(t, results[file.ID()].Err)
}
