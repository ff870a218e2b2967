package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/puetzp/pullconf/internal/catalog"
)

type fileApplier struct {
	params catalog.FileParameters
	assets *AssetFetcher
}

// desiredContent returns the file's desired byte payload: Content verbatim,
// or the bytes fetched from the server's /assets route for Source. When
// current is non-nil (the file already exists), its SHA-256 is sent as
// If-None-Match so an unchanged asset skips the transfer entirely.
func (a *fileApplier) desiredContent(ctx context.Context, current []byte) ([]byte, error) {
	if a.params.Content != nil {
		return []byte(*a.params.Content), nil
	}
	if a.params.Source != nil {
		if a.assets == nil {
			return nil, fmt.Errorf("source %q set but no asset fetcher configured", *a.params.Source)
		}
		var etag string
		if current != nil {
			sum := sha256.Sum256(current)
			etag = hex.EncodeToString(sum[:])
		}
		data, notModified, err := a.assets.Fetch(ctx, *a.params.Source, etag)
		if err != nil {
			return nil, err
		}
		if notModified {
			return current, nil
		}
		return data, nil
	}
	return nil, nil
}

func (a *fileApplier) Apply(ctx context.Context) (Action, error) {
	path := a.params.Path
	info, statErr := os.Lstat(path)
	exists := statErr == nil

	if a.params.Ensure.IsAbsent() {
		if !exists {
			return Unchanged, nil
		}
		if err := os.Remove(path); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	var current []byte
	if exists {
		var err error
		current, err = os.ReadFile(path)
		if err != nil {
			return Failed, err
		}
	}

	desired, err := a.desiredContent(ctx, current)
	if err != nil {
		return Failed, err
	}
	mode, err := parseMode(a.params.Mode)
	if err != nil {
		return Failed, err
	}

	if !exists {
		if err := os.WriteFile(path, desired, mode); err != nil {
			return Failed, err
		}
		if err := chownPath(path, a.params.Owner, a.params.Group); err != nil {
			os.Remove(path)
			return Failed, err
		}
		return Created, nil
	}

	changed := sha256.Sum256(current) != sha256.Sum256(desired)
	if info.Mode().Perm() != mode {
		changed = true
	}
	ownerDrifted, err := ownershipDiffers(info, a.params.Owner, a.params.Group)
	if err != nil {
		return Failed, err
	}
	if ownerDrifted {
		changed = true
	}

	if !changed {
		return Unchanged, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pullconf-*")
	if err != nil {
		return Failed, err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(desired); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Failed, err
	}
	tmp.Close()
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return Failed, err
	}
	if err := chownPath(tmpPath, a.params.Owner, a.params.Group); err != nil {
		os.Remove(tmpPath)
		return Failed, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Failed, err
	}
	return Changed, nil
}

func parseMode(mode string) (os.FileMode, error) {
	if mode == "" {
		mode = "644"
	}
	v, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("mode %q is not valid octal: %w", mode, err)
	}
	return os.FileMode(v), nil
}
