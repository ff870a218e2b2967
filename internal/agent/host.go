package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/puetzp/pullconf/internal/catalog"
)

// hostApplier manages one line of a hosts file, matching lines by their
// first whitespace-separated field (the IP address), grounded on
// original_source/client/src/resources/host.rs's Match::Full/Partial
// distinction.
type hostApplier struct {
	params catalog.HostParameters
}

func (a *hostApplier) desiredLine() string {
	fields := append([]string{a.params.IPAddress, a.params.Hostname}, a.params.Aliases...)
	return strings.Join(fields, " ")
}

func (a *hostApplier) Apply(ctx context.Context) (Action, error) {
	target := a.params.Target
	lines, exists, err := readLines(target)
	if err != nil {
		return Failed, err
	}
	if !exists {
		return Skipped, nil
	}

	idx := -1
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == a.params.IPAddress {
			idx = i
			break
		}
	}

	if a.params.Ensure.IsAbsent() {
		if idx == -1 {
			return Unchanged, nil
		}
		lines = append(lines[:idx], lines[idx+1:]...)
		if err := writeLines(target, lines); err != nil {
			return Failed, err
		}
		return Deleted, nil
	}

	desired := a.desiredLine()
	if idx == -1 {
		lines = append(lines, desired)
		if err := writeLines(target, lines); err != nil {
			return Failed, err
		}
		return Created, nil
	}
	if lines[idx] == desired {
		return Unchanged, nil
	}
	lines[idx] = desired
	if err := writeLines(target, lines); err != nil {
		return Failed, err
	}
	return Changed, nil
}

// readLines reads path's lines, reporting whether the file exists at all so
// callers can distinguish a missing target (original_source/client/src/resources/host.rs:253-267's
// io::ErrorKind::NotFound, which Apply surfaces as Skipped) from an empty one.
func readLines(path string) (lines []string, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, true, nil
	}
	return strings.Split(text, "\n"), true, nil
}

// writeLines writes lines to a temp file in path's own directory, then
// renames it over path, avoiding the original implementation's
// shared-temp-path race (see SPEC_FULL.md).
func writeLines(path string, lines []string) error {
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}

	info, statErr := os.Stat(path)
	mode := os.FileMode(0o644)
	if statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pullconf-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	tmp.Close()
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
