package declaration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/puetzp/pullconf/pkg/logging"
)

const logScope = "declaration"

// LoadHosts reads every *.toml file directly under dir, decoding it into a
// Host keyed by its file stem. Non-TOML entries and subdirectories are
// warned about and skipped; two files producing the same stem fail the
// load.
func LoadHosts(dir string) (map[string]Host, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read clients directory %s: %w", dir, err)
	}

	hosts := make(map[string]Host, len(entries))
	for _, entry := range entries {
		stem, ok := tomlStem(entry)
		if !ok {
			logging.Warn(logScope, "ignoring non-declaration entry", "path", filepath.Join(dir, entry.Name()))
			continue
		}
		if _, dup := hosts[stem]; dup {
			return nil, fmt.Errorf("duplicate host declaration for %q in %s", stem, dir)
		}

		var h Host
		path := filepath.Join(dir, entry.Name())
		meta, err := toml.DecodeFile(path, &h)
		if err != nil {
			return nil, fmt.Errorf("decode host declaration %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("host declaration %s: unknown field %q", path, undecoded[0])
		}
		h.Name = stem
		hosts[stem] = h
	}
	return hosts, nil
}

// LoadGroups reads every *.toml file directly under dir, decoding it into a
// Group keyed by its file stem, with the same duplicate and non-TOML entry
// handling as LoadHosts.
func LoadGroups(dir string) (map[string]Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read groups directory %s: %w", dir, err)
	}

	groups := make(map[string]Group, len(entries))
	for _, entry := range entries {
		stem, ok := tomlStem(entry)
		if !ok {
			logging.Warn(logScope, "ignoring non-declaration entry", "path", filepath.Join(dir, entry.Name()))
			continue
		}
		if _, dup := groups[stem]; dup {
			return nil, fmt.Errorf("duplicate group declaration for %q in %s", stem, dir)
		}

		var g Group
		path := filepath.Join(dir, entry.Name())
		meta, err := toml.DecodeFile(path, &g)
		if err != nil {
			return nil, fmt.Errorf("decode group declaration %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("group declaration %s: unknown field %q", path, undecoded[0])
		}
		g.Name = stem
		groups[stem] = g
	}
	return groups, nil
}

func tomlStem(entry os.DirEntry) (string, bool) {
	if entry.IsDir() {
		return "", false
	}
	name := entry.Name()
	if !strings.HasSuffix(name, ".toml") {
		return "", false
	}
	return strings.TrimSuffix(name, ".toml"), true
}

// WarnUnreferencedGroups logs a warning for every group that no loaded host
// assigns, per spec.md §4.1 ("unreferenced groups produce a warning, not
// fatal").
func WarnUnreferencedGroups(hosts map[string]Host, groups map[string]Group) {
	referenced := make(map[string]bool)
	for _, h := range hosts {
		for _, g := range h.Groups {
			referenced[g] = true
		}
	}
	for name := range groups {
		if !referenced[name] {
			logging.Warn(logScope, "group is not referenced by any host", "group", name)
		}
	}
}
