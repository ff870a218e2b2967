// Package declaration loads per-host and per-group TOML declarations from
// disk. It performs no variable resolution or compilation — it hands the
// catalog compiler raw, string-tagged resource entries. Grounded on
// original_source/server/src/declarations/mod.rs and spec.md §4.1.
package declaration

// Host is one clients/*.toml file, decoded with its file stem as Name.
type Host struct {
	Name      string
	APIKey    string                   `toml:"api-key"`
	Groups    []string                 `toml:"groups"`
	Variables map[string]interface{}   `toml:"variables"`
	Resources []map[string]interface{} `toml:"resources"`
}

// Group is one groups/*.toml file, decoded with its file stem as Name.
type Group struct {
	Name      string
	Resources []map[string]interface{} `toml:"resources"`
}
