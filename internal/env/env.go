// Package env parses the process environment variables that configure
// pullconfd and pullconf-agent, grounded on original_source/server/src/env.rs
// and the PULLCONF_* lookups in original_source/client/src/configuration.rs
// and main.rs.
package env

import (
	"fmt"
	"net"
	"os"

	"github.com/puetzp/pullconf/pkg/logging"
)

const logScope = "environment"

// FileKind selects which existence check ParsePath applies to a resolved
// path.
type FileKind int

const (
	Directory FileKind = iota
	File
)

// ParsePath reads variable from the environment, falling back to def if
// unset. When set, the value must be an absolute path pointing at an
// existing entry of the requested kind; it is canonicalized before return.
func ParsePath(kind FileKind, variable, def string) (string, error) {
	raw, ok := os.LookupEnv(variable)
	if !ok {
		logging.Debug(logScope, "variable not found, using default", "variable", variable, "default", def)
		return def, nil
	}

	info, err := os.Stat(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", variable, err)
	}
	if !isAbs(raw) {
		return "", fmt.Errorf("%s: value must be an absolute path", variable)
	}
	switch kind {
	case Directory:
		if !info.IsDir() {
			return "", fmt.Errorf("%s: value must point to an existing directory", variable)
		}
	case File:
		if info.IsDir() {
			return "", fmt.Errorf("%s: value must point to an existing file", variable)
		}
	}

	resolved, err := resolvePath(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", variable, err)
	}
	logging.Debug(logScope, "variable evaluates to resolved path", "variable", variable, "value", resolved)
	return resolved, nil
}

// ParseSocket reads a "host:port" listen address from variable, falling
// back to def if unset.
func ParseSocket(variable, def string) (string, error) {
	raw, ok := os.LookupEnv(variable)
	if !ok {
		logging.Debug(logScope, "variable not found, using default", "variable", variable, "default", def)
		return def, nil
	}
	if _, _, err := net.SplitHostPort(raw); err != nil {
		return "", fmt.Errorf("%s: %w", variable, err)
	}
	logging.Debug(logScope, "variable evaluates to socket address", "variable", variable, "value", raw)
	return raw, nil
}

// ParseString reads variable from the environment, falling back to def
// (which may be "") if unset.
func ParseString(variable, def string) string {
	if raw, ok := os.LookupEnv(variable); ok {
		return raw
	}
	return def
}

// RequireString reads variable from the environment, failing if unset or
// empty.
func RequireString(variable string) (string, error) {
	raw, ok := os.LookupEnv(variable)
	if !ok || raw == "" {
		return "", fmt.Errorf("%s must be set", variable)
	}
	return raw, nil
}
