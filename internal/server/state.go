// Package server implements pullconfd's HTTPS endpoints: authenticated
// catalog retrieval and asset serving, backed by an immutable-per-generation
// compiled state that SIGHUP swaps atomically. Grounded on spec.md §4.4/§5
// and original_source/server/src/main.rs's reload loop.
package server

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/puetzp/pullconf/internal/catalog"
	"github.com/puetzp/pullconf/internal/declaration"
	"github.com/puetzp/pullconf/pkg/logging"
)

const logScope = "server"

// generation is one fully-compiled snapshot of every host's catalog, plus
// the indexes the HTTP handlers need: API key hash to hostname, and
// hostname to serialized catalog bytes (so ETag computation never
// re-marshals per request).
type generation struct {
	apiKeyToHost map[string]string
	catalogs     map[string]*catalog.Catalog
	bodies       map[string]cachedBody
}

type cachedBody struct {
	bytes []byte
	etag  string
}

// State holds the server's current generation behind a RWMutex, swapped
// wholesale on reload so that in-flight requests always see a consistent
// snapshot (spec.md §5).
type State struct {
	mu  sync.RWMutex
	gen *generation

	clientDir string
	groupDir  string
	assetDir  string
}

func NewState(clientDir, groupDir, assetDir string) *State {
	return &State{clientDir: clientDir, groupDir: groupDir, assetDir: assetDir}
}

// Reload re-reads declarations from disk, recompiles every host's catalog
// and atomically replaces the current generation. A compile failure for any
// single host aborts the whole reload, leaving the previous generation (if
// any) in place.
func (s *State) Reload() error {
	hosts, err := declaration.LoadHosts(s.clientDir)
	if err != nil {
		return fmt.Errorf("load host declarations: %w", err)
	}
	groups, err := declaration.LoadGroups(s.groupDir)
	if err != nil {
		return fmt.Errorf("load group declarations: %w", err)
	}
	declaration.WarnUnreferencedGroups(hosts, groups)

	gen := &generation{
		apiKeyToHost: make(map[string]string, len(hosts)),
		catalogs:     make(map[string]*catalog.Catalog, len(hosts)),
		bodies:       make(map[string]cachedBody, len(hosts)),
	}

	for name, h := range hosts {
		compiled, err := catalog.Compile(h, groups)
		if err != nil {
			return fmt.Errorf("compile host %q: %w", name, err)
		}
		gen.catalogs[name] = compiled

		body, err := marshalEnvelope(name, compiled)
		if err != nil {
			return fmt.Errorf("serialize host %q: %w", name, err)
		}
		sum := sha256.Sum256(body)
		gen.bodies[name] = cachedBody{bytes: body, etag: `"` + hex.EncodeToString(sum[:]) + `"`}

		if h.APIKey != "" {
			keySum := sha256.Sum256([]byte(h.APIKey))
			keyHash := hex.EncodeToString(keySum[:])
			if existing, dup := gen.apiKeyToHost[keyHash]; dup {
				return catalog.NewCompileError(name, catalog.ErrDuplicateApiKey,
					"api-key collides with host %q: API-key hashes must be unique across all hosts", existing)
			}
			gen.apiKeyToHost[keyHash] = name
		}
	}

	s.mu.Lock()
	s.gen = gen
	s.mu.Unlock()

	logging.Info(logScope, "reload complete", "hosts", len(hosts), "groups", len(groups))
	return nil
}

// hostForAPIKey looks up the hostname bound to the SHA-256 hash of a raw
// API key, per spec.md §4.4.
func (s *State) hostForAPIKey(rawKey string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == nil {
		return "", false
	}
	sum := sha256.Sum256([]byte(rawKey))
	host, ok := s.gen.apiKeyToHost[hex.EncodeToString(sum[:])]
	return host, ok
}

func (s *State) body(host string) (cachedBody, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == nil {
		return cachedBody{}, false
	}
	b, ok := s.gen.bodies[host]
	return b, ok
}

func (s *State) catalogFor(host string) (*catalog.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == nil {
		return nil, false
	}
	c, ok := s.gen.catalogs[host]
	return c, ok
}

// sourceClaimed reports whether host's catalog contains a File resource
// whose source equals path, authorizing an asset download.
func (s *State) sourceClaimed(host, path string) bool {
	c, ok := s.catalogFor(host)
	if !ok {
		return false
	}
	for _, r := range c.Resources {
		f, ok := r.(*catalog.File)
		if !ok || f.Parameters.Source == nil {
			continue
		}
		if *f.Parameters.Source == path {
			return true
		}
	}
	return false
}

func (s *State) AssetDir() string { return s.assetDir }
