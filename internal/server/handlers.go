package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/puetzp/pullconf/internal/apierror"
	"github.com/puetzp/pullconf/pkg/logging"
)

// Router builds the top-level mux serving both HTTPS routes.
func (s *State) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/clients/{hostname}/resources", s.handleResources)
	mux.HandleFunc("GET /assets/{path...}", s.handleAsset)
	return mux
}

func (s *State) handleResources(w http.ResponseWriter, r *http.Request) {
	hostname := r.PathValue("hostname")
	rawKey := r.Header.Get("X-API-KEY")
	if rawKey == "" {
		apierror.Unauthorized("missing X-API-KEY header").Write(w)
		return
	}

	resolvedHost, ok := s.hostForAPIKey(rawKey)
	if !ok {
		apierror.Unauthorized("API key not recognized").Write(w)
		return
	}
	if resolvedHost != hostname {
		logging.Warn(logScope, "api key does not match requested hostname", "requested", hostname, "resolved", resolvedHost)
		apierror.Forbidden("API key does not authorize this hostname").Write(w)
		return
	}

	body, ok := s.body(hostname)
	if !ok {
		apierror.NotFound("no catalog compiled for this host").Write(w)
		return
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == body.etag {
		w.Header().Set("ETag", body.etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", body.etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.bytes)
}

func (s *State) handleAsset(w http.ResponseWriter, r *http.Request) {
	hostname := r.Header.Get("X-HOSTNAME")
	rawKey := r.Header.Get("X-API-KEY")
	if rawKey == "" {
		apierror.Unauthorized("missing X-API-KEY header").Write(w)
		return
	}
	resolvedHost, ok := s.hostForAPIKey(rawKey)
	if !ok {
		apierror.Unauthorized("API key not recognized").Write(w)
		return
	}
	if hostname != "" && resolvedHost != hostname {
		apierror.Forbidden("API key does not authorize this hostname").Write(w)
		return
	}

	requested := "/" + r.PathValue("path")
	if !s.sourceClaimed(resolvedHost, requested) {
		apierror.Forbidden("no resource in this host's catalog claims this asset").Write(w)
		return
	}

	root, err := filepath.Abs(s.AssetDir())
	if err != nil {
		apierror.Internal("asset root is not resolvable").Write(w)
		return
	}
	candidate := filepath.Join(root, requested)
	canonical, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		apierror.NotFound("asset not found").Write(w)
		return
	}
	if canonical != candidate && !strings.HasPrefix(canonical, root+string(filepath.Separator)) {
		apierror.Forbidden("asset path escapes the asset root").Write(w)
		return
	}
	if !strings.HasPrefix(canonical, root+string(filepath.Separator)) && canonical != root {
		apierror.Forbidden("asset path escapes the asset root").Write(w)
		return
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		apierror.NotFound("asset not found").Write(w)
		return
	}
	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	http.ServeContent(w, r, filepath.Base(canonical), time.Time{}, bytes.NewReader(data))
}
