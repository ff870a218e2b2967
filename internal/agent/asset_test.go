package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetFetcherFetch(t *testing.T) {
	var gotKey, gotMatch, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotMatch = r.Header.Get("If-None-Match")
		gotPath = r.URL.Path
		if gotMatch == "stale-etag" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fresh content"))
	}))
	defer srv.Close()

	f := &AssetFetcher{Client: srv.Client(), Server: srv.URL, Hostname: "db01", APIKey: "secret"}

	data, notModified, err := f.Fetch(context.Background(), "app.conf", "")
	require.NoError(t, err)
	assert.False(t, notModified)
	assert.Equal(t, "fresh content", string(data))
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/assets/app.conf", gotPath)
	assert.Empty(t, gotMatch)

	_, notModified, err = f.Fetch(context.Background(), "app.conf", "stale-etag")
	require.NoError(t, err)
	assert.True(t, notModified)
	assert.Equal(t, "stale-etag", gotMatch)
}

func TestAssetFetcherUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := &AssetFetcher{Client: srv.Client(), Server: srv.URL, Hostname: "db01", APIKey: "secret"}
	_, _, err := f.Fetch(context.Background(), "app.conf", "")
	assert.Error(t, err)
}
