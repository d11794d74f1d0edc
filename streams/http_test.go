package streams

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

func testConfig(baseURL string) *config.StreamsConfig {
	return &config.StreamsConfig{
		APIType:      config.APITypeHTTP,
		Organization: "my-org",
		Project:      "my-project",
		HTTP: &config.HTTPAPIConfig{
			BaseURL: baseURL,
			Token:   "test-token",
		},
		Common: config.CommonAPIConfig{
			TimeoutSeconds: 5,
			MaxRetries:     2,
		},
	}
}

func testWindow() model.RunWindow {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return model.NewRunWindow(now, 30)
}

func TestHTTPProvider_ListCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/my-org/projects/my-project/searches", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		fmt.Fprint(w, `{"data": [
			{"id": "1", "attributes": {"name": "checkout errors", "query": "service IN (\"checkout\")"}},
			{"id": "2", "attributes": {"name": "keep-forever latency", "query": "service IN (\"checkout\")"}},
			{"id": "3", "attributes": {"name": "payments p99", "query": "service IN (\"payments\")"}}
		]}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Service = "checkout"
	cfg.ExcludeSubstrings = []string{"keep-forever"}

	p, err := NewHTTPProvider(cfg)
	require.NoError(t, err)

	ids, err := p.ListCandidates(context.Background())
	require.NoError(t, err)

	// 2 is excluded by name substring, 3 by the service filter
	require.Equal(t, []model.StreamID{"1"}, ids)
}

func TestHTTPProvider_EnvSuffixScopesProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/my-org/projects/my-project-staging/searches", r.URL.Path)
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.EnvSuffix = "staging"

	p, err := NewHTTPProvider(cfg)
	require.NoError(t, err)

	ids, err := p.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestHTTPProvider_QueryActivity(t *testing.T) {
	window := testWindow()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/my-org/projects/my-project/streams/42/timeseries", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, window.Oldest.Format(time.RFC3339), q.Get("oldest-time"))
		require.Equal(t, window.Youngest.Format(time.RFC3339), q.Get("youngest-time"))

		fmt.Fprint(w, `{"data": {"attributes": {"points": [{"ops-counts": 0}, {"ops-counts": 12}]}}}`)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	require.NoError(t, err)

	active, err := p.QueryActivity(context.Background(), "42", window)
	require.NoError(t, err)
	require.True(t, active)
}

func TestHTTPProvider_QueryActivityNoPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"attributes": {"points": []}}}`)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	require.NoError(t, err)

	active, err := p.QueryActivity(context.Background(), "42", testWindow())
	require.NoError(t, err)
	require.False(t, active)
}

func TestHTTPProvider_Delete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), "42"))
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/my-org/projects/my-project/searches/42", gotPath)
}

func TestHTTPProvider_RetriesServerErrors(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = p.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&attempts))
}

func TestHTTPProvider_ClientErrorsAreNotRetried(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, "stream was already deleted", http.StatusGone)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	require.NoError(t, err)

	err = p.Delete(context.Background(), "42")
	require.Error(t, err)
	require.Contains(t, err.Error(), "410")
	require.Equal(t, int64(1), atomic.LoadInt64(&attempts), "4xx responses must fail immediately")
}
