package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/testutil"
	"github.com/leapstack-labs/leapmap/internal/ui/session"
	"github.com/leapstack-labs/leapmap/internal/workspace"
)

const preloadCSV = "City,Lat,Lng\nParis,48.8566,2.3522\nTokyo,35.6762,139.6503\n"

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	if cfg.Store == nil {
		cfg.Store = workspace.NewStore(time.Hour, workspace.Options{Metrics: cfg.Metrics}, cfg.Logger)
		t.Cleanup(cfg.Store.Close)
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "test-secret"
	}
	return NewServer(cfg)
}

func writePreload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "places.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func TestServer_Handler(t *testing.T) {
	s := newTestServer(t, Config{})
	h, err := s.Handler()
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
		cookie   bool
	}{
		{name: "health check", path: "/healthz", wantCode: http.StatusOK, wantBody: "ok"},
		{name: "metrics", path: "/metrics", wantCode: http.StatusOK, wantBody: "go_goroutines"},
		{name: "script", path: "/static/leapmap.js", wantCode: http.StatusOK, wantBody: "leapmap"},
		{name: "page", path: "/", wantCode: http.StatusOK, wantBody: `id="app-shell"`, cookie: true},
		{name: "unknown export", path: "/export/pdf", wantCode: http.StatusBadRequest, cookie: true},
		{name: "missing route", path: "/nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			hasCookie := strings.Contains(rec.Header().Get("Set-Cookie"), session.CookieName+"=")
			assert.Equal(t, tt.cookie, hasCookie, "session cookie only on page routes")
		})
	}
}

func TestServer_SessionKeepsWorkspace(t *testing.T) {
	s := newTestServer(t, Config{})
	h, err := s.Handler()
	require.NoError(t, err)

	first := get(t, h, "/")
	cookie := sessionCookie(t, first)
	assert.NotContains(t, first.Body.String(), `class="dark"`)

	req := httptest.NewRequest(http.MethodPost, "/api/theme", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)

	again := get(t, h, "/", cookie)
	assert.Contains(t, again.Body.String(), `class="dark"`)
	assert.Empty(t, again.Header().Get("Set-Cookie"), "known session is not re-issued")

	stranger := get(t, h, "/")
	assert.NotContains(t, stranger.Body.String(), `class="dark"`)
	assert.Equal(t, 2, s.store.Len())
}

func TestServer_Preload(t *testing.T) {
	path := writePreload(t, preloadCSV)
	s := newTestServer(t, Config{CSVPath: path})

	require.NoError(t, s.loadPreload())

	h, err := s.Handler()
	require.NoError(t, err)
	body := get(t, h, "/").Body.String()
	assert.Contains(t, body, "places.csv (2 rows)")
	assert.Contains(t, body, "Showing 2 of 2 locations")
}

func TestServer_PreloadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			wantErr: "open preload file",
		},
		{
			name:    "header only",
			path:    func(t *testing.T) string { return writePreload(t, "City,Lat,Lng\n") },
			wantErr: "header row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Config{CSVPath: tt.path(t)})

			err := s.Serve(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServer_WatchPreloadReloads(t *testing.T) {
	logger, logs := testutil.NewCapturingLogger(t)
	path := writePreload(t, preloadCSV)
	s := newTestServer(t, Config{CSVPath: path, Watch: true, Logger: logger})
	require.NoError(t, s.loadPreload())

	ws := s.store.Get("tab")
	require.Equal(t, 2, ws.View().RowCount)
	updates := s.Notifier().Subscribe("tab")
	defer s.Notifier().Unsubscribe("tab", updates)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchPreload(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	updated := preloadCSV + "Lima,-12.0464,-77.0428\n"
	// Rewrite until the watcher, which starts asynchronously, sees a change.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(updated), 0o600)
		select {
		case <-updates:
			return true
		case <-time.After(250 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 3, ws.View().RowCount)
	assert.Eventually(t, func() bool { return logs.Contains("preload file changed") }, time.Second, 10*time.Millisecond)
}

func TestServer_WatchPreloadKeepsOldTableOnBadWrite(t *testing.T) {
	logger, logs := testutil.NewCapturingLogger(t)
	path := writePreload(t, preloadCSV)
	s := newTestServer(t, Config{CSVPath: path, Watch: true, Logger: logger})
	require.NoError(t, s.loadPreload())
	ws := s.store.Get("tab")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchPreload(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("only a header\n"), 0o600)
		return logs.Contains("preload reload failed")
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, 2, ws.View().RowCount)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t, Config{Port: 0})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_MetricsCountExports(t *testing.T) {
	path := writePreload(t, preloadCSV)
	s := newTestServer(t, Config{CSVPath: path})
	require.NoError(t, s.loadPreload())
	h, err := s.Handler()
	require.NoError(t, err)

	rec := get(t, h, "/export/geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)

	res := get(t, h, "/metrics").Result()
	defer func() { _ = res.Body.Close() }()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `leapmap_exports_total{format="geojson"} 1`)
}
