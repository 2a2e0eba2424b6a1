// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/testutil"
	"github.com/leapstack-labs/leapmap/internal/ui/notifier"
	"github.com/leapstack-labs/leapmap/internal/ui/session"
	"github.com/leapstack-labs/leapmap/internal/workspace"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// TestSession is the session id used by fixture requests.
const TestSession = "test-session"

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Store    *workspace.Store
	Notifier *notifier.Notifier
	Metrics  *metrics.Metrics
	Oracle   *geocode.StaticOracle
}

// SetupTestFixture creates a store, notifier, metrics registry and a static
// oracle that knows the given locations.
func SetupTestFixture(t *testing.T, known ...core.GeocodedLocation) *TestFixture {
	t.Helper()

	m := metrics.New()
	store := workspace.NewStore(time.Hour, workspace.Options{Metrics: m}, testutil.NewTestLogger(t))
	t.Cleanup(store.Close)

	return &TestFixture{
		Store:    store,
		Notifier: notifier.New(),
		Metrics:  m,
		Oracle:   geocode.NewStatic(known),
	}
}

// Workspace returns the fixture session's workspace.
func (f *TestFixture) Workspace() *workspace.Workspace {
	return f.Store.Get(TestSession)
}

// WithSession attaches the fixture session id to r.
func WithSession(r *http.Request) *http.Request {
	return r.WithContext(session.WithID(r.Context(), TestSession))
}

// SignalsRequest builds a datastar action request carrying signals as JSON.
func SignalsRequest(t *testing.T, method, path string, signals any) *http.Request {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Datastar-Request", "true")
	return WithSession(req)
}

// UploadRequest builds a multipart upload of one file in the "file" field.
func UploadRequest(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Datastar-Request", "true")
	return WithSession(req)
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
