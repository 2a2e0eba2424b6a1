package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeocode(t *testing.T) {
	m := New()

	m.ObserveGeocode(time.Now(), nil)
	m.ObserveGeocode(time.Now(), errors.New("boom"))
	m.ObserveGeocode(time.Now(), nil)
	m.Stale()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(OutcomeStale)))
}

func TestCounters(t *testing.T) {
	m := New()

	m.CacheLookup(3, 1)
	m.Upload(nil)
	m.Upload(errors.New("bad"))
	m.Export("csv")
	m.SetWorkspaces(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("csv")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Workspaces))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGeocode(time.Now(), nil)
		m.Stale()
		m.CacheLookup(1, 1)
		m.Upload(nil)
		m.Export("csv")
		m.SetWorkspaces(1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Export("geojson")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `leapmap_exports_total{format="geojson"} 1`)
}
