package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/metrics"
	internaltest "github.com/leapstack-labs/leapmap/internal/testutil"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// fakeGemini serves generateContent with a fixed model text.
func fakeGemini(t *testing.T, status int, text string, seen *atomic.Value) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			seen.Store(r.URL.Path + "\n" + string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGemini(t *testing.T, url string, m *metrics.Metrics) *GeminiOracle {
	t.Helper()
	o, err := NewGemini(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Timeout: 5 * time.Second,
	}, internaltest.NewTestLogger(t), m)
	require.NoError(t, err)
	return o
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestGeminiOracle_Geocode(t *testing.T) {
	var seen atomic.Value
	srv := fakeGemini(t, http.StatusOK, `[{"location":"Paris","lat":48.8566,"lng":2.3522}]`, &seen)
	defer srv.Close()
	m := metrics.New()
	o := newTestGemini(t, srv.URL, m)

	got, err := o.Geocode(context.Background(), []string{"Paris", "Atlantis", "Paris"})

	require.NoError(t, err)
	assert.Equal(t, []core.GeocodedLocation{{Location: "Paris", Lat: 48.8566, Lng: 2.3522}}, got)

	req, _ := seen.Load().(string)
	assert.Contains(t, req, DefaultModel+":generateContent")
	assert.Contains(t, req, "You are a geocoding expert.")
	assert.Contains(t, req, `[\"Paris\",\"Atlantis\"]`, "places are sent once each")
	assert.Contains(t, req, "application/json")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(metrics.OutcomeOK)))
}

func TestGeminiOracle_NoPlacesSkipsCall(t *testing.T) {
	var seen atomic.Value
	srv := fakeGemini(t, http.StatusOK, `[]`, &seen)
	defer srv.Close()
	o := newTestGemini(t, srv.URL, nil)

	got, err := o.Geocode(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, seen.Load())
}

func TestGeminiOracle_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		text   string
	}{
		{name: "upstream rejects", status: http.StatusBadRequest},
		{name: "empty text", status: http.StatusOK, text: ""},
		{name: "not json", status: http.StatusOK, text: "I could not find these places."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeGemini(t, tt.status, tt.text, nil)
			defer srv.Close()
			m := metrics.New()
			o := newTestGemini(t, srv.URL, m)

			got, err := o.Geocode(context.Background(), []string{"Paris"})

			assert.Nil(t, got)
			require.ErrorIs(t, err, core.ErrGeocode)
			assert.Equal(t, core.ErrGeocode.Error(), core.UserMessage(err))
			assert.False(t, strings.Contains(core.UserMessage(err), "400"))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(metrics.OutcomeError)))
		})
	}
}
