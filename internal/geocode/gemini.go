package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// DefaultModel is the generative model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTimeout bounds one upstream call when none is configured.
const DefaultTimeout = 60 * time.Second

const promptPrefix = "You are a geocoding expert. Find the precise latitude and longitude for this list of locations. " +
	"If a location is ambiguous or cannot be found, omit it from your response. Locations: "

// GeminiConfig configures a GeminiOracle.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL string
}

// GeminiOracle asks a Gemini model for coordinates using a JSON response
// schema, so the answer is machine-readable without prompt parsing.
type GeminiOracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGemini creates an oracle backed by the Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger, m *metrics.Metrics) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiOracle{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: m,
	}, nil
}

// Geocode sends every distinct place in a single request.
func (o *GeminiOracle) Geocode(ctx context.Context, places []string) ([]core.GeocodedLocation, error) {
	places = dedupe(places)
	if len(places) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(places)
	if err != nil {
		return nil, &core.OracleError{Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt), responseConfig())
	if err != nil {
		o.metrics.ObserveGeocode(started, err)
		o.logger.Warn("geocode request failed", "model", o.model, "places", len(places), "error", err)
		return nil, &core.OracleError{Cause: fmt.Errorf("generate content: %w", err)}
	}

	results, err := DecodePayload(resp.Text())
	o.metrics.ObserveGeocode(started, err)
	if err != nil {
		o.logger.Warn("geocode response rejected", "model", o.model, "error", err)
		return nil, &core.OracleError{Cause: err}
	}

	o.logger.Debug("geocode complete",
		"model", o.model,
		"requested", len(places),
		"resolved", len(results),
		"elapsed", time.Since(started))
	return results, nil
}

func buildPrompt(places []string) (string, error) {
	list, err := json.Marshal(places)
	if err != nil {
		return "", fmt.Errorf("encode places: %w", err)
	}
	return promptPrefix + string(list), nil
}

func responseConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"location": {Type: genai.TypeString, Description: "The original location name provided."},
					"lat":      {Type: genai.TypeNumber, Description: "The latitude of the location."},
					"lng":      {Type: genai.TypeNumber, Description: "The longitude of the location."},
				},
				Required: []string{"location", "lat", "lng"},
			},
		},
	}
}
