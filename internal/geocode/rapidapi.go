package geocode

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"accueil/internal/provider"
)

const (
	ProviderID = "rapidapi-geocode"

	DefaultBaseURL = "https://google-map-places.p.rapidapi.com"
	DefaultHost    = "google-map-places.p.rapidapi.com"
	DefaultTimeout = 10 * time.Second

	geocodePath = "/maps/api/geocode/json"
)

// RapidAPIClient queries the Google Maps geocoding API through RapidAPI,
// biased toward administrative areas.
type RapidAPIClient struct {
	http    *resty.Client
	apiKey  string
	host    string
	baseURL string
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*RapidAPIClient)

func WithBaseURL(u string) Option {
	return func(c *RapidAPIClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHost sets the x-rapidapi-host header value.
func WithHost(host string) Option {
	return func(c *RapidAPIClient) { c.host = host }
}

func WithTimeout(d time.Duration) Option {
	return func(c *RapidAPIClient) { c.http.SetTimeout(d) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *RapidAPIClient) { c.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(c *RapidAPIClient) { c.metrics = m }
}

func NewRapidAPI(apiKey string, opts ...Option) *RapidAPIClient {
	c := &RapidAPIClient{
		http:    resty.New().SetTimeout(DefaultTimeout),
		apiKey:  apiKey,
		host:    DefaultHost,
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
		tracer:  otel.Tracer("accueil/geocode"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve returns the first match for place.
func (c *RapidAPIClient) Resolve(ctx context.Context, place string) (*Place, error) {
	ctx, span := c.tracer.Start(ctx, "geocode.resolve", trace.WithAttributes(
		attribute.String("geocode.query", place),
	))
	defer span.End()

	start := time.Now()
	p, err := c.resolve(ctx, place)
	outcome := "ok"
	if err != nil {
		outcome = string(provider.GetCategory(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	c.metrics.observe(outcome, start)
	c.logger.DebugContext(ctx, "geocode lookup finished",
		"place", place,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return p, err
}

func (c *RapidAPIClient) resolve(ctx context.Context, place string) (*Place, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, provider.NewError(provider.ErrorBadData, ProviderID, "empty place name", nil)
	}

	var resp geocodeResponse
	rr, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-rapidapi-key", c.apiKey).
		SetHeader("x-rapidapi-host", c.host).
		SetQueryParams(map[string]string{
			"address":       place,
			"language":      "en",
			"region":        "en",
			"result_type":   "administrative_area_level_1",
			"location_type": "APPROXIMATE",
		}).
		SetResult(&resp).
		Get(c.baseURL + geocodePath)
	if err != nil {
		return nil, provider.FromTransport(ProviderID, err)
	}
	if rr.IsError() {
		return nil, provider.FromStatus(ProviderID, rr.StatusCode(), rr.String())
	}

	switch resp.Status {
	case "", "OK":
	case "ZERO_RESULTS":
		return nil, provider.NewError(provider.ErrorNotFound, ProviderID, "no place matches "+place, ErrNoResults)
	case "REQUEST_DENIED":
		return nil, provider.NewError(provider.ErrorAuthentication, ProviderID, resp.ErrorMessage, nil)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return nil, provider.NewError(provider.ErrorRateLimited, ProviderID, resp.ErrorMessage, nil)
	default:
		return nil, provider.NewError(provider.ErrorContractMismatch, ProviderID, "unexpected status "+resp.Status, nil)
	}
	if len(resp.Results) == 0 {
		return nil, provider.NewError(provider.ErrorNotFound, ProviderID, "no place matches "+place, ErrNoResults)
	}

	first := resp.Results[0]
	return &Place{
		ID:             first.PlaceID,
		Latitude:       first.Geometry.Location.Lat,
		Longitude:      first.Geometry.Location.Lng,
		LatitudeDelta:  DisplayDelta,
		LongitudeDelta: DisplayDelta,
	}, nil
}
