// Package mapbox implements geocoding and directions on the Mapbox HTTP APIs.
package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.mapbox.com"
	DefaultTimeout = 10 * time.Second

	geocodingPath  = "/geocoding/v5/mapbox.places/"
	directionsPath = "/directions/v5/mapbox/driving/"
)

// ErrMissingAccessToken is returned for every request when no token is configured.
var ErrMissingAccessToken = errors.New("mapbox access token is not configured")

// Config configures a Client.
type Config struct {
	AccessToken   string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client talks to the Mapbox geocoding and directions APIs.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var (
	_ booking.GeocodingProvider  = (*Client)(nil)
	_ booking.DirectionsProvider = (*Client)(nil)
)

// NewClient creates a Client. Zero values fall back to the defaults; a
// non-positive rate disables outbound limiting.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Geocode searches places matching query.
func (c *Client) Geocode(ctx context.Context, query string) ([]booking.Location, error) {
	var payload geocodingResponse
	if err := c.get(ctx, geocodingPath+url.PathEscape(query)+".json", nil, &payload); err != nil {
		return nil, err
	}
	return payload.locations()
}

// ReverseGeocode returns places at coordinate c, most specific first.
func (c *Client) ReverseGeocode(ctx context.Context, coord booking.Coordinate) ([]booking.Location, error) {
	var payload geocodingResponse
	if err := c.get(ctx, geocodingPath+coord.String()+".json", nil, &payload); err != nil {
		return nil, err
	}
	return payload.locations()
}

// Directions returns the first driving route between origin and destination.
func (c *Client) Directions(ctx context.Context, origin, destination booking.Coordinate) (booking.Route, error) {
	params := url.Values{}
	params.Set("geometries", "geojson")

	var payload directionsResponse
	path := directionsPath + origin.String() + ";" + destination.String()
	if err := c.get(ctx, path, params, &payload); err != nil {
		return booking.Route{}, err
	}
	return payload.route()
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	if c.cfg.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.cfg.AccessToken)
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mapbox request failed: %w", redact(err, c.cfg.AccessToken))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("mapbox upstream error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("mapbox upstream error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode mapbox payload: %w", err)
	}
	return nil
}

// redact keeps the access token out of logged url.Error messages.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "REDACTED"))
}
