// Package weather looks up the ambient temperature for a place and day from
// the Open-Meteo forecast and archive APIs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/flashbang/internal/config"
	ferrors "github.com/five82/flashbang/internal/errors"
	"github.com/five82/flashbang/internal/logging"
)

// maxResponseBytes caps the JSON body read from the service.
const maxResponseBytes = 1 << 20

// Endpoint names the API a reading came from.
type Endpoint string

const (
	Forecast Endpoint = "forecast"
	Archive  Endpoint = "archive"
)

// Reading is the temperature chosen for a day.
type Reading struct {
	TemperatureC float64
	// Date is the resolved calendar day, YYYY-MM-DD.
	Date string
	// Time is the hourly timestamp of the chosen sample as returned by the API.
	Time     string
	Fallback bool
	Endpoint Endpoint
}

// hourlyResponse is the subset of the Open-Meteo response we use.
type hourlyResponse struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time          []string   `json:"time"`
		Temperature2m []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Client queries Open-Meteo.
type Client struct {
	base        *BaseClient
	forecastURL string
	archiveURL  string
	clock       clockwork.Clock
	log         *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock sets the clock used to decide what "today" is.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithBaseClient replaces the HTTP layer.
func WithBaseClient(base *BaseClient) Option {
	return func(c *Client) {
		c.base = base
	}
}

// NewClient creates a weather client. timeout bounds each HTTP attempt and
// retries is the number of extra attempts on 429/5xx responses.
func NewClient(forecastURL, archiveURL string, timeout time.Duration, retries int, userAgent string, opts ...Option) *Client {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = retries

	c := &Client{
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		clock:       clockwork.NewRealClock(),
		log:         logging.Global().WithPrefix("weather"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.base == nil {
		c.base = NewBaseClient(&http.Client{Timeout: timeout}, policy, userAgent, WithBaseClock(c.clock))
	}
	return c
}

// Lookup returns the temperature near local noon at lat/lon on the day
// selected by date. The forecast API is used when the day is today (UTC),
// the archive otherwise.
func (c *Client) Lookup(ctx context.Context, lat, lon float64, date config.DateSpec) (Reading, error) {
	now := c.clock.Now().UTC()
	day := date.Resolve(now)
	target := config.FormatDate(day)

	endpoint, base := Archive, c.archiveURL
	if target == config.FormatDate(now) {
		endpoint, base = Forecast, c.forecastURL
	}

	reqURL, err := buildURL(base, lat, lon, target)
	if err != nil {
		return Reading{}, ferrors.NewWeatherUnavailableError("invalid weather endpoint", err)
	}

	c.log.Info("fetching temperature", "endpoint", string(endpoint), "date", target, "lat", lat, "lon", lon)

	data, err := c.fetch(ctx, reqURL)
	if err != nil {
		return Reading{}, err
	}

	samples, err := decodeSamples(data)
	if err != nil {
		return Reading{}, err
	}

	chosen, fallback, err := SelectNoon(samples)
	if err != nil {
		return Reading{}, err
	}
	if fallback {
		c.log.Warn("noon temperature not found, using closest hour", "time", chosen.Time)
	}

	r := Reading{
		TemperatureC: *chosen.Temperature,
		Date:         target,
		Time:         chosen.Time,
		Fallback:     fallback,
		Endpoint:     endpoint,
	}
	c.log.Info("temperature resolved", "date", r.Date, "time", r.Time, "temperature_c", r.TemperatureC)
	return r, nil
}

// buildURL adds the query parameters shared by both endpoints.
func buildURL(base string, lat, lon float64, date string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint %q is not absolute", base)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("start_date", date)
	q.Set("end_date", date)
	q.Set("hourly", "temperature_2m")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ferrors.NewWeatherUnavailableError("failed to build weather request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, ferrors.NewWeatherUnavailableError("failed to read weather response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hourlyResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return nil, ferrors.NewWeatherUnavailableError(
				fmt.Sprintf("weather service returned %d: %s", resp.StatusCode, apiErr.Reason), nil)
		}
		return nil, ferrors.NewWeatherUnavailableError(
			fmt.Sprintf("weather service returned %d", resp.StatusCode), nil)
	}

	return body, nil
}

// decodeSamples parses the hourly arrays into samples.
func decodeSamples(data []byte) ([]Sample, error) {
	var parsed hourlyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ferrors.NewWeatherUnavailableError("malformed weather response", err)
	}
	if parsed.Error {
		return nil, ferrors.NewWeatherUnavailableError("weather service error: "+parsed.Reason, nil)
	}

	times, temps := parsed.Hourly.Time, parsed.Hourly.Temperature2m
	if len(times) == 0 || len(temps) == 0 {
		return nil, ferrors.NewWeatherUnavailableError("hourly temperature data is missing", nil)
	}
	if len(times) != len(temps) {
		return nil, ferrors.NewWeatherUnavailableError(
			fmt.Sprintf("hourly data mismatch: %d times, %d temperatures", len(times), len(temps)), nil)
	}

	samples := make([]Sample, len(times))
	for i := range times {
		samples[i] = Sample{Time: times[i], Temperature: temps[i]}
	}
	return samples, nil
}
