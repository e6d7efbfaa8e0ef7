package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/couchcryptid/wildfire-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Open-Meteo API host.
const DefaultBaseURL = "https://api.open-meteo.com"

const hourLayout = "2006-01-02T15:04"

// ErrNoWindData is returned when the forecast has no sample for the current hour.
var ErrNoWindData = errors.New("no wind sample for current hour")

// Client implements domain.WindProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the clock used to pick the current forecast hour.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithRateLimit caps outbound requests per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates an Open-Meteo wind client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Inf, 0),
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentWind returns the 10 m wind for the current UTC hour at a coordinate.
func (c *Client) CurrentWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	wind, err := c.currentWind(ctx, lat, lon)
	if err != nil {
		c.metrics.WindRequests.WithLabelValues("error").Inc()
		return domain.Wind{}, err
	}
	c.metrics.WindRequests.WithLabelValues("success").Inc()
	return wind, nil
}

func (c *Client) currentWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Wind{}, fmt.Errorf("wind rate limit: %w", err)
	}

	params := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', 4, 64)},
		"hourly":          {"wind_speed_10m,wind_direction_10m"},
		"wind_speed_unit": {"ms"},
		"timezone":        {"UTC"},
		"forecast_days":   {"1"},
	}
	fullURL := c.baseURL + "/v1/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Wind{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Wind{}, fmt.Errorf("wind request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Wind{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var forecast response
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return domain.Wind{}, fmt.Errorf("decode response: %w", err)
	}

	return forecast.windAt(c.clock.Now().UTC())
}

// Open-Meteo API response types.

type response struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Time          []string   `json:"time"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`     // m/s
	WindDirection []*float64 `json:"wind_direction_10m"` // degrees
}

func (r response) windAt(now time.Time) (domain.Wind, error) {
	want := now.Truncate(time.Hour).Format(hourLayout)
	idx := -1
	for i, ts := range r.Hourly.Time {
		if ts == want {
			idx = i
			break
		}
	}
	// A one-day forecast starts at midnight, so the hour of day indexes it.
	if idx < 0 {
		idx = now.Hour()
	}
	if idx >= len(r.Hourly.WindSpeed) || idx >= len(r.Hourly.WindDirection) {
		return domain.Wind{}, ErrNoWindData
	}
	speed, dir := r.Hourly.WindSpeed[idx], r.Hourly.WindDirection[idx]
	if speed == nil || dir == nil {
		return domain.Wind{}, ErrNoWindData
	}
	return domain.Wind{
		SpeedKph:     math.Round(*speed*3.6*10) / 10,
		DirectionDeg: *dir,
	}, nil
}
