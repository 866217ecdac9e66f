package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-daymatch/internal/weather"
)

const (
	// DefaultArchiveURL is the Open-Meteo historical weather endpoint.
	DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
	// DefaultForecastURL is the Open-Meteo forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	hourlyVariable = "temperature_2m"
)

// OpenMeteoConfig configures the Open-Meteo provider.
type OpenMeteoConfig struct {
	ArchiveURL  string
	ForecastURL string
	Backoff     BackoffConfig
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// Archive and forecast calls go through separate circuit breakers.
type OpenMeteoProvider struct {
	name        string
	archiveURL  string
	forecastURL string
	httpCfg     HTTPClientConfig
	archiveCB   *gobreaker.CircuitBreaker
	forecastCB  *gobreaker.CircuitBreaker
	logger      *slog.Logger
}

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig, logger *slog.Logger) *OpenMeteoProvider {
	if cfg.ArchiveURL == "" {
		cfg.ArchiveURL = DefaultArchiveURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenMeteoProvider{
		name:        "openmeteo",
		archiveURL:  cfg.ArchiveURL,
		forecastURL: cfg.ForecastURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: cfg.Backoff,
		},
		archiveCB:  newCircuitBreaker("openmeteo-archive"),
		forecastCB: newCircuitBreaker("openmeteo-forecast"),
		logger:     logger,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// hourlyPayload is the subset of the Open-Meteo response we consume.
// Temperatures are pointers because missing values arrive as null.
type hourlyPayload struct {
	Hourly *struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// FetchHourly retrieves hourly temperatures for req and splits them into day buckets.
func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, loc weather.Location, req weather.FetchRequest) ([]weather.DayBucket, error) {
	endpoint, cb, err := p.route(req.Mode)
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("hourly", hourlyVariable)
		if loc.Timezone != "" {
			values.Set("timezone", loc.Timezone)
		}

		switch req.Mode {
		case weather.ModeArchive:
			values.Set("start_date", req.Start.Format(weather.DateLayout))
			values.Set("end_date", req.End.Format(weather.DateLayout))
		case weather.ModeForecast:
			values.Set("forecast_days", "1")
		}

		u := fmt.Sprintf("%s?%s", endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	started := time.Now()
	resp, err := doRequestWithResilience(ctx, p.httpCfg, cb, buildRequest)
	if err != nil {
		return nil, p.fetchError(req.Mode, err)
	}
	defer resp.Body.Close()

	var payload hourlyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &weather.ParseError{Provider: p.name, Detail: "decode body", Err: err}
	}
	if payload.Hourly == nil {
		return nil, &weather.ParseError{Provider: p.name, Detail: "missing hourly object"}
	}
	if len(payload.Hourly.Time) != len(payload.Hourly.Temperature) {
		return nil, &weather.ParseError{
			Provider: p.name,
			Detail: fmt.Sprintf("hourly.time has %d entries but hourly.%s has %d",
				len(payload.Hourly.Time), hourlyVariable, len(payload.Hourly.Temperature)),
		}
	}

	series := weather.HourlySeries{
		Times:        make([]string, 0, len(payload.Hourly.Time)),
		Temperatures: make([]float64, 0, len(payload.Hourly.Time)),
	}
	missing := 0
	for i, ts := range payload.Hourly.Time {
		t := payload.Hourly.Temperature[i]
		if t == nil {
			missing++
			continue
		}
		series.Times = append(series.Times, ts)
		series.Temperatures = append(series.Temperatures, *t)
	}

	buckets, err := weather.SplitByDay(series)
	if err != nil {
		var pe *weather.ParseError
		if errors.As(err, &pe) {
			pe.Provider = p.name
		}
		return nil, err
	}

	p.logger.Debug("fetched hourly temperatures",
		"provider", p.name,
		"mode", req.Mode,
		"samples", len(series.Times),
		"missing", missing,
		"days", len(buckets),
		"elapsed", time.Since(started))

	return buckets, nil
}

func (p *OpenMeteoProvider) route(mode weather.Mode) (string, *gobreaker.CircuitBreaker, error) {
	switch mode {
	case weather.ModeArchive:
		return p.archiveURL, p.archiveCB, nil
	case weather.ModeForecast:
		return p.forecastURL, p.forecastCB, nil
	default:
		return "", nil, fmt.Errorf("openmeteo: unsupported mode %q", mode)
	}
}

func (p *OpenMeteoProvider) fetchError(mode weather.Mode, err error) error {
	fe := &weather.FetchError{Provider: p.name, Mode: mode, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		fe.StatusCode = se.code
		fe.Reason = se.reason
		fe.Err = se.kind
	}
	return fe
}
