package providers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-daymatch/internal/weather"
)

var testLocation = weather.Location{Latitude: 60.1905, Longitude: 11.9977, Timezone: "GMT"}

func newTestProvider(t *testing.T, serverURL string, retries int) *OpenMeteoProvider {
	t.Helper()
	return NewOpenMeteoProvider(
		&http.Client{Timeout: 5 * time.Second},
		OpenMeteoConfig{
			ArchiveURL:  serverURL + "/v1/archive",
			ForecastURL: serverURL + "/v1/forecast",
			Backoff: BackoffConfig{
				MaxRetries:      retries,
				InitialInterval: time.Millisecond,
				MaxInterval:     5 * time.Millisecond,
			},
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestFetchHourlyArchiveRequest(t *testing.T) {
	var got url.Values
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hourly":{"time":["2022-01-01T22:00","2022-01-01T23:00","2022-01-02T00:00"],"temperature_2m":[1.5,1.0,0.5]}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 0)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)

	buckets, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{
		Mode:  weather.ModeArchive,
		Start: start,
		End:   end,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/archive", path)
	assert.Equal(t, "60.1905", got.Get("latitude"))
	assert.Equal(t, "11.9977", got.Get("longitude"))
	assert.Equal(t, "temperature_2m", got.Get("hourly"))
	assert.Equal(t, "GMT", got.Get("timezone"))
	assert.Equal(t, "2022-01-01", got.Get("start_date"))
	assert.Equal(t, "2022-01-02", got.Get("end_date"))
	assert.Empty(t, got.Get("forecast_days"))

	require.Len(t, buckets, 2)
	assert.Equal(t, []string{"2022-01-01T22:00", "2022-01-01T23:00"}, buckets[0].Times)
	assert.Equal(t, []float64{1.5, 1.0}, buckets[0].Temperatures)
	assert.Equal(t, []float64{0.5}, buckets[1].Temperatures)
}

func TestFetchHourlyForecastRequest(t *testing.T) {
	var got url.Values
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		w.Write([]byte(`{"hourly":{"time":["2022-01-10T00:00"],"temperature_2m":[-3.2]}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 0)
	buckets, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{
		Mode:  weather.ModeForecast,
		Start: time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2022, 1, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/forecast", path)
	assert.Equal(t, "1", got.Get("forecast_days"))
	assert.Empty(t, got.Get("start_date"))
	assert.Empty(t, got.Get("end_date"))
	require.Len(t, buckets, 1)
	assert.Equal(t, []float64{-3.2}, buckets[0].Temperatures)
}

func TestFetchHourlyDropsNullTemperatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"time":["2022-01-01T00:00","2022-01-01T01:00","2022-01-01T02:00"],"temperature_2m":[1.0,null,3.0]}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 0)
	buckets, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: weather.ModeArchive})
	require.NoError(t, err)

	require.Len(t, buckets, 1)
	assert.Equal(t, []string{"2022-01-01T00:00", "2022-01-01T02:00"}, buckets[0].Times)
	assert.Equal(t, []float64{1.0, 3.0}, buckets[0].Temperatures)
}

func TestFetchHourlyParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"hourly":`},
		{"missing hourly", `{"latitude":60.2}`},
		{"length mismatch", `{"hourly":{"time":["2022-01-01T00:00"],"temperature_2m":[1.0,2.0]}}`},
		{"short timestamp", `{"hourly":{"time":["2022"],"temperature_2m":[1.0]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newTestProvider(t, server.URL, 0)
			_, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: weather.ModeForecast})
			require.Error(t, err)
			assert.ErrorIs(t, err, weather.ErrParse)
			assert.NotErrorIs(t, err, weather.ErrFetch)
		})
	}
}

func TestFetchHourlyBadRequestCarriesReason(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":true,"reason":"Parameter 'start_date' is out of allowed range"}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 3)
	_, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: weather.ModeArchive})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrFetch)

	var fe *weather.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadRequest, fe.StatusCode)
	assert.Equal(t, "Parameter 'start_date' is out of allowed range", fe.Reason)
	assert.Equal(t, weather.ModeArchive, fe.Mode)
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestFetchHourlyServerErrorWithoutRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 0)
	_, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: weather.ModeForecast})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrFetch)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchHourlyRetriesServerErrorsWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"hourly":{"time":["2022-01-10T00:00"],"temperature_2m":[2.0]}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 3)
	buckets, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: weather.ModeForecast})
	require.NoError(t, err)
	assert.Len(t, buckets, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchHourlyTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	p := newTestProvider(t, serverURL, 0)
	_, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: weather.ModeForecast})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrFetch)
}

func TestFetchHourlyCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"time":[],"temperature_2m":[]}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestProvider(t, server.URL, 0)
	_, err := p.FetchHourly(ctx, testLocation, weather.FetchRequest{Mode: weather.ModeForecast})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, weather.ErrFetch)
}

func TestFetchHourlyUnsupportedMode(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:0", 0)
	_, err := p.FetchHourly(context.Background(), testLocation, weather.FetchRequest{Mode: "nowcast"})
	assert.Error(t, err)
}

func TestDoRequestWithResilienceConfig(t *testing.T) {
	cb := newCircuitBreaker("test")
	build := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, "http://127.0.0.1:0", nil)
	}

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, cb, build)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = doRequestWithResilience(context.Background(), HTTPClientConfig{
		Client:  http.DefaultClient,
		Backoff: BackoffConfig{MaxRetries: 2},
	}, cb, build)
	assert.ErrorIs(t, err, errInvalidConfig)
}
