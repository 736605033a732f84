package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const dailyBody = `{"daily":{"time":["2024-06-15"],"temperature_2m_max":[81.6],"temperature_2m_min":[62.1],"weather_code":[2]}}`

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	svc := NewService(Config{Latitude: "47.6", Longitude: "-122.3", BaseURL: server.URL})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, &calls
}

func TestCondition(t *testing.T) {
	tests := []struct {
		code     int
		wantDesc string
	}{
		{0, "Clear sky"},
		{2, "Partly cloudy"},
		{45, "Fog"},
		{63, "Rain"},
		{75, "Heavy snow"},
		{95, "Thunderstorm"},
		{99, "Thunderstorm with hail"},
		{12, "Unknown"},
	}
	for _, tt := range tests {
		c := Condition(tt.code)
		if c.Desc != tt.wantDesc {
			t.Errorf("Condition(%d).Desc = %q, want %q", tt.code, c.Desc, tt.wantDesc)
		}
		if c.Icon == "" {
			t.Errorf("Condition(%d).Icon is empty", tt.code)
		}
	}
}

func TestForecastRequestsEventDate(t *testing.T) {
	want := map[string]string{
		"latitude":         "47.6",
		"longitude":        "-122.3",
		"start_date":       "2024-06-15",
		"end_date":         "2024-06-15",
		"temperature_unit": "fahrenheit",
	}
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q, want %q", k, got, v)
			}
		}
		w.Write([]byte(dailyBody))
	})

	w, err := svc.Forecast(context.Background(), "2024-06-15")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if w.Temp != "82°F" {
		t.Errorf("temp = %q, want 82°F", w.Temp)
	}
	if w.Condition != "Partly cloudy" {
		t.Errorf("condition = %q", w.Condition)
	}
	if w.High != 81.6 || w.Low != 62.1 {
		t.Errorf("high/low = %v/%v", w.High, w.Low)
	}
	if !w.Forecast {
		t.Error("expected a real forecast")
	}
}

func TestForecastCelsius(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("temperature_unit"); got != "celsius" {
			t.Errorf("temperature_unit = %q", got)
		}
		w.Write([]byte(`{"daily":{"temperature_2m_max":[27.4],"temperature_2m_min":[16.0],"weather_code":[0]}}`))
	})
	svc.config.TemperatureUnit = "celsius"
	svc.unit = "C"

	w, err := svc.Forecast(context.Background(), "2024-06-15")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if w.Temp != "27°C" {
		t.Errorf("temp = %q, want 27°C", w.Temp)
	}
}

func TestForecastCachesPerDate(t *testing.T) {
	svc, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dailyBody))
	})
	ctx := context.Background()

	for range 3 {
		if _, err := svc.Forecast(ctx, "2024-06-15"); err != nil {
			t.Fatalf("Forecast: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	if _, err := svc.Forecast(ctx, "2024-06-16"); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 after a new date", calls.Load())
	}
}

func TestForecastServesStaleOnError(t *testing.T) {
	var fail atomic.Bool
	svc, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(dailyBody))
	})
	ctx := context.Background()

	if _, err := svc.Forecast(ctx, "2024-06-15"); err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	fail.Store(true)
	svc.mu.Lock()
	c := svc.byDate["2024-06-15"]
	c.fetchedAt = c.fetchedAt.Add(-cacheTTL - time.Minute)
	svc.byDate["2024-06-15"] = c
	svc.mu.Unlock()

	w, err := svc.Forecast(ctx, "2024-06-15")
	if err != nil {
		t.Fatalf("Forecast with stale cache: %v", err)
	}
	if w.Temp != "82°F" {
		t.Errorf("stale temp = %q, want 82°F", w.Temp)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestForecastUpstreamError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := svc.Forecast(context.Background(), "2024-06-15"); err == nil {
		t.Error("expected error for upstream failure")
	}
}

func TestForecastEmptyDaily(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{}}`))
	})

	if _, err := svc.Forecast(context.Background(), "2024-06-15"); err == nil {
		t.Error("expected error for empty daily values")
	}
}

func TestForecastOutOfRange(t *testing.T) {
	svc, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dailyBody))
	})

	for _, date := range []string{"2024-05-31", "2024-06-17", "2025-01-01"} {
		_, err := svc.Forecast(context.Background(), date)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Forecast(%s) err = %v, want ErrOutOfRange", date, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}

	if _, err := svc.Forecast(context.Background(), "2024-06-01"); err != nil {
		t.Errorf("today should be in range: %v", err)
	}
}

func TestForecastBadDate(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := svc.Forecast(context.Background(), "June 15"); err == nil {
		t.Error("expected error for a non-ISO date")
	}
}

func TestServiceNotConfigured(t *testing.T) {
	svc := NewService(Config{})

	if svc.Configured() {
		t.Error("expected weather to not be configured with empty config")
	}
	if _, err := svc.Forecast(context.Background(), "2024-06-15"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
