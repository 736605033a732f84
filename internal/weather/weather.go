// Package weather fetches daily forecasts from Open-Meteo for the configured
// venue area.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dukerupert/invibe/internal/model"
)

const (
	cacheTTL       = 30 * time.Minute
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	// Open-Meteo publishes daily forecasts this many days ahead.
	forecastDays = 16
	isoDate      = "2006-01-02"
)

var (
	ErrNotConfigured = errors.New("weather location not configured")
	ErrOutOfRange    = errors.New("date outside forecast range")
)

// Config holds the forecast location and unit.
type Config struct {
	Latitude        string
	Longitude       string
	TemperatureUnit string // "fahrenheit" or "celsius"
	BaseURL         string
	Timeout         time.Duration
}

type cached struct {
	weather   model.Weather
	fetchedAt time.Time
}

// Service fetches and caches one forecast per event date.
type Service struct {
	config Config
	client *http.Client
	unit   string
	now    func() time.Time
	mu     sync.Mutex
	byDate map[string]cached
}

func NewService(cfg Config) *Service {
	if cfg.TemperatureUnit == "" {
		cfg.TemperatureUnit = "fahrenheit"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	unit := "F"
	if cfg.TemperatureUnit == "celsius" {
		unit = "C"
	}
	return &Service{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		unit:   unit,
		now:    time.Now,
		byDate: make(map[string]cached),
	}
}

func (s *Service) Configured() bool {
	return s.config.Latitude != "" && s.config.Longitude != ""
}

// Forecast returns the daily forecast for an ISO date. Dates in the past or
// beyond the forecast horizon return ErrOutOfRange without a request.
func (s *Service) Forecast(ctx context.Context, date string) (model.Weather, error) {
	if !s.Configured() {
		return model.Weather{}, ErrNotConfigured
	}
	day, err := time.Parse(isoDate, date)
	if err != nil {
		return model.Weather{}, fmt.Errorf("forecast date %q: %w", date, err)
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) || !day.Before(today.AddDate(0, 0, forecastDays)) {
		return model.Weather{}, fmt.Errorf("%s: %w", date, ErrOutOfRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.byDate[date]; ok && now.Sub(c.fetchedAt) < cacheTTL {
		return c.weather, nil
	}

	w, err := s.fetch(ctx, date)
	if err != nil {
		// A stale forecast beats none.
		if c, ok := s.byDate[date]; ok {
			return c.weather, nil
		}
		return model.Weather{}, err
	}
	s.byDate[date] = cached{weather: w, fetchedAt: now}
	s.evict(now)
	return w, nil
}

func (s *Service) evict(now time.Time) {
	for date, c := range s.byDate {
		if now.Sub(c.fetchedAt) >= cacheTTL {
			delete(s.byDate, date)
		}
	}
}

type apiResponse struct {
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

func (s *Service) fetch(ctx context.Context, date string) (model.Weather, error) {
	q := url.Values{}
	q.Set("latitude", s.config.Latitude)
	q.Set("longitude", s.config.Longitude)
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code")
	q.Set("timezone", "auto")
	q.Set("start_date", date)
	q.Set("end_date", date)
	q.Set("temperature_unit", s.config.TemperatureUnit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return model.Weather{}, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Weather{}, fmt.Errorf("weather API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Weather{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Weather{}, fmt.Errorf("decode weather response: %w", err)
	}
	return s.toWeather(body)
}

func (s *Service) toWeather(body apiResponse) (model.Weather, error) {
	d := body.Daily
	if len(d.TempMax) == 0 || len(d.TempMin) == 0 || len(d.WeatherCode) == 0 {
		return model.Weather{}, errors.New("weather response has no daily values")
	}
	c := Condition(d.WeatherCode[0])
	return model.Weather{
		Temp:      fmt.Sprintf("%d°%s", int(math.Round(d.TempMax[0])), s.unit),
		Condition: c.Desc,
		Icon:      c.Icon,
		High:      d.TempMax[0],
		Low:       d.TempMin[0],
		Forecast:  true,
	}, nil
}
