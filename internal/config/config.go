// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/invibe/internal/imagestore"
	"github.com/dukerupert/invibe/internal/weather"
	"github.com/joho/godotenv"
)

const prefix = "INVIBE_"

const (
	GeneratorSimulated = "simulated"
	GeneratorHTTP      = "http"
)

type Config struct {
	Env       string
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// Secret signs the signed-in marker; SecretSalt feeds key derivation.
	Secret     string
	SecretSalt string

	AuthURL     string
	AuthTimeout time.Duration

	Generator         string
	GeneratorURL      string
	GeneratorDelay    time.Duration
	GenerationTimeout time.Duration

	MaxUploadBytes  int64
	SessionTTL      time.Duration
	SecureCookies   bool
	CleanupSchedule string
	// PublicURL is the origin used in invitation links.
	PublicURL string

	LoginRateLimit    int
	GenerateRateLimit int

	S3 imagestore.Config

	Weather weather.Config
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := Config{
		Env:             str("ENV", "dev"),
		Port:            str("PORT", "8080"),
		DBPath:          str("DB_PATH", "invibe.db"),
		LogLevel:        str("LOG_LEVEL", "info"),
		LogFormat:       str("LOG_FORMAT", "text"),
		Secret:          str("SECRET", ""),
		SecretSalt:      str("SECRET_SALT", "invibe-marker"),
		AuthURL:         str("AUTH_URL", ""),
		Generator:       str("GENERATOR", GeneratorSimulated),
		GeneratorURL:    str("GENERATOR_URL", ""),
		CleanupSchedule: str("CLEANUP_SCHEDULE", "@every 1h"),
		PublicURL:       str("PUBLIC_URL", ""),
		S3: imagestore.Config{
			Endpoint:  str("S3_ENDPOINT", ""),
			Bucket:    str("S3_BUCKET", ""),
			Region:    str("S3_REGION", "us-east-1"),
			AccessKey: str("S3_ACCESS_KEY", ""),
			SecretKey: str("S3_SECRET_KEY", ""),
			PublicURL: str("S3_PUBLIC_URL", ""),
		},
		Weather: weather.Config{
			Latitude:        str("WEATHER_LAT", ""),
			Longitude:       str("WEATHER_LON", ""),
			TemperatureUnit: str("WEATHER_UNIT", "fahrenheit"),
			BaseURL:         str("WEATHER_URL", ""),
		},
	}
	cfg.AuthTimeout = duration("AUTH_TIMEOUT", 10*time.Second, &errs)
	cfg.GeneratorDelay = duration("GENERATOR_DELAY", 1500*time.Millisecond, &errs)
	cfg.GenerationTimeout = duration("GENERATION_TIMEOUT", 10*time.Second, &errs)
	cfg.SessionTTL = duration("SESSION_TTL", 7*24*time.Hour, &errs)
	cfg.MaxUploadBytes = int64(integer("MAX_UPLOAD_BYTES", 5<<20, &errs))
	cfg.LoginRateLimit = integer("LOGIN_RATE_LIMIT", 10, &errs)
	cfg.GenerateRateLimit = integer("GENERATE_RATE_LIMIT", 20, &errs)
	cfg.SecureCookies = boolean("SECURE_COOKIES", false, &errs)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	var errs []error
	switch c.Generator {
	case GeneratorSimulated:
	case GeneratorHTTP:
		if c.GeneratorURL == "" {
			errs = append(errs, fmt.Errorf("%sGENERATOR_URL is required when %sGENERATOR=http", prefix, prefix))
		}
	default:
		errs = append(errs, fmt.Errorf("%sGENERATOR must be %q or %q, got %q", prefix, GeneratorSimulated, GeneratorHTTP, c.Generator))
	}
	if c.Secret == "" && !c.IsDev() {
		errs = append(errs, fmt.Errorf("%sSECRET is required outside dev", prefix))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("%sMAX_UPLOAD_BYTES must be positive", prefix))
	}
	if u := c.Weather.TemperatureUnit; u != "" && u != "fahrenheit" && u != "celsius" {
		errs = append(errs, fmt.Errorf("%sWEATHER_UNIT must be fahrenheit or celsius, got %q", prefix, u))
	}
	if (c.Weather.Latitude == "") != (c.Weather.Longitude == "") {
		errs = append(errs, fmt.Errorf("%sWEATHER_LAT and %sWEATHER_LON must be set together", prefix, prefix))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%sSESSION_TTL must be positive", prefix))
	}
	return errors.Join(errs...)
}

func str(key, def string) string {
	if v, ok := os.LookupEnv(prefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", prefix, key, err))
		return def
	}
	return d
}

func integer(key string, def int, errs *[]error) int {
	v := str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", prefix, key, err))
		return def
	}
	return n
}

func boolean(key string, def bool, errs *[]error) bool {
	v := str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", prefix, key, err))
		return def
	}
	return b
}
