package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

// Record store drivers.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverMemory    = "memory"
)

// Flow session backends.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr" validate:"required"`
	MaxUploadBytes  int64         `yaml:"maxUploadBytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
	ReadTimeout     time.Duration `yaml:"readTimeout" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" validate:"min=0"`
	// JWTSecret enables bearer verification when non-empty.
	JWTSecret string `yaml:"jwtSecret"`
}

// RecordStore selects and configures the registration backend.
type RecordStore struct {
	Driver      string        `yaml:"driver" validate:"oneof=postgrest postgres sqlite memory"`
	URL         string        `yaml:"url"`
	Key         string        `yaml:"key"`
	DatabaseURL string        `yaml:"databaseUrl"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Extraction configures the vision model client.
type Extraction struct {
	APIKey       string        `yaml:"apiKey"`
	BaseURL      string        `yaml:"baseUrl" validate:"required"`
	Model        string        `yaml:"model" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxDimension int           `yaml:"maxDimension" validate:"min=0"`
}

// Geocode configures the geocoding client.
type Geocode struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl" validate:"required"`
	Host    string        `yaml:"host" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Analytics bounds the record window fed to the aggregator.
type Analytics struct {
	Window    time.Duration `yaml:"window" validate:"gt=0"`
	MaxRows   int           `yaml:"maxRows" validate:"min=1"`
	Timezone  string        `yaml:"timezone" validate:"required"`
	RecentMax int           `yaml:"recentMax" validate:"min=1"`
}

// Flow configures capture sessions.
type Flow struct {
	Sessions   string        `yaml:"sessions" validate:"oneof=memory redis"`
	SessionTTL time.Duration `yaml:"sessionTtl" validate:"gt=0"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"poolSize" validate:"min=0"`
	MinIdleConns int           `yaml:"minIdleConns" validate:"min=0"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// Config is the full process configuration.
type Config struct {
	Server      Server      `yaml:"server"`
	LogLevel    string      `yaml:"logLevel" validate:"oneof=debug info warn error"`
	RecordStore RecordStore `yaml:"recordStore"`
	Extraction  Extraction  `yaml:"extraction"`
	Geocode     Geocode     `yaml:"geocode"`
	Analytics   Analytics   `yaml:"analytics"`
	Flow        Flow        `yaml:"flow"`
	Redis       RedisConfig `yaml:"redis"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 15 * time.Second,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    90 * time.Second,
		},
		LogLevel: "info",
		RecordStore: RecordStore{
			Driver:  DriverPostgREST,
			URL:     "https://uptpvmxwjuebttlwpbkz.supabase.co",
			Timeout: 15 * time.Second,
		},
		Extraction: Extraction{
			BaseURL:      "https://generativelanguage.googleapis.com",
			Model:        "gemini-2.0-flash",
			Timeout:      60 * time.Second,
			MaxDimension: 2048,
		},
		Geocode: Geocode{
			BaseURL: "https://google-map-places.p.rapidapi.com",
			Host:    "google-map-places.p.rapidapi.com",
			Timeout: 10 * time.Second,
		},
		Analytics: Analytics{
			Window:    365 * 24 * time.Hour,
			MaxRows:   1000,
			Timezone:  "Local",
			RecentMax: 100,
		},
		Flow: Flow{
			Sessions:   SessionsMemory,
			SessionTTL: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Load reads the optional YAML file at path over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	setString("ACCUEIL_ADDR", &cfg.Server.Addr)
	setString("API_JWT_SECRET", &cfg.Server.JWTSecret)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("GOOGLE_API_KEY", &cfg.Extraction.APIKey)
	setString("GEMINI_MODEL", &cfg.Extraction.Model)
	setString("RECORD_STORE_KEY", &cfg.RecordStore.Key)
	setString("RECORD_STORE_URL", &cfg.RecordStore.URL)
	setString("RECORD_STORE_DRIVER", &cfg.RecordStore.Driver)
	setString("DATABASE_URL", &cfg.RecordStore.DatabaseURL)
	setString("RAPID_API_KEY", &cfg.Geocode.APIKey)
	setString("TIMEZONE", &cfg.Analytics.Timezone)
	setString("FLOW_SESSIONS", &cfg.Flow.Sessions)
	setString("REDIS_URL", &cfg.Redis.URL)

	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		cfg.Server.MaxUploadBytes = n
	}
	return nil
}

// Validate checks field constraints and the secrets each enabled
// component needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	var errs []error
	switch c.RecordStore.Driver {
	case DriverPostgREST:
		if c.RecordStore.URL == "" {
			errs = append(errs, errors.New("recordStore.url is required for the postgrest driver"))
		}
		if c.RecordStore.Key == "" {
			errs = append(errs, errors.New("RECORD_STORE_KEY is required for the postgrest driver"))
		}
	case DriverPostgres, DriverSQLite:
		if c.RecordStore.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the %s driver", c.RecordStore.Driver))
		}
	}
	if c.Flow.Sessions == SessionsRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required for redis flow sessions"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves the analytics timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Analytics.Timezone, err)
	}
	return loc, nil
}

// ExtractionEnabled reports whether the vision model key is configured.
func (c *Config) ExtractionEnabled() bool { return c.Extraction.APIKey != "" }

// GeocodeEnabled reports whether the geocoding key is configured.
func (c *Config) GeocodeEnabled() bool { return c.Geocode.APIKey != "" }
