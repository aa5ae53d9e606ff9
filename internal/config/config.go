// Package config loads service settings by layering defaults, an optional
// YAML file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tidewatch/currentpoint/internal/domain"
)

// envPrefix namespaces all environment overrides, e.g. CURRENTPOINT_UOM.
const envPrefix = "CURRENTPOINT_"

// Config holds all service settings.
type Config struct {
	// Target point the current vector is resolved for.
	TargetLat float64 `koanf:"target_lat"`
	TargetLon float64 `koanf:"target_lon"`

	// UOM is the upstream velocity unit code: "cms" or "kts".
	UOM string `koanf:"uom"`

	// TierSpec is the escalation ladder as "hours:boxKm" pairs, e.g.
	// "6h:12,12h:24,24h:48". Parsed into Tiers during Load.
	TierSpec string             `koanf:"tiers"`
	Tiers    []domain.QueryTier `koanf:"-"`

	// Upstream HTTP settings.
	BaseURL        string        `koanf:"base_url"`
	HTTPTimeout    time.Duration `koanf:"http_timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// OutputPath is where the JSON artifact is written each run.
	OutputPath string `koanf:"output_path"`

	// RunInterval of 0 means run once and exit (the cron deployment);
	// a positive interval runs the pipeline in an internal loop.
	RunInterval time.Duration `koanf:"run_interval"`

	// Ops HTTP server, only started in interval mode.
	HTTPAddr        string        `koanf:"http_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Optional Kafka publisher: enabled when brokers are configured.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
}

// Target returns the configured target point.
func (c *Config) Target() domain.GeoPoint {
	return domain.GeoPoint{Lat: c.TargetLat, Lon: c.TargetLon}
}

// KafkaEnabled reports whether the optional result publisher is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func defaults() *Config {
	return &Config{
		TargetLat:       37.7477,
		TargetLon:       -122.3020,
		UOM:             "cms",
		TierSpec:        "6h:12,12h:24,24h:48",
		BaseURL:         "https://hfradar.ndbc.noaa.gov/tabdownload.php",
		HTTPTimeout:     60 * time.Second,
		MaxRetries:      5,
		RetryBaseDelay:  6 * time.Second,
		OutputPath:      "data/hf_point.json",
		RunInterval:     0,
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
		KafkaTopic:      "current-point",
	}
}

// Load builds a Config by layering, lowest precedence first: defaults, the
// YAML file named by CURRENTPOINT_CONFIG (if set), then CURRENTPOINT_-prefixed
// environment variables. The result is validated; configuration errors are
// the one fatal path of the job, surfaced before the pipeline starts.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	tiers, err := ParseTierSpec(cfg.TierSpec)
	if err != nil {
		return nil, err
	}
	cfg.Tiers = tiers

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.UOM != "cms" && c.UOM != "kts" {
		return fmt.Errorf("uom must be \"cms\" or \"kts\", got %q", c.UOM)
	}
	if c.TargetLat < -90 || c.TargetLat > 90 {
		return fmt.Errorf("target_lat %v out of range", c.TargetLat)
	}
	if c.TargetLon < -180 || c.TargetLon > 180 {
		return fmt.Errorf("target_lon %v out of range", c.TargetLon)
	}
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.OutputPath == "" {
		return errors.New("output_path is required")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	if c.RetryBaseDelay < 0 {
		return errors.New("retry_base_delay must not be negative")
	}
	if c.RunInterval < 0 {
		return errors.New("run_interval must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("kafka_topic is required when kafka_brokers is set")
	}
	return nil
}

// ParseTierSpec parses an escalation ladder like "6h:12,12h:24". Each entry
// is a whole-hour duration, a colon, and a box half-size in kilometers.
func ParseTierSpec(spec string) ([]domain.QueryTier, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("tiers must not be empty")
	}

	var tiers []domain.QueryTier
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		parts := strings.Split(entry, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("tier %q: want \"hours:boxKm\"", entry)
		}

		window, err := time.ParseDuration(parts[0])
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", entry, err)
		}
		if window <= 0 || window%time.Hour != 0 {
			return nil, fmt.Errorf("tier %q: window must be a positive whole number of hours", entry)
		}

		boxKm, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", entry, err)
		}
		if boxKm <= 0 {
			return nil, fmt.Errorf("tier %q: boxKm must be positive", entry)
		}

		tiers = append(tiers, domain.QueryTier{
			Hours: int(window / time.Hour),
			BoxKm: boxKm,
		})
	}
	return tiers, nil
}
