package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultMODISURL = "https://firms.modaps.eosdis.nasa.gov/data/active_fire/modis-c6.1/csv/MODIS_C6_1_Global_24h.csv"
	defaultVIIRSURL = "https://firms.modaps.eosdis.nasa.gov/data/active_fire/viirs-i/csv/VNP14IMGTDL_NRT_Global_24h.csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	MODISURL        string
	VIIRSURL        string
	Mirrors         []string
	FetchTimeout    time.Duration
	Region          string
	RefreshInterval time.Duration
	SnapshotPath    string

	// SpreadSeed is nil when the spread estimator should use the unseeded generator.
	SpreadSeed *uint64

	HTTPAddr           string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Open-Meteo wind enrichment configuration.
	WindEnabled   bool
	WindBaseURL   string
	WindTimeout   time.Duration
	WindCacheSize int
	WindRateLimit float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "15m"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL: must be a non-negative duration")
	}

	spreadSeed, err := parseSeed()
	if err != nil {
		return nil, err
	}

	windTimeout, err := parsePositiveDuration("WIND_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	windRateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("WIND_RATE_LIMIT", "10"), 64)
	if err != nil || windRateLimit <= 0 {
		return nil, errors.New("invalid WIND_RATE_LIMIT: must be a positive number")
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED")
	if err != nil {
		return nil, err
	}
	windEnabled, err := parseBool("WIND_ENABLED")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MODISURL:        sharedcfg.EnvOrDefault("FIRMS_MODIS_URL", defaultMODISURL),
		VIIRSURL:        sharedcfg.EnvOrDefault("FIRMS_VIIRS_URL", defaultVIIRSURL),
		Mirrors:         sharedcfg.ParseBrokers(os.Getenv("FIRMS_MIRRORS")),
		FetchTimeout:    fetchTimeout,
		Region:          strings.ToLower(sharedcfg.EnvOrDefault("REGION", "california")),
		RefreshInterval: refreshInterval,
		SnapshotPath:    envOrDefaultAllowEmpty("SNAPSHOT_PATH", "data/wildfires.geojson"),
		SpreadSeed:      spreadSeed,

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:8000,http://localhost:5173")),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "wildfire-detections"),

		WindEnabled:   windEnabled,
		WindBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("WIND_BASE_URL", "https://api.open-meteo.com"), "/"),
		WindTimeout:   windTimeout,
		WindCacheSize: parseWindCacheSize(),
		WindRateLimit: windRateLimit,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}

func parseSeed() (*uint64, error) {
	s := os.Getenv("SPREAD_SEED")
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, errors.New("invalid SPREAD_SEED: must be an unsigned integer")
	}
	return &n, nil
}

// envOrDefaultAllowEmpty distinguishes an explicitly empty variable from an
// unset one.
func envOrDefaultAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseWindCacheSize() int {
	if s := os.Getenv("WIND_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
