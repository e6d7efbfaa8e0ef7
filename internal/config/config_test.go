package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultMODISURL, cfg.MODISURL)
	assert.Equal(t, defaultVIIRSURL, cfg.VIIRSURL)
	assert.Empty(t, cfg.Mirrors)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "california", cfg.Region)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "data/wildfires.geojson", cfg.SnapshotPath)
	assert.Nil(t, cfg.SpreadSeed)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://localhost:8000", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "wildfire-detections", cfg.KafkaTopic)
	assert.False(t, cfg.WindEnabled)
	assert.Equal(t, "https://api.open-meteo.com", cfg.WindBaseURL)
	assert.Equal(t, 5*time.Second, cfg.WindTimeout)
	assert.Equal(t, 1000, cfg.WindCacheSize)
	assert.InDelta(t, 10.0, cfg.WindRateLimit, 0)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FIRMS_MODIS_URL", "http://firms.test/modis.csv")
	t.Setenv("FIRMS_VIIRS_URL", "http://firms.test/viirs.csv")
	t.Setenv("FIRMS_MIRRORS", "https://proxy-a.test/?url=, https://proxy-b.test/raw?")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("REGION", "Australia")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("SNAPSHOT_PATH", "/var/lib/wildfire/latest.geojson")
	t.Setenv("SPREAD_SEED", "42")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://map.example.org")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "fires")
	t.Setenv("WIND_ENABLED", "true")
	t.Setenv("WIND_BASE_URL", "http://meteo.test/")
	t.Setenv("WIND_TIMEOUT", "2s")
	t.Setenv("WIND_CACHE_SIZE", "50")
	t.Setenv("WIND_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://firms.test/modis.csv", cfg.MODISURL)
	assert.Equal(t, "http://firms.test/viirs.csv", cfg.VIIRSURL)
	assert.Equal(t, []string{"https://proxy-a.test/?url=", "https://proxy-b.test/raw?"}, cfg.Mirrors)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "australia", cfg.Region)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, "/var/lib/wildfire/latest.geojson", cfg.SnapshotPath)
	require.NotNil(t, cfg.SpreadSeed)
	assert.Equal(t, uint64(42), *cfg.SpreadSeed)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"https://map.example.org"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "fires", cfg.KafkaTopic)
	assert.True(t, cfg.WindEnabled)
	assert.Equal(t, "http://meteo.test", cfg.WindBaseURL)
	assert.Equal(t, 2*time.Second, cfg.WindTimeout)
	assert.Equal(t, 50, cfg.WindCacheSize)
	assert.InDelta(t, 2.5, cfg.WindRateLimit, 0)
}

func TestLoad_EmptySnapshotPathMeansInMemory(t *testing.T) {
	t.Setenv("SNAPSHOT_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.SnapshotPath)
}

func TestLoad_RegionNoneDisablesFilter(t *testing.T) {
	t.Setenv("REGION", "none")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Region)
}

func TestLoad_UnknownRegionPassesThrough(t *testing.T) {
	t.Setenv("REGION", "Atlantis")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "atlantis", cfg.Region)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"FETCH_TIMEOUT", "0s"},
		{"FETCH_TIMEOUT", "soon"},
		{"REFRESH_INTERVAL", "-5m"},
		{"SPREAD_SEED", "-3"},
		{"WIND_TIMEOUT", "bad"},
		{"WIND_RATE_LIMIT", "0"},
		{"KAFKA_ENABLED", "maybe"},
		{"WIND_ENABLED", "yes please"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_InvalidWindCacheSizeFallsBack(t *testing.T) {
	t.Setenv("WIND_CACHE_SIZE", "-1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.WindCacheSize)
}
