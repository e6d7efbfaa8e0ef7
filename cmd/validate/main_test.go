package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSnapshot() domain.Snapshot {
	at := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	dets := []domain.Detection{
		{ID: "a", Position: domain.Position{Lon: -119.5, Lat: 36.8}, Brightness: 330, AcquiredAt: at,
			Confidence: domain.NewConfidence("h"), Sensor: domain.SensorMODIS, SpreadRadiusKm: 5.5},
		{ID: "b", Position: domain.Position{Lon: -122.0, Lat: 40.0}, Brightness: 310, AcquiredAt: at,
			Confidence: domain.NewConfidence("l"), Sensor: domain.SensorVIIRS, SpreadRadiusKm: 2.0},
	}
	return domain.BuildSnapshot(dets, "california", time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC))
}

func failedPhases(snap domain.Snapshot) map[string][]string {
	out := map[string][]string{}
	for _, p := range validate(snap) {
		if !p.passed() {
			out[p.name] = p.errors
		}
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, failedPhases(validSnapshot()))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Snapshot)
		phase  string
	}{
		{"count mismatch", func(s *domain.Snapshot) { s.Metadata.TotalFeatures = 5 }, "Metadata"},
		{"bad generated_at", func(s *domain.Snapshot) { s.Metadata.GeneratedAt = "yesterday" }, "Metadata"},
		{"geometry mismatch", func(s *domain.Snapshot) { s.Features[0].Geometry.Coordinates = []float64{-119.4, 36.8} }, "Geometry"},
		{"radius too large", func(s *domain.Snapshot) { s.Features[0].Properties.SpreadRadiusKm = 15.5 }, "Attributes"},
		{"radius precision", func(s *domain.Snapshot) { s.Features[0].Properties.SpreadRadiusKm = 5.55 }, "Attributes"},
		{"unknown satellite", func(s *domain.Snapshot) { s.Features[1].Properties.Satellite = "GOES" }, "Attributes"},
		{"duplicate id", func(s *domain.Snapshot) { s.Features[1].Properties.ID = "a" }, "Attributes"},
		{"outside region", func(s *domain.Snapshot) { s.Metadata.Region = "australia" }, "Region containment"},
		{"near duplicate", func(s *domain.Snapshot) {
			s.Features[1].Properties.Lat, s.Features[1].Properties.Lon = 36.805, -119.505
			s.Features[1].Geometry.Coordinates = []float64{-119.505, 36.805}
		}, "Deduplication"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(&snap)
			failed := failedPhases(snap)
			assert.Contains(t, failed, tt.phase)
		})
	}
}

func TestRun(t *testing.T) {
	doc, err := domain.MarshalSnapshot(validSnapshot())
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Equal(t, 0, run(doc, &out))
	assert.Contains(t, out.String(), "All validations passed.")

	out.Reset()
	assert.Equal(t, 1, run([]byte(`{"type":"Feature"}`), &out))
	assert.Contains(t, out.String(), "not a GeoJSON FeatureCollection")
}
