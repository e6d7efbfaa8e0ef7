package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeneratedAt = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func sampleDetections(t *testing.T) []Detection {
	t.Helper()
	raw := csvPayload(modisHeader,
		"36.8,-119.5,325.4,1.0,1.0,2024-06-01,1430,T,h,6.1NRT,290.1,12.3,D",
		"34.1,-118.2,355.0,1.0,1.0,2024-06-01,0930,A,l,6.1NRT,290.1,12.3,D",
		"38.0,-121.0,301.0,1.0,1.0,2024-06-01,5,A,55,6.1NRT,290.1,12.3,N",
	)
	dets := Parse(raw, SensorMODIS)
	require.Len(t, dets, 3)
	return NewEstimator(NewSeededRandom(1)).Estimate(dets)
}

func TestBuildSnapshot(t *testing.T) {
	dets := sampleDetections(t)

	snap := BuildSnapshot(dets, "california", testGeneratedAt)

	assert.Equal(t, "FeatureCollection", snap.Type)
	assert.Equal(t, "2024-06-01T15:00:00Z", snap.Metadata.GeneratedAt)
	assert.Equal(t, 3, snap.Metadata.TotalFeatures)
	assert.Equal(t, "california", snap.Metadata.Region)
	assert.Equal(t, SnapshotSource, snap.Metadata.Source)
	require.Len(t, snap.Features, 3)

	f := snap.Features[0]
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{-119.5, 36.8}, f.Geometry.Coordinates)
	assert.Equal(t, 36.8, f.Properties.Lat)
	assert.Equal(t, -119.5, f.Properties.Lon)
	assert.Equal(t, "2024-06-01T14:30:00Z", f.Properties.AcqDatetime)
	assert.Equal(t, "h", f.Properties.Confidence)
	assert.Equal(t, "MODIS", f.Properties.Satellite)
	assert.Equal(t, dets[0].SpreadRadiusKm, f.Properties.SpreadRadiusKm)
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snap := BuildSnapshot(nil, "global", testGeneratedAt)

	data, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "FeatureCollection",
		"metadata": {"generated_at": "2024-06-01T15:00:00Z", "total_features": 0, "region": "global", "source": "NASA FIRMS Real-time"},
		"features": []
	}`, string(data))
}

func TestMarshalSnapshot_WireShape(t *testing.T) {
	d := Detection{
		ID:             "viirs-abc",
		Position:       Position{Lon: 150.2, Lat: -33.5},
		Brightness:     367.1,
		AcquiredAt:     time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC),
		Confidence:     NewConfidence("n"),
		Sensor:         SensorVIIRS,
		SpreadRadiusKm: 6.2,
		Wind:           &Wind{SpeedKph: 18.5, DirectionDeg: 270},
	}

	data, err := MarshalSnapshot(BuildSnapshot([]Detection{d}, "australia", testGeneratedAt))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	features := doc["features"].([]any)
	require.Len(t, features, 1)
	props := features[0].(map[string]any)["properties"].(map[string]any)

	assert.Equal(t, "viirs-abc", props["id"])
	assert.Equal(t, "2024-01-05T09:30:00Z", props["acq_datetime"])
	assert.Equal(t, "VIIRS", props["satellite"])
	assert.Equal(t, 6.2, props["spread_radius_km"])
	assert.Equal(t, 18.5, props["wind_speed_kph"])
	assert.Equal(t, 270.0, props["wind_direction"])
	assert.NotContains(t, props, "platform")
}

func TestRestoreDetections_RoundTrip(t *testing.T) {
	dets := sampleDetections(t)

	data, err := MarshalSnapshot(BuildSnapshot(dets, "california", testGeneratedAt))
	require.NoError(t, err)
	restored := RestoreDetections(data)

	require.Len(t, restored, len(dets))

	type essentials struct {
		Position   Position
		Brightness float64
		Confidence Confidence
	}
	for i := range dets {
		want := essentials{dets[i].Position, dets[i].Brightness, dets[i].Confidence}
		got := essentials{restored[i].Position, restored[i].Brightness, restored[i].Confidence}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("detection %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	assert.Equal(t, dets[0].ID, restored[0].ID)
	assert.Equal(t, dets[0].AcquiredAt, restored[0].AcquiredAt)
	assert.Equal(t, SensorMODIS, restored[0].Sensor)
	assert.Equal(t, dets[1].SpreadRadiusKm, restored[1].SpreadRadiusKm)
}

func TestRestoreDetections_NoUsableData(t *testing.T) {
	tests := map[string]string{
		"empty":            ``,
		"not json":         `{not json`,
		"wrong type":       `{"type":"Feature","features":[]}`,
		"missing features": `{"type":"FeatureCollection","metadata":{}}`,
		"empty features":   `{"type":"FeatureCollection","features":[]}`,
		"null features":    `{"type":"FeatureCollection","features":null}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, RestoreDetections([]byte(doc)))
		})
	}
}

func TestRestoreDetections_SkipsBadGeometry(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[200,10]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[-120,36]},"properties":{"brightness":330,"confidence":"h","satellite":"VIIRS","acq_datetime":"2024-06-01T14:30:00Z"}}
	]}`

	dets := RestoreDetections([]byte(doc))

	require.Len(t, dets, 1)
	assert.Equal(t, Position{Lon: -120, Lat: 36}, dets[0].Position)
	assert.Equal(t, ConfidenceHigh, dets[0].Confidence.Level)
	assert.Equal(t, SensorVIIRS, dets[0].Sensor)
	assert.Equal(t, DefaultSpreadRadiusKm, dets[0].SpreadRadiusKm)
	assert.NotEmpty(t, dets[0].ID)
}

func TestRestoreDetections_ClampsRadius(t *testing.T) {
	tests := []struct {
		stored string
		want   float64
	}{
		{`42`, MaxSpreadRadiusKm},
		{`0.3`, MinSpreadRadiusKm},
		{`-2`, MinSpreadRadiusKm},
		{`6.46`, 6.5},
		{`4.2`, 4.2},
	}
	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			doc := `{"type":"FeatureCollection","features":[{"type":"Feature",` +
				`"geometry":{"type":"Point","coordinates":[-120,36]},` +
				`"properties":{"satellite":"MODIS","spread_radius_km":` + tt.stored + `}}]}`

			dets := RestoreDetections([]byte(doc))

			require.Len(t, dets, 1)
			assert.InDelta(t, tt.want, dets[0].SpreadRadiusKm, 1e-9)
		})
	}
}
