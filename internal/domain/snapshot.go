package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotSource is the provenance label stamped on every snapshot.
const SnapshotSource = "NASA FIRMS Real-time"

const featureCollectionType = "FeatureCollection"

// Snapshot is the persisted GeoJSON document produced by one pipeline cycle.
type Snapshot struct {
	Type     string           `json:"type"`
	Metadata SnapshotMetadata `json:"metadata"`
	Features []Feature        `json:"features"`
}

// SnapshotMetadata describes when and for which region a snapshot was built.
type SnapshotMetadata struct {
	GeneratedAt   string `json:"generated_at"`
	TotalFeatures int    `json:"total_features"`
	Region        string `json:"region"`
	Source        string `json:"source"`
}

// Feature is a GeoJSON Point feature carrying one detection.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Geometry is a GeoJSON Point; coordinates are [lon, lat].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// FeatureProperties are the detection attributes consumed by the renderer.
type FeatureProperties struct {
	ID             string   `json:"id,omitempty"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	Brightness     float64  `json:"brightness"`
	AcqDatetime    string   `json:"acq_datetime"`
	Confidence     string   `json:"confidence"`
	Satellite      string   `json:"satellite"`
	Platform       string   `json:"platform,omitempty"`
	SpreadRadiusKm float64  `json:"spread_radius_km"`
	WindSpeedKph   *float64 `json:"wind_speed_kph,omitempty"`
	WindDirection  *float64 `json:"wind_direction,omitempty"`
}

// BuildSnapshot bundles detections with generation metadata.
func BuildSnapshot(dets []Detection, region string, generatedAt time.Time) Snapshot {
	features := make([]Feature, 0, len(dets))
	for _, d := range dets {
		features = append(features, NewFeature(d))
	}
	return Snapshot{
		Type: featureCollectionType,
		Metadata: SnapshotMetadata{
			GeneratedAt:   generatedAt.UTC().Format(time.RFC3339),
			TotalFeatures: len(features),
			Region:        region,
			Source:        SnapshotSource,
		},
		Features: features,
	}
}

// NewFeature converts a detection to its GeoJSON form.
func NewFeature(d Detection) Feature {
	props := FeatureProperties{
		ID:             d.ID,
		Lat:            d.Position.Lat,
		Lon:            d.Position.Lon,
		Brightness:     d.Brightness,
		AcqDatetime:    d.AcquiredAtString(),
		Confidence:     d.Confidence.Raw,
		Satellite:      string(d.Sensor),
		Platform:       d.Platform,
		SpreadRadiusKm: d.SpreadRadiusKm,
	}
	if d.Wind != nil {
		speed, dir := d.Wind.SpeedKph, d.Wind.DirectionDeg
		props.WindSpeedKph = &speed
		props.WindDirection = &dir
	}
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{d.Position.Lon, d.Position.Lat},
		},
		Properties: props,
	}
}

// MarshalSnapshot encodes a snapshot for persistence.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted document. It returns false when the
// document is not a FeatureCollection.
func DecodeSnapshot(doc []byte) (Snapshot, bool) {
	if len(doc) == 0 {
		return Snapshot{}, false
	}
	var s Snapshot
	if err := json.Unmarshal(doc, &s); err != nil {
		return Snapshot{}, false
	}
	if s.Type != featureCollectionType {
		return Snapshot{}, false
	}
	return s, true
}

// RestoreDetections reconstitutes detections from a persisted snapshot. A
// missing, corrupt or empty document yields nil, meaning no usable data.
func RestoreDetections(doc []byte) []Detection {
	s, ok := DecodeSnapshot(doc)
	if !ok || len(s.Features) == 0 {
		return nil
	}
	return s.Detections()
}

// Detections converts the snapshot's features back into detections, skipping
// features without valid point geometry.
func (s Snapshot) Detections() []Detection {
	var out []Detection
	for _, f := range s.Features {
		d, ok := f.detection()
		if !ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (f Feature) detection() (Detection, bool) {
	if len(f.Geometry.Coordinates) < 2 {
		return Detection{}, false
	}
	pos := Position{Lon: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}
	if !pos.Valid() {
		return Detection{}, false
	}

	p := f.Properties
	sensor, _ := ParseSensor(p.Satellite)
	acquiredAt, err := time.Parse(time.RFC3339, p.AcqDatetime)
	if err != nil {
		acquiredAt = time.Time{}
	}

	d := Detection{
		ID:             p.ID,
		Position:       pos,
		Brightness:     p.Brightness,
		AcquiredAt:     acquiredAt.UTC(),
		Confidence:     NewConfidence(p.Confidence),
		Sensor:         sensor,
		Platform:       p.Platform,
		SpreadRadiusKm: p.SpreadRadiusKm,
	}
	if d.ID == "" {
		d.ID = detectionID(sensor, pos, d.AcquiredAt)
	}
	// Hand-edited or foreign documents may carry any radius.
	if d.SpreadRadiusKm == 0 {
		d.SpreadRadiusKm = DefaultSpreadRadiusKm
	} else {
		d.SpreadRadiusKm = finalizeRadius(d.SpreadRadiusKm)
	}
	if p.WindSpeedKph != nil {
		d.Wind = &Wind{SpeedKph: *p.WindSpeedKph}
		if p.WindDirection != nil {
			d.Wind.DirectionDeg = *p.WindDirection
		}
	}
	return d, true
}
