package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DefaultSpreadRadiusKm is the placeholder radius carried by a detection
// until the spread estimator has run.
const DefaultSpreadRadiusKm = 5.0

// Sensor identifies the upstream FIRMS feed a detection came from.
type Sensor string

const (
	SensorMODIS Sensor = "MODIS"
	SensorVIIRS Sensor = "VIIRS"
)

// ParseSensor resolves a sensor name case-insensitively.
func ParseSensor(s string) (Sensor, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SensorMODIS):
		return SensorMODIS, true
	case string(SensorVIIRS):
		return SensorVIIRS, true
	default:
		return "", false
	}
}

// Position is a WGS-84 longitude/latitude pair in degrees.
type Position struct {
	Lon float64
	Lat float64
}

// Valid reports whether the position lies within the WGS-84 coordinate ranges.
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Wind holds surface wind conditions at a detection, for display only.
type Wind struct {
	SpeedKph     float64
	DirectionDeg float64
}

// Detection is a single normalized heat-signature record from one sensor pass.
type Detection struct {
	ID             string
	Position       Position
	Brightness     float64
	AcquiredAt     time.Time
	Confidence     Confidence
	Sensor         Sensor
	Platform       string
	SpreadRadiusKm float64
	Wind           *Wind
}

// AcquiredAtString formats the acquisition instant as an ISO-8601 UTC string
// with a literal Z designator.
func (d Detection) AcquiredAtString() string {
	return d.AcquiredAt.UTC().Format(acquiredAtLayout)
}

const acquiredAtLayout = "2006-01-02T15:04:05Z"

// detectionID produces a deterministic ID from the detection's key fields so
// that the same pass observed across cycles keeps the same identity.
func detectionID(sensor Sensor, pos Position, acquiredAt time.Time) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%s", sensor, pos.Lat, pos.Lon, acquiredAt.UTC().Format(acquiredAtLayout))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if sensor == "" {
		return short
	}
	return strings.ToLower(string(sensor)) + "-" + short
}
