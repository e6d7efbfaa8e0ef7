package domain

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseStats counts what happened to the data rows of one payload.
type ParseStats struct {
	Rows    int
	Parsed  int
	Skipped int
}

// Parse converts a FIRMS CSV payload into detections, preserving row order.
// Malformed rows are skipped; an unknown sensor or a payload without a header
// yields no detections.
func Parse(raw string, sensor Sensor) []Detection {
	dets, _ := ParseWithStats(raw, sensor)
	return dets
}

// ParseWithStats is Parse with row accounting for metrics.
func ParseWithStats(raw string, sensor Sensor) ([]Detection, ParseStats) {
	var stats ParseStats

	schema, ok := SchemaFor(sensor)
	if !ok {
		return nil, stats
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, stats
	}
	headerLen := len(header)
	minCols := max(headerLen, schema.MinColumns())

	var out []Detection
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			// A quoting error only spoils the current record.
			stats.Skipped++
			continue
		}
		if len(rec) < minCols {
			stats.Skipped++
			continue
		}

		det, ok := parseRow(rec, schema, sensor)
		if !ok {
			stats.Skipped++
			continue
		}
		out = append(out, det)
		stats.Parsed++
	}
	return out, stats
}

func parseRow(rec []string, schema SourceSchema, sensor Sensor) (Detection, bool) {
	lat, ok := parseFinite(rec[schema.Latitude])
	if !ok {
		return Detection{}, false
	}
	lon, ok := parseFinite(rec[schema.Longitude])
	if !ok {
		return Detection{}, false
	}
	brightness, ok := parseFinite(rec[schema.Brightness])
	if !ok {
		return Detection{}, false
	}
	pos := Position{Lon: lon, Lat: lat}
	if !pos.Valid() {
		return Detection{}, false
	}

	acquiredAt, ok := parseAcquisition(rec[schema.Date], rec[schema.Time])
	if !ok {
		return Detection{}, false
	}

	var platform string
	if schema.Platform >= 0 {
		platform = platformName(strings.TrimSpace(rec[schema.Platform]))
	}

	return Detection{
		ID:             detectionID(sensor, pos, acquiredAt),
		Position:       pos,
		Brightness:     brightness,
		AcquiredAt:     acquiredAt,
		Confidence:     NewConfidence(strings.TrimSpace(rec[schema.Confidence])),
		Sensor:         sensor,
		Platform:       platform,
		SpreadRadiusKm: DefaultSpreadRadiusKm,
	}, true
}

// parseFinite parses a float and rejects NaN and infinities, which
// strconv accepts but which can never be valid geometry or brightness.
func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseAcquisition combines a YYYY-MM-DD date with an HHMM time token
// (e.g. "930" → 09:30) into a UTC instant. Both fields are required.
func parseAcquisition(date, hhmm string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	hhmm = strings.TrimSpace(hhmm)
	if date == "" || hhmm == "" || len(hhmm) > 4 {
		return time.Time{}, false
	}
	for _, c := range hhmm {
		if c < '0' || c > '9' {
			return time.Time{}, false
		}
	}

	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, false
	}

	hhmm = strings.Repeat("0", 4-len(hhmm)) + hhmm
	hour, _ := strconv.Atoi(hhmm[:2])
	mins, _ := strconv.Atoi(hhmm[2:])
	if hour > 23 || mins > 59 {
		return time.Time{}, false
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, mins, 0, 0, time.UTC), true
}
