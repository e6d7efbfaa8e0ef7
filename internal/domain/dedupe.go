package domain

import "math"

// DuplicateThresholdDeg is the planar distance, in degrees, below which two
// detections are treated as the same fire. 0.01° is about 1.1 km at the
// equator. It is not corrected for latitude, so the east-west extent shrinks
// toward the poles.
const DuplicateThresholdDeg = 0.01

// Dedupe drops detections that lie within DuplicateThresholdDeg of one already
// kept. The first detection seen wins and no attributes are merged, so the
// concatenation order of sources decides which sensor's record survives.
//
// Each candidate is compared against every kept record, which is quadratic in
// the worst case. FIRMS regional cycles stay in the low thousands.
func Dedupe(dets []Detection) []Detection {
	kept := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if !nearAny(d.Position, kept) {
			kept = append(kept, d)
		}
	}
	return kept
}

func nearAny(p Position, kept []Detection) bool {
	for _, k := range kept {
		if DegreeDistance(p, k.Position) < DuplicateThresholdDeg {
			return true
		}
	}
	return false
}

// DegreeDistance is the Euclidean distance between two positions in degree space.
func DegreeDistance(a, b Position) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
