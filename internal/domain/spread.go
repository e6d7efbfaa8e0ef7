package domain

import (
	"math"
	"math/rand/v2"
)

const (
	MinSpreadRadiusKm = 1.0
	MaxSpreadRadiusKm = 15.0

	baseSpreadRadiusKm = 3.0
)

// RandomSource yields uniformly distributed values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

// NewSeededRandom returns a deterministic RandomSource.
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Estimator assigns a heuristic six-hour spread radius to detections.
type Estimator struct {
	rnd RandomSource
}

// NewEstimator creates an Estimator drawing noise from rnd. A nil rnd uses the
// unseeded process-wide generator.
func NewEstimator(rnd RandomSource) *Estimator {
	if rnd == nil {
		rnd = globalRandom{}
	}
	return &Estimator{rnd: rnd}
}

// Estimate returns a copy of dets with SpreadRadiusKm populated. Cardinality
// and order are unchanged.
func (e *Estimator) Estimate(dets []Detection) []Detection {
	out := make([]Detection, len(dets))
	copy(out, dets)
	for i := range out {
		noise := e.rnd.Float64()*2 - 1
		out[i].SpreadRadiusKm = finalizeRadius(BaseRadius(out[i]) + noise)
	}
	return out
}

// BaseRadius is the deterministic part of the estimate, before noise and
// clamping:
//   - 3 km base
//   - +3 km above 350 K brightness, +1.5 km above 320 K
//   - +1 km for high confidence, -1 km for low
func BaseRadius(d Detection) float64 {
	r := baseSpreadRadiusKm
	switch {
	case d.Brightness > 350:
		r += 3.0
	case d.Brightness > 320:
		r += 1.5
	}
	switch d.Confidence.Level {
	case ConfidenceHigh:
		r += 1.0
	case ConfidenceLow:
		r -= 1.0
	}
	return r
}

func finalizeRadius(r float64) float64 {
	r = math.Max(MinSpreadRadiusKm, math.Min(MaxSpreadRadiusKm, r))
	return math.Round(r*10) / 10
}
