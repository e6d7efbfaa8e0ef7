package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRandom returns the same draw every time.
type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func detWith(brightness float64, confidence string) Detection {
	return Detection{Brightness: brightness, Confidence: NewConfidence(confidence), SpreadRadiusKm: DefaultSpreadRadiusKm}
}

func TestBaseRadius(t *testing.T) {
	tests := []struct {
		name       string
		brightness float64
		confidence string
		want       float64
	}{
		{"cool nominal", 300, "n", 3.0},
		{"warm nominal", 325, "n", 4.5},
		{"hot nominal", 360, "n", 6.0},
		{"exactly 350 is warm", 350, "nominal", 4.5},
		{"exactly 320 is cool", 320, "nominal", 3.0},
		{"hot high", 360, "h", 7.0},
		{"hot high word", 360, "high", 7.0},
		{"cool low", 300, "l", 2.0},
		{"cool low word", 300, "low", 2.0},
		{"numeric confidence", 300, "90", 3.0},
		{"uppercase is not a marker", 300, "H", 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BaseRadius(detWith(tt.brightness, tt.confidence)), 1e-9)
		})
	}
}

func TestEstimator_Estimate(t *testing.T) {
	t.Run("midpoint draw adds no noise", func(t *testing.T) {
		e := NewEstimator(fixedRandom(0.5))
		out := e.Estimate([]Detection{detWith(360, "h"), detWith(300, "l")})
		require.Len(t, out, 2)
		assert.Equal(t, 7.0, out[0].SpreadRadiusKm)
		assert.Equal(t, 2.0, out[1].SpreadRadiusKm)
	})

	t.Run("extreme draws shift by one kilometre", func(t *testing.T) {
		low := NewEstimator(fixedRandom(0)).Estimate([]Detection{detWith(325, "n")})
		high := NewEstimator(fixedRandom(0.9999999)).Estimate([]Detection{detWith(325, "n")})
		assert.Equal(t, 3.5, low[0].SpreadRadiusKm)
		assert.Equal(t, 5.5, high[0].SpreadRadiusKm)
	})

	t.Run("clamps to the lower bound", func(t *testing.T) {
		out := NewEstimator(fixedRandom(0)).Estimate([]Detection{detWith(250, "l")})
		assert.Equal(t, MinSpreadRadiusKm, out[0].SpreadRadiusKm)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		out := NewEstimator(fixedRandom(0.6234)).Estimate([]Detection{detWith(300, "n")})
		assert.Equal(t, 3.2, out[0].SpreadRadiusKm)
	})

	t.Run("high confidence biases upward", func(t *testing.T) {
		e := NewEstimator(fixedRandom(0.3))
		out := e.Estimate([]Detection{detWith(325.4, "h"), detWith(325.4, "l")})
		assert.Greater(t, out[0].SpreadRadiusKm, out[1].SpreadRadiusKm)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []Detection{detWith(360, "h")}
		_ = NewEstimator(fixedRandom(0.5)).Estimate(in)
		assert.Equal(t, DefaultSpreadRadiusKm, in[0].SpreadRadiusKm)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NewEstimator(nil).Estimate(nil))
	})
}

func TestEstimator_Bounds(t *testing.T) {
	e := NewEstimator(NewSeededRandom(42))
	var dets []Detection
	for _, b := range []float64{0, 200, 300, 321, 351, 500, 2000} {
		for _, c := range []string{"h", "n", "l", "high", "low", "", "77"} {
			dets = append(dets, detWith(b, c))
		}
	}
	for round := 0; round < 50; round++ {
		for _, d := range e.Estimate(dets) {
			assert.GreaterOrEqual(t, d.SpreadRadiusKm, MinSpreadRadiusKm)
			assert.LessOrEqual(t, d.SpreadRadiusKm, MaxSpreadRadiusKm)
		}
	}
}

func TestEstimator_SeededIsReproducible(t *testing.T) {
	dets := []Detection{detWith(330, "h"), detWith(301, "n"), detWith(355, "l")}
	a := NewEstimator(NewSeededRandom(7)).Estimate(dets)
	b := NewEstimator(NewSeededRandom(7)).Estimate(dets)
	assert.Equal(t, a, b)
}

func TestEstimator_DefaultSourceStaysInBounds(t *testing.T) {
	out := NewEstimator(nil).Estimate([]Detection{detWith(340, "n")})
	require.Len(t, out, 1)
	assert.GreaterOrEqual(t, out[0].SpreadRadiusKm, 2.5)
	assert.LessOrEqual(t, out[0].SpreadRadiusKm, 5.5)
}
