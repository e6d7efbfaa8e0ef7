package domain

import (
	"context"
	"log/slog"
)

// WindProvider looks up current surface wind conditions at a coordinate.
type WindProvider interface {
	CurrentWind(ctx context.Context, lat, lon float64) (Wind, error)
}

// EnrichWithWind attaches wind conditions to each detection. If provider is
// nil the input is returned unchanged; a failed lookup leaves that record's
// Wind nil (graceful degradation). Spread radii are not touched.
func EnrichWithWind(ctx context.Context, dets []Detection, provider WindProvider, logger *slog.Logger) []Detection {
	if provider == nil {
		return dets
	}

	out := make([]Detection, len(dets))
	copy(out, dets)
	for i := range out {
		if ctx.Err() != nil {
			break
		}
		wind, err := provider.CurrentWind(ctx, out[i].Position.Lat, out[i].Position.Lon)
		if err != nil {
			logger.Warn("wind lookup failed",
				"detection_id", out[i].ID,
				"lat", out[i].Position.Lat,
				"lon", out[i].Position.Lon,
				"error", err,
			)
			continue
		}
		w := wind
		out[i].Wind = &w
	}
	return out
}
