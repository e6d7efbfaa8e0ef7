// Package domain models NASA FIRMS active-fire detection data.
//
// # Data Source
//
// Detections originate from the Fire Information for Resource Management
// System (FIRMS) near-real-time CSV feeds, published for each sensor family at
// https://firms.modaps.eosdis.nasa.gov/active_fire/. Two feeds are consumed:
// MODIS Collection 6.1 (Terra and Aqua) and VIIRS 375 m (Suomi NPP). Each feed
// is a global rolling 24-hour window refreshed several times per hour.
//
// # FIRMS Column Conventions
//
// Both feeds share a leading column layout and differ in where confidence
// lives:
//
//	MODIS: latitude,longitude,brightness,scan,track,acq_date,acq_time,satellite,confidence,...
//	VIIRS: latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,instrument,confidence,...
//
// The column positions are captured per sensor by [SourceSchema] rather than
// by header lookup, since the header names themselves vary between products
// (brightness vs bright_ti4).
//
// Time format:
//
//	acq_date is YYYY-MM-DD, acq_time is HHMM in 24-hour UTC with leading
//	zeros stripped: "930" → 09:30, "5" → 00:05, "0" → 00:00.
//
// Confidence encoding (varies by feed):
//
//	MODIS: an integer percentage 0-100.
//	VIIRS: a letter code, "l" (low), "n" (nominal), "h" (high).
//	Word levels ("low", "nominal", "high") appear in derived products.
//
// The raw token is always kept for display. [ClassifyConfidence] maps the
// letter and word forms onto a closed [ConfidenceLevel]; numeric percentages
// are classified as unknown.
//
// Satellite platform codes:
//
//	T = Terra, A = Aqua (MODIS); N = Suomi NPP, 1 = NOAA-20, 2 = NOAA-21 (VIIRS).
//
// # Processing Stages
//
// The functions in this package are pure transformations composed by the
// pipeline package: [Parse] → [FilterByRegion] → [Dedupe] → [Estimator.Estimate]
// → [BuildSnapshot]. [RestoreDetections] is the inverse of the last stage and
// is used to recover the previous cycle's result at startup.
//
// # Spread Radius
//
// The spread radius is a bounded heuristic, not a fire behaviour model. It
// starts from 3 km, grows with brightness temperature and sensor confidence,
// carries ±1 km of uniform noise and is clamped to [1, 15] km.
package domain
