// Command validate checks a persisted wildfire snapshot against the
// invariants the pipeline guarantees: document shape, coordinate ranges,
// spread radius bounds, timestamp format, sensor enumeration, region
// containment and the absence of spatial duplicates.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/wildfires.geojson
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
)

const acqLayout = "2006-01-02T15:04:05Z"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("snapshot", "", "path to a GeoJSON snapshot")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	doc, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(doc, os.Stdout))
}

func run(doc []byte, out io.Writer) int {
	fmt.Fprintln(out, "=== Wildfire Snapshot Validation ===")
	fmt.Fprintln(out)

	snap, ok := domain.DecodeSnapshot(doc)
	if !ok {
		fmt.Fprintln(out, "FATAL: not a GeoJSON FeatureCollection")
		return 1
	}

	phases := validate(snap)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Features: %d, region: %s, generated: %s\n",
		len(snap.Features), snap.Metadata.Region, snap.Metadata.GeneratedAt)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validate(snap domain.Snapshot) []*phase {
	return []*phase{
		validateMetadata(snap),
		validateGeometry(snap),
		validateAttributes(snap),
		validateRegion(snap),
		validateNoDuplicates(snap),
	}
}

// ── Phases ──

func validateMetadata(snap domain.Snapshot) *phase {
	p := &phase{name: "Metadata"}
	if snap.Metadata.TotalFeatures != len(snap.Features) {
		p.errorf("total_features=%d but %d features present", snap.Metadata.TotalFeatures, len(snap.Features))
	}
	if snap.Metadata.Source != domain.SnapshotSource {
		p.errorf("source=%q, want %q", snap.Metadata.Source, domain.SnapshotSource)
	}
	if _, err := time.Parse(time.RFC3339, snap.Metadata.GeneratedAt); err != nil {
		p.errorf("generated_at=%q is not RFC 3339", snap.Metadata.GeneratedAt)
	}
	if snap.Metadata.Region == "" {
		p.errorf("region is empty")
	}
	return p
}

func validateGeometry(snap domain.Snapshot) *phase {
	p := &phase{name: "Geometry"}
	for i, f := range snap.Features {
		if f.Type != "Feature" || f.Geometry.Type != "Point" {
			p.errorf("feature %d: type=%q geometry=%q", i, f.Type, f.Geometry.Type)
			continue
		}
		if len(f.Geometry.Coordinates) != 2 {
			p.errorf("feature %d: %d coordinates", i, len(f.Geometry.Coordinates))
			continue
		}
		pos := domain.Position{Lon: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}
		if !pos.Valid() {
			p.errorf("feature %d: coordinates out of range (%v, %v)", i, pos.Lon, pos.Lat)
		}
		if pos.Lat != f.Properties.Lat || pos.Lon != f.Properties.Lon {
			p.errorf("feature %d: geometry (%v, %v) differs from properties (%v, %v)",
				i, pos.Lon, pos.Lat, f.Properties.Lon, f.Properties.Lat)
		}
	}
	return p
}

func validateAttributes(snap domain.Snapshot) *phase {
	p := &phase{name: "Attributes"}
	seen := make(map[string]int, len(snap.Features))
	for i, f := range snap.Features {
		props := f.Properties
		r := props.SpreadRadiusKm
		if r < domain.MinSpreadRadiusKm || r > domain.MaxSpreadRadiusKm {
			p.errorf("feature %d: spread_radius_km=%v outside [%v, %v]", i, r, domain.MinSpreadRadiusKm, domain.MaxSpreadRadiusKm)
		}
		if math.Abs(r*10-math.Round(r*10)) > 1e-9 {
			p.errorf("feature %d: spread_radius_km=%v has more than one decimal", i, r)
		}
		if _, err := time.Parse(acqLayout, props.AcqDatetime); err != nil {
			p.errorf("feature %d: acq_datetime=%q is not UTC ISO-8601", i, props.AcqDatetime)
		}
		if _, ok := domain.ParseSensor(props.Satellite); !ok {
			p.errorf("feature %d: unknown satellite %q", i, props.Satellite)
		}
		if math.IsNaN(props.Brightness) || math.IsInf(props.Brightness, 0) {
			p.errorf("feature %d: brightness is not finite", i)
		}
		if props.ID != "" {
			if first, dup := seen[props.ID]; dup {
				p.errorf("feature %d: id %q already used by feature %d", i, props.ID, first)
			} else {
				seen[props.ID] = i
			}
		}
	}
	return p
}

func validateRegion(snap domain.Snapshot) *phase {
	p := &phase{name: "Region containment"}
	bounds, ok := domain.LookupRegion(snap.Metadata.Region)
	if !ok {
		return p
	}
	for i, f := range snap.Features {
		pos := domain.Position{Lon: f.Properties.Lon, Lat: f.Properties.Lat}
		if !bounds.Contains(pos) {
			p.errorf("feature %d: (%v, %v) outside %s", i, pos.Lat, pos.Lon, bounds.Name)
		}
	}
	return p
}

func validateNoDuplicates(snap domain.Snapshot) *phase {
	p := &phase{name: "Deduplication"}
	for i := range snap.Features {
		a := domain.Position{Lon: snap.Features[i].Properties.Lon, Lat: snap.Features[i].Properties.Lat}
		for j := i + 1; j < len(snap.Features); j++ {
			b := domain.Position{Lon: snap.Features[j].Properties.Lon, Lat: snap.Features[j].Properties.Lat}
			if d := domain.DegreeDistance(a, b); d < domain.DuplicateThresholdDeg {
				p.errorf("features %d and %d are %.4f° apart", i, j, d)
			}
		}
	}
	return p
}
