// Command snapshot runs a single pipeline cycle and writes the resulting
// GeoJSON snapshot to a file. Sources are either local FIRMS CSV exports or
// the live feeds configured through the environment.
//
// Usage:
//
//	go run ./cmd/snapshot \
//	  -modis testdata/MODIS_C6_1_Global_24h.csv \
//	  -viirs testdata/VNP14IMGTDL_NRT_Global_24h.csv \
//	  -region california -seed 42 \
//	  -out data/wildfires.geojson
//
//	go run ./cmd/snapshot -fetch -region australia -out data/australia.geojson
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wildfire-data-etl/internal/adapter/filestore"
	"github.com/couchcryptid/wildfire-data-etl/internal/adapter/firms"
	"github.com/couchcryptid/wildfire-data-etl/internal/config"
	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/couchcryptid/wildfire-data-etl/internal/observability"
	"github.com/couchcryptid/wildfire-data-etl/internal/pipeline"
)

// fileFetcher treats source URLs as local file paths.
type fileFetcher struct{}

func (fileFetcher) FetchText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// liveSources returns the configured FIRMS feeds and the pipeline options
// that bound fetching them.
func liveSources(cfg *config.Config) ([]pipeline.Source, []pipeline.Option) {
	sources := []pipeline.Source{
		{Sensor: domain.SensorMODIS, URL: cfg.MODISURL},
		{Sensor: domain.SensorVIIRS, URL: cfg.VIIRSURL},
	}
	return sources, []pipeline.Option{pipeline.WithFetchTimeout(cfg.FetchTimeout)}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	modisPath := flag.String("modis", "", "local MODIS CSV file")
	viirsPath := flag.String("viirs", "", "local VIIRS CSV file")
	fetch := flag.Bool("fetch", false, "fetch the live FIRMS feeds configured via FIRMS_* variables")
	region := flag.String("region", "california", "region to filter to, or \"none\"")
	out := flag.String("out", "", "output path for the GeoJSON snapshot")
	seed := flag.Int64("seed", -1, "spread noise seed; negative for unseeded")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return errors.New("missing required flag: -out")
	}
	if *fetch == (*modisPath != "" || *viirsPath != "") {
		flag.Usage()
		return errors.New("use either -fetch or at least one of -modis/-viirs")
	}
	logger := sharedobs.NewLogger("info", "text")
	if _, ok := domain.LookupRegion(*region); !ok && *region != domain.NoRegionFilter {
		logger.Warn("unknown region, writing an unfiltered snapshot", "region", *region)
	}

	var (
		fetcher pipeline.Fetcher
		sources []pipeline.Source
		opts    []pipeline.Option
	)
	if *fetch {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		fetcher = firms.NewClient(logger, firms.WithMirrors(cfg.Mirrors))
		sources, opts = liveSources(cfg)
	} else {
		fetcher = fileFetcher{}
		if *modisPath != "" {
			sources = append(sources, pipeline.Source{Sensor: domain.SensorMODIS, URL: *modisPath})
		}
		if *viirsPath != "" {
			sources = append(sources, pipeline.Source{Sensor: domain.SensorVIIRS, URL: *viirsPath})
		}
	}

	var rnd domain.RandomSource
	if *seed >= 0 {
		rnd = domain.NewSeededRandom(uint64(*seed))
	}

	store := filestore.NewFile(*out)
	opts = append(opts,
		pipeline.WithRegion(*region),
		pipeline.WithEstimator(domain.NewEstimator(rnd)),
	)
	p := pipeline.New(fetcher, store, sources, logger, observability.NewMetrics(), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := p.RunCycle(ctx, *region)
	if err != nil {
		return err
	}

	// RunCycle logs store failures without returning them.
	doc, err := store.Read(ctx)
	if err != nil {
		return err
	}
	stored, ok := domain.DecodeSnapshot(doc)
	if !ok || stored.Metadata.GeneratedAt != snap.Metadata.GeneratedAt {
		return fmt.Errorf("snapshot was not written to %s", *out)
	}

	log.Printf("%s: %d detections written to %s", snap.Metadata.Region, snap.Metadata.TotalFeatures, *out)
	return nil
}
