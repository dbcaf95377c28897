package main

import (
	"context"
	"fmt"

	"github.com/sells-group/nutsfind/internal/config"
	"github.com/sells-group/nutsfind/internal/nuts"
	"github.com/sells-group/nutsfind/pkg/eurostat"
)

// loadFinder builds a Finder from the configured data file, fetching it from
// GISCO first when it is not on disk.
func loadFinder(ctx context.Context, cfg *config.Config, extra ...nuts.Option) (*nuts.Finder, error) {
	path := cfg.Data.File
	if path == "" {
		var err error
		if path, err = resolveDataFile(ctx, cfg); err != nil {
			return nil, err
		}
	}

	opts := []nuts.Option{
		nuts.WithLevelRange(cfg.Finder.MinLevel, cfg.Finder.MaxLevel),
		nuts.WithBuffer(cfg.Finder.Buffer),
	}
	if cfg.Finder.Strict {
		opts = append(opts, nuts.WithStrictHierarchy())
	}
	opts = append(opts, extra...)

	return nuts.LoadFile(path, opts...)
}

func resolveDataFile(ctx context.Context, cfg *config.Config) (string, error) {
	spec := eurostat.FileSpec{
		GeomType: "RG",
		Scale:    cfg.Data.Scale,
		Year:     cfg.Data.Year,
		EPSG:     cfg.Data.EPSG,
		Format:   cfg.Data.Format,
		Level:    eurostat.AllLevels,
	}

	client := eurostat.NewClient(
		eurostat.WithBaseURL(cfg.Eurostat.BaseURL),
		eurostat.WithRateLimit(cfg.Eurostat.RateLimit),
	)
	return client.Fetch(ctx, spec, cfg.Data.Dir)
}

func printRegionIDs(regions []*nuts.Region) {
	for _, r := range regions {
		fmt.Printf("%s\t%d\n", r.ID(), r.Level())
	}
}
