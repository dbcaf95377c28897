package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/nutsfind/pkg/eurostat"
)

var (
	fetchScale  int
	fetchYear   int
	fetchEPSG   int
	fetchFormat string
	fetchLevels []int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download NUTS boundary files from Eurostat GISCO",
	Long: `Downloads NUTS boundary files into the configured data directory. By
default the combined file covering all levels is fetched; --levels fetches
one file per requested level instead. Existing files are not re-downloaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := eurostat.NewClient(
			eurostat.WithBaseURL(cfg.Eurostat.BaseURL),
			eurostat.WithRateLimit(cfg.Eurostat.RateLimit),
		)

		spec := eurostat.FileSpec{
			GeomType: "RG",
			Scale:    fetchScale,
			Year:     fetchYear,
			EPSG:     fetchEPSG,
			Format:   fetchFormat,
			Level:    eurostat.AllLevels,
		}

		if len(fetchLevels) > 0 {
			paths, err := client.FetchLevels(cmd.Context(), spec, cfg.Data.Dir, fetchLevels)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Println(path)
			}
			return nil
		}

		path, err := client.Fetch(cmd.Context(), spec, cfg.Data.Dir)
		if err != nil {
			return err
		}

		zap.L().Info("fetched NUTS file", zap.String("path", path))
		fmt.Println(path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchScale, "scale", 1, "map scale in millions (1, 3, 10, 20, 60)")
	fetchCmd.Flags().IntVar(&fetchYear, "year", 2021, "NUTS classification year")
	fetchCmd.Flags().IntVar(&fetchEPSG, "epsg", 4326, "coordinate reference system (4326, 3035, 3857)")
	fetchCmd.Flags().StringVar(&fetchFormat, "fmt", "geojson", "distribution format (geojson, shp, topojson, ...)")
	fetchCmd.Flags().IntSliceVar(&fetchLevels, "levels", nil, "fetch one file per NUTS level instead of the combined file")

	rootCmd.AddCommand(fetchCmd)
}
