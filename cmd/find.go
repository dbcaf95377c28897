package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/nutsfind/internal/nuts"
)

var (
	findLon    float64
	findLat    float64
	findLevel  int
	findValid  bool
	findFormat string
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Resolve the NUTS regions containing a point",
	Long: `Resolves a point (lon, lat) to the chain of NUTS regions containing it,
ordered from NUTS 0 down to the finest loaded level. With --level only the
region at that level is reported. --valid skips the exact point-in-polygon
test and trusts the bounding-box candidates; use it only for points known to
lie inside the dataset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		finder, err := loadFinder(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		var regions []*nuts.Region
		if cmd.Flags().Changed("level") {
			regions, err = finder.FindAtLevel(findLon, findLat, findLevel, findValid)
		} else {
			regions, err = finder.FindAll(findLon, findLat, findValid)
		}
		if err != nil {
			return err
		}

		return printRegions(regions, findFormat)
	},
}

func init() {
	findCmd.Flags().Float64Var(&findLon, "lon", 0, "longitude of the query point")
	findCmd.Flags().Float64Var(&findLat, "lat", 0, "latitude of the query point")
	findCmd.Flags().IntVar(&findLevel, "level", 0, "report only the region at this NUTS level")
	findCmd.Flags().BoolVar(&findValid, "valid", false, "assert the point lies inside the dataset and skip exact testing")
	findCmd.Flags().StringVar(&findFormat, "format", "ids", "output format: ids, json, yaml")
	_ = findCmd.MarkFlagRequired("lon")
	_ = findCmd.MarkFlagRequired("lat")

	rootCmd.AddCommand(findCmd)
}

// printRegions writes the result set in the requested format: tab-separated
// identifiers, a GeoJSON FeatureCollection, or a YAML summary.
func printRegions(regions []*nuts.Region, format string) error {
	switch format {
	case "ids":
		printRegionIDs(regions)
		return nil

	case "json":
		features := make([]*geojson.Feature, 0, len(regions))
		for _, r := range regions {
			features = append(features, r.Feature())
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(&geojson.FeatureCollection{Features: features})

	case "yaml":
		type regionSummary struct {
			ID         string         `yaml:"id"`
			Level      int            `yaml:"level"`
			Properties map[string]any `yaml:"properties,omitempty"`
		}
		out := make([]regionSummary, 0, len(regions))
		for _, r := range regions {
			out = append(out, regionSummary{ID: r.ID(), Level: r.Level(), Properties: r.Properties()})
		}
		data, err := yaml.Marshal(out)
		if err != nil {
			return eris.Wrap(err, "marshal yaml")
		}
		fmt.Print(string(data))
		return nil

	default:
		return eris.Errorf("unknown output format %q", format)
	}
}
