package main

import (
	"github.com/spf13/cobra"
)

var (
	bboxWest   float64
	bboxSouth  float64
	bboxEast   float64
	bboxNorth  float64
	bboxFormat string
)

var bboxCmd = &cobra.Command{
	Use:   "bbox",
	Short: "Find the NUTS regions intersecting a bounding box",
	RunE: func(cmd *cobra.Command, args []string) error {
		finder, err := loadFinder(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		regions, err := finder.FindBBox(bboxWest, bboxSouth, bboxEast, bboxNorth)
		if err != nil {
			return err
		}

		return printRegions(regions, bboxFormat)
	},
}

func init() {
	bboxCmd.Flags().Float64Var(&bboxWest, "west", 0, "western edge of the query rectangle")
	bboxCmd.Flags().Float64Var(&bboxSouth, "south", 0, "southern edge of the query rectangle")
	bboxCmd.Flags().Float64Var(&bboxEast, "east", 0, "eastern edge of the query rectangle")
	bboxCmd.Flags().Float64Var(&bboxNorth, "north", 0, "northern edge of the query rectangle")
	bboxCmd.Flags().StringVar(&bboxFormat, "format", "ids", "output format: ids, json, yaml")
	for _, flag := range []string{"west", "south", "east", "north"} {
		_ = bboxCmd.MarkFlagRequired(flag)
	}

	rootCmd.AddCommand(bboxCmd)
}
