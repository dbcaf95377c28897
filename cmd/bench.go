package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/nutsfind/internal/nuts"
)

var (
	benchPoints int
	benchSeed   int64
	benchValid  bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare candidate-retrieval strategies",
	Long: `Builds the finder twice, once with the R-tree index and once with the
brute-force linear scan, runs both over the same random points drawn from the
dataset extent, verifies the results agree, and reports timings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rtreeFinder, err := loadFinder(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		linearFinder, err := loadFinder(cmd.Context(), cfg, nuts.WithIndex(nuts.NewLinearIndex))
		if err != nil {
			return err
		}

		bounds := rtreeFinder.Bounds()
		rng := rand.New(rand.NewSource(benchSeed))
		points := make([][2]float64, benchPoints)
		for i := range points {
			points[i] = [2]float64{
				bounds.Min(0) + rng.Float64()*(bounds.Max(0)-bounds.Min(0)),
				bounds.Min(1) + rng.Float64()*(bounds.Max(1)-bounds.Min(1)),
			}
		}

		rtreeElapsed, err := timeQueries(rtreeFinder, points)
		if err != nil {
			return err
		}
		linearElapsed, err := timeQueries(linearFinder, points)
		if err != nil {
			return err
		}

		for _, p := range points {
			a, _ := rtreeFinder.FindAll(p[0], p[1], benchValid)
			b, _ := linearFinder.FindAll(p[0], p[1], benchValid)
			if !sameRegions(a, b) {
				return eris.Errorf("strategies disagree at (%v, %v)", p[0], p[1])
			}
		}

		fmt.Printf("points:  %d\n", benchPoints)
		fmt.Printf("rtree:   %v (%v/query)\n", rtreeElapsed, rtreeElapsed/time.Duration(benchPoints))
		fmt.Printf("linear:  %v (%v/query)\n", linearElapsed, linearElapsed/time.Duration(benchPoints))
		return nil
	},
}

func timeQueries(finder *nuts.Finder, points [][2]float64) (time.Duration, error) {
	start := time.Now()
	for _, p := range points {
		if _, err := finder.FindAll(p[0], p[1], benchValid); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func sameRegions(a, b []*nuts.Region) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			return false
		}
	}
	return true
}

func init() {
	benchCmd.Flags().IntVar(&benchPoints, "points", 1000, "number of random query points")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "random seed for point generation")
	benchCmd.Flags().BoolVar(&benchValid, "valid", false, "benchmark the valid-point fast path")

	rootCmd.AddCommand(benchCmd)
}
