package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/dotdensity"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/export"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/store"
)

var (
	generateCity        string
	generateOut         string
	generateFormat      string
	generateRatio       float64
	generateSeed        int64
	generateConcurrency int
	generateForceRare   bool
	generateNoStore     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate dot-density points for a city",
	Long: `Loads a city's boundary shapefile and category count table, joins them
by region ID, and generates one dot per N people of each category, placed
uniformly at random within the region's polygon.

A fixed --seed reproduces the exact same dots regardless of --concurrency.
Omitting --seed derives one from the clock; the chosen seed is always logged.

Examples:
  dotmap generate --city copenhagen
  dotmap generate --city berlin --ratio 50 --format geojson
  dotmap generate --city berlin --seed 42 --force-rare`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		city, err := lookupCity(generateCity)
		if err != nil {
			return err
		}

		regions, err := loadRegions(city)
		if err != nil {
			return eris.Wrapf(err, "generate: load %s", city.Name)
		}

		ratio := generateRatio
		if ratio == 0 {
			ratio = cfg.Dots.Ratio
		}
		concurrency := generateConcurrency
		if concurrency == 0 {
			concurrency = cfg.Dots.Concurrency
		}
		seed := generateSeed
		if !cmd.Flags().Changed("seed") {
			seed = time.Now().UnixNano()
		}
		forceRare := generateForceRare || cfg.Dots.ForceRareDot

		gen, err := dotdensity.New(dotdensity.Options{
			Ratio:        ratio,
			Categories:   city.CategoryLabels(),
			Seed:         seed,
			Concurrency:  concurrency,
			ForceRareDot: forceRare,
		})
		if err != nil {
			return err
		}

		var run *model.Run
		var st store.Store
		if !generateNoStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "generate: migrate store")
			}
			run = model.NewRun(city.Name, seed, ratio)
			if err := st.CreateRun(ctx, run); err != nil {
				return err
			}
		}

		collection, err := gen.Generate(ctx, city.Name, regions)
		if err != nil {
			if st != nil {
				if failErr := st.FailRun(ctx, run.ID, err); failErr != nil {
					zap.L().Warn("failed to record run failure", zap.Error(failErr))
				}
			}
			return eris.Wrapf(err, "generate: %s", city.Name)
		}

		if err := writeOutputs(city.Name, collection); err != nil {
			if st != nil {
				if failErr := st.FailRun(ctx, run.ID, err); failErr != nil {
					zap.L().Warn("failed to record run failure", zap.Error(failErr))
				}
			}
			return err
		}

		if st != nil {
			if err := st.SaveDots(ctx, run.ID, collection); err != nil {
				return err
			}
			if err := st.CompleteRun(ctx, run.ID, len(collection.Dots)); err != nil {
				return err
			}
		}

		fmt.Printf("Generated %d dots for %s (seed %d, ratio %.0f)\n",
			len(collection.Dots), city.Name, seed, ratio)
		return nil
	},
}

// writeOutputs writes the collection in the requested formats into the
// output directory.
func writeOutputs(cityName string, collection *model.DotCollection) error {
	outDir := generateOut
	if outDir == "" {
		outDir = cfg.Dots.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "generate: create output dir %s", outDir)
	}

	writeCSV := generateFormat == "csv" || generateFormat == "both"
	writeGeo := generateFormat == "geojson" || generateFormat == "both"
	if !writeCSV && !writeGeo {
		return eris.Errorf("generate: unknown format %q (want csv, geojson or both)", generateFormat)
	}

	if writeCSV {
		if err := export.WriteCSV(filepath.Join(outDir, cityName+"_dots.csv"), collection); err != nil {
			return err
		}
	}
	if writeGeo {
		if err := export.WriteGeoJSON(filepath.Join(outDir, cityName+"_dots.geojson"), collection); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&generateCity, "city", "", "city key from config (e.g. copenhagen, berlin)")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "output directory (default from config)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "both", "output format: csv, geojson or both")
	generateCmd.Flags().Float64Var(&generateRatio, "ratio", 0, "people per dot (default from config)")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed (default: derived from clock)")
	generateCmd.Flags().IntVar(&generateConcurrency, "concurrency", 0, "parallel region workers (default from config)")
	generateCmd.Flags().BoolVar(&generateForceRare, "force-rare", false, "place one dot for categories that round to zero city-wide (presentation aid, breaks unbiasedness)")
	generateCmd.Flags().BoolVar(&generateNoStore, "no-store", false, "skip run/dot persistence")
	_ = generateCmd.MarkFlagRequired("city")

	rootCmd.AddCommand(generateCmd)
}
