package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

var validateCity string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a city's sources without generating dots",
	Long: `Loads the boundary shapefile and count table for a city, performs the
region join, and reports coverage. Fails on the same data-integrity and
schema problems a generate run would hit, so it doubles as a dry run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		city, err := lookupCity(validateCity)
		if err != nil {
			return err
		}

		regions, err := loadRegions(city)
		if err != nil {
			return eris.Wrapf(err, "validate: %s", city.Name)
		}

		printCoverage(os.Stdout, city.Name, city.CategoryLabels(), regions)
		return nil
	},
}

// printCoverage writes a per-category population summary.
func printCoverage(out io.Writer, cityName string, categories []string, regions []model.Region) {
	var total int
	perCategory := make(map[string]int, len(categories))
	for i := range regions {
		for _, label := range categories {
			n := regions[i].Count(label)
			perCategory[label] += n
			total += n
		}
	}

	fmt.Fprintf(out, "%s: %d regions, %d people\n\n", cityName, len(regions), total)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tPOPULATION\tSHARE")
	for _, label := range categories {
		share := 0.0
		if total > 0 {
			share = 100 * float64(perCategory[label]) / float64(total)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", label, perCategory[label], share)
	}
	_ = w.Flush()
}

func init() {
	validateCmd.Flags().StringVar(&validateCity, "city", "", "city key from config")
	_ = validateCmd.MarkFlagRequired("city")

	rootCmd.AddCommand(validateCmd)
}
