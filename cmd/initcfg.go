package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

const starterConfig = `store:
  driver: sqlite # sqlite or postgres
  database_url: dotmap.db

dots:
  ratio: 100 # people per dot
  concurrency: 4
  force_rare_dot: false
  output_dir: out

server:
  port: 8080
  allowed_origins:
    - "*"

log:
  level: info
  format: json # json or console

cities:
  copenhagen: cities/copenhagen.yaml
  berlin: cities/berlin.yaml
`

const starterCopenhagen = `name: copenhagen
shapefile:
  path: data/copenhagen/roder.shp
  id_field: rode_nr
  name_field: rodenavn
  latin1: true
counts:
  path: data/copenhagen/ancestry_by_rode.csv
  format: csv
  id_column: rode_nr
categories:
  - label: Denmark
    column: denmark
  - label: Other Nordic
    column: other_nordic
  - label: Western countries
    column: western
  - label: Eastern Europe
    column: eastern_europe
  - label: Africa
    column: africa
  - label: Asia
    column: asia
`

const starterBerlin = `name: berlin
shapefile:
  path: data/berlin/planungsraum.shp
  id_field: SCHLUESSEL
  name_field: PLR_NAME
  latin1: true
counts:
  path: data/berlin/ewr_migrationshintergrund.xlsx
  format: xlsx
  id_column: raumid
  sheet: T1
  skip_rows: 3
categories:
  - label: EU
    column: eu
  - label: Poland
    column: polen
  - label: Former Yugoslavia
    column: ehem_jugoslawien
  - label: Former Soviet Union
    column: ehem_sowjetunion
  - label: Turkey
    column: tuerkei
  - label: Arab states
    column: arab_staaten
  - label: Other
    column: sonstige
`

var initcfgDir string

var initcfgCmd = &cobra.Command{
	Use:   "initcfg",
	Short: "Write a starter config.yaml and city definition files",
	Long: `Writes config.yaml plus city definitions for Copenhagen and Berlin into
the target directory. Existing files are left untouched so re-running is
safe after editing.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		files := []struct {
			path    string
			content string
		}{
			{filepath.Join(initcfgDir, "config.yaml"), starterConfig},
			{filepath.Join(initcfgDir, "cities", "copenhagen.yaml"), starterCopenhagen},
			{filepath.Join(initcfgDir, "cities", "berlin.yaml"), starterBerlin},
		}

		for _, f := range files {
			if err := writeStarterFile(f.path, f.content); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	initcfgCmd.Flags().StringVar(&initcfgDir, "dir", ".", "directory to write config files into")
	rootCmd.AddCommand(initcfgCmd)
}

// writeStarterFile writes content to path unless the file already exists.
func writeStarterFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "initcfg: create dir for %s", path)
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("skipping %s (already exists)\n", path)
		return nil
	} else if !os.IsNotExist(err) {
		return eris.Wrapf(err, "initcfg: stat %s", path)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "initcfg: write %s", path)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
