package main

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/config"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/regionio"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/store"
)

// lookupCity resolves a city key against the configured city files.
func lookupCity(key string) (*config.City, error) {
	path, ok := cfg.Cities[key]
	if !ok {
		keys := make([]string, 0, len(cfg.Cities))
		for k := range cfg.Cities {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, eris.Errorf("unknown city %q (configured: %s)", key, strings.Join(keys, ", "))
	}
	return config.LoadCity(path)
}

// loadRegions runs the load → join steps for one city: boundaries from
// the shapefile, counts from the tabular source, matched by region ID.
func loadRegions(city *config.City) ([]model.Region, error) {
	boundaries, err := regionio.LoadShapefile(city.Shapefile.Path, regionio.ShapefileOptions{
		IDField:   city.Shapefile.IDField,
		NameField: city.Shapefile.NameField,
		Latin1:    city.Shapefile.Latin1,
	})
	if err != nil {
		return nil, err
	}

	spec := regionio.CountSpec{
		IDColumn: city.Counts.IDColumn,
		Columns:  city.ColumnMap(),
	}

	var counts map[string]map[string]int
	switch city.Counts.Format {
	case "xlsx":
		counts, err = regionio.ReadCountsXLSX(city.Counts.Path, spec, regionio.XLSXOptions{
			SheetName: city.Counts.Sheet,
			SkipRows:  city.Counts.SkipRows,
		})
	default:
		counts, err = regionio.ReadCountsCSV(city.Counts.Path, spec)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("loaded city sources",
		zap.String("city", city.Name),
		zap.Int("boundaries", len(boundaries)),
		zap.Int("count_rows", len(counts)),
	)

	return regionio.Join(city.Name, boundaries, counts, city.CategoryLabels())
}

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dotmap.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
