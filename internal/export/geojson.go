package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// WriteGeoJSON writes the collection as a GeoJSON FeatureCollection of
// points, one feature per dot with category and region_id properties.
// Atomic write via temp file + rename, like WriteCSV.
func WriteGeoJSON(path string, collection *model.DotCollection) error {
	fc := &geojson.FeatureCollection{}
	for i := range collection.Dots {
		d := &collection.Dots[i]
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{d.Lon, d.Lat}),
			Properties: map[string]interface{}{
				"category":  d.Category,
				"region_id": d.RegionID,
			},
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "export: marshal feature collection")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "export: rename %s", path)
	}

	zap.L().Info("export: wrote geojson",
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
	)
	return nil
}
