// Package export writes generated dot collections to the flat formats
// consumed by the visualization front end.
package export

import (
	"encoding/csv"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// WriteCSV writes the flat dot table (longitude, latitude, category,
// region_id) to path. The file is written to a temp sibling and renamed
// into place, so a failed run never leaves partial output behind.
func WriteCSV(path string, collection *model.DotCollection) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", tmp)
	}

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	for i := range collection.Dots {
		if err := enc.Encode(collection.Dots[i]); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return eris.Wrap(err, "export: encode dot row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return eris.Wrap(err, "export: flush csv")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "export: close %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "export: rename %s", path)
	}

	zap.L().Info("export: wrote dot table",
		zap.String("path", path),
		zap.Int("rows", len(collection.Dots)),
	)
	return nil
}
