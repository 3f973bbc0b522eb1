// Package regionio loads administrative boundaries and census count
// tables and joins them into regions ready for dot generation.
package regionio

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Boundary is one administrative polygon read from a shapefile.
type Boundary struct {
	ID       string
	Name     string
	Geometry *geom.MultiPolygon
}

// ShapefileOptions locates the identifier attributes within a shapefile.
// Fields are matched by name, never by position.
type ShapefileOptions struct {
	IDField   string // required: attribute holding the region identifier
	NameField string // optional: attribute holding a display name
	Latin1    bool   // decode DBF attributes as ISO 8859-1
}

// LoadShapefile reads all polygon records from a shapefile. Records
// without geometry or without an ID value are skipped and counted; the
// caller's join step turns any resulting gaps into hard errors.
func LoadShapefile(path string, opts ShapefileOptions) ([]Boundary, error) {
	if opts.IDField == "" {
		return nil, eris.New("regionio: shapefile ID field is required")
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "regionio: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	idIdx, ok := fieldIdx[strings.ToLower(opts.IDField)]
	if !ok {
		return nil, eris.Errorf("regionio: shapefile %s has no field %q", path, opts.IDField)
	}
	nameIdx := -1
	if opts.NameField != "" {
		nameIdx, ok = fieldIdx[strings.ToLower(opts.NameField)]
		if !ok {
			return nil, eris.Errorf("regionio: shapefile %s has no field %q", path, opts.NameField)
		}
	}

	var boundaries []Boundary
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		id := strings.TrimSpace(attribute(reader, idIdx, opts.Latin1))
		if id == "" {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		b := Boundary{ID: id, Geometry: mp}
		if nameIdx >= 0 {
			b.Name = strings.TrimSpace(attribute(reader, nameIdx, opts.Latin1))
		}
		boundaries = append(boundaries, b)
	}

	if skipped > 0 {
		zap.L().Debug("regionio: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return boundaries, nil
}

// attribute reads one DBF attribute, optionally decoding Latin-1 bytes.
// Danish and German boundary files commonly ship ISO 8859-1 names.
func attribute(reader *shp.Reader, idx int, latin1 bool) string {
	val := strings.TrimRight(reader.Attribute(idx), "\x00")
	if !latin1 {
		return val
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(val)
	if err != nil {
		return val
	}
	return decoded
}

// polygonToMultiPolygon converts a shapefile Polygon to a go-geom
// MultiPolygon. Shapefile rings are wound clockwise for shells and
// counter-clockwise for holes: each clockwise ring starts a new polygon
// and the counter-clockwise rings that follow it become its holes, so
// the sampler never places dots inside a lake or enclave.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)

		// A hole ring with no shell to attach to is promoted to a shell.
		hole := xy.IsRingCounterClockwise(geom.XY, flat) && len(polys) > 0
		if hole {
			if err := polys[len(polys)-1].Push(ring); err != nil {
				zap.L().Debug("regionio: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("regionio: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		polys = append(polys, poly)
	}

	if len(polys) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("regionio: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
