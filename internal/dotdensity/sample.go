package dotdensity

import (
	"math"
	"math/rand"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// maxRejectsPerPoint bounds rejection sampling so a sliver polygon whose
// area is a vanishing fraction of its bounding box fails loudly instead
// of spinning.
const maxRejectsPerPoint = 100000

// SampleWithin returns n points independently and uniformly distributed
// over the interior of g. Candidates are drawn uniformly from the bounding
// box and rejected against the polygon boundary, so density stays uniform
// across the true interior rather than the box.
func SampleWithin(g *geom.MultiPolygon, n int, rng *rand.Rand) ([]geom.Coord, error) {
	if g == nil || g.NumPolygons() == 0 {
		return nil, eris.New("dotdensity: region has no geometry")
	}
	if unsignedArea(g) <= 0 {
		return nil, eris.New("dotdensity: region geometry has zero area")
	}
	if n <= 0 {
		return []geom.Coord{}, nil
	}

	bounds := g.Bounds()
	minX, minY := bounds.Min(0), bounds.Min(1)
	spanX := bounds.Max(0) - minX
	spanY := bounds.Max(1) - minY

	points := make([]geom.Coord, 0, n)
	for len(points) < n {
		var rejects int
		for {
			c := geom.Coord{minX + rng.Float64()*spanX, minY + rng.Float64()*spanY}
			if Contains(g, c) {
				points = append(points, c)
				break
			}
			rejects++
			if rejects >= maxRejectsPerPoint {
				return nil, eris.Errorf("dotdensity: rejected %d candidates in a row, geometry is degenerate", rejects)
			}
		}
	}
	return points, nil
}

// unsignedArea sums the absolute area of each polygon. Ring winding
// varies by source (shapefile shells are clockwise), so the signed area
// from go-geom cannot be compared to zero directly.
func unsignedArea(g *geom.MultiPolygon) float64 {
	var total float64
	for i := 0; i < g.NumPolygons(); i++ {
		total += math.Abs(g.Polygon(i).Area())
	}
	return total
}

// Contains reports whether the point lies inside the multipolygon: within
// some polygon's shell and outside that polygon's holes.
func Contains(g *geom.MultiPolygon, c geom.Coord) bool {
	for i := 0; i < g.NumPolygons(); i++ {
		p := g.Polygon(i)
		if p.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for j := 1; j < p.NumLinearRings(); j++ {
			if xy.IsPointInRing(p.Layout(), c, p.LinearRing(j).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}
