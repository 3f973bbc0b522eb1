package model

import (
	"github.com/twpayne/go-geom"
)

// Region is the smallest geographic unit carrying both a polygon and
// population counts: a Copenhagen rode, a Berlin Planungsraum, or a
// district-level aggregate of either.
type Region struct {
	ID       string
	Name     string
	City     string
	Geometry *geom.MultiPolygon
	Counts   map[string]int
}

// Count returns the population count for a category. Missing categories
// count as zero.
func (r *Region) Count(category string) int {
	if r.Counts == nil {
		return 0
	}
	return r.Counts[category]
}

// Population returns the sum of all category counts.
func (r *Region) Population() int {
	var total int
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// HasGeometry reports whether the region carries a usable polygon.
func (r *Region) HasGeometry() bool {
	return r.Geometry != nil && r.Geometry.NumPolygons() > 0
}
