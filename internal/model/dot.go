package model

// Dot is one generated point standing in for a fixed number of people of
// one category. Dots have no identity beyond their attributes; a run
// creates them in bulk and never mutates them.
type Dot struct {
	Lon      float64 `csv:"longitude" json:"longitude"`
	Lat      float64 `csv:"latitude" json:"latitude"`
	Category string  `csv:"category" json:"category"`
	RegionID string  `csv:"region_id" json:"region_id"`
}

// DotCollection is the full output of one city run. Row order carries no
// meaning; dots are shuffled per region before concatenation so no single
// category renders on top of the others.
type DotCollection struct {
	City  string
	Seed  int64
	Ratio float64
	Dots  []Dot
}

// CountByCategory returns the number of dots per category label.
func (c *DotCollection) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for i := range c.Dots {
		counts[c.Dots[i].Category]++
	}
	return counts
}

// RegionIDs returns the distinct region identifiers present in the
// collection.
func (c *DotCollection) RegionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range c.Dots {
		id := c.Dots[i].RegionID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
