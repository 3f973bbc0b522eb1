package regionio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// maxListedIDs caps the number of offending IDs spelled out in a join
// error before it falls back to a count.
const maxListedIDs = 10

// Join matches boundaries to count rows by region ID and builds the
// region set for a city. The join is strict in both directions: a count
// row with no boundary means sampling would be undefined, and a boundary
// with no counts would silently drop population from the map, so either
// fails with the offending IDs listed. Every region's count map is filled
// out to the full category enumeration, missing categories as zero.
func Join(city string, boundaries []Boundary, counts map[string]map[string]int, categories []string) ([]model.Region, error) {
	byID := make(map[string]*Boundary, len(boundaries))
	for i := range boundaries {
		b := &boundaries[i]
		if _, dup := byID[b.ID]; dup {
			return nil, eris.Errorf("regionio: duplicate boundary ID %q", b.ID)
		}
		byID[b.ID] = b
	}

	var noGeometry, noCounts []string
	for id := range counts {
		if _, ok := byID[id]; !ok {
			noGeometry = append(noGeometry, id)
		}
	}
	for id := range byID {
		if _, ok := counts[id]; !ok {
			noCounts = append(noCounts, id)
		}
	}
	if len(noGeometry) > 0 || len(noCounts) > 0 {
		return nil, eris.Errorf("regionio: join mismatch for %s: %s%s",
			city, describeIDs("count rows without geometry", noGeometry),
			describeIDs("; boundaries without counts", noCounts))
	}

	regions := make([]model.Region, 0, len(boundaries))
	for _, b := range boundaries {
		row := counts[b.ID]
		full := make(map[string]int, len(categories))
		for _, label := range categories {
			full[label] = row[label]
		}
		regions = append(regions, model.Region{
			ID:       b.ID,
			Name:     b.Name,
			City:     city,
			Geometry: b.Geometry,
			Counts:   full,
		})
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].ID < regions[j].ID })

	zap.L().Info("regionio: joined regions",
		zap.String("city", city),
		zap.Int("regions", len(regions)),
		zap.Int("categories", len(categories)),
	)

	return regions, nil
}

func describeIDs(prefix string, ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	if len(ids) > maxListedIDs {
		return fmt.Sprintf("%s: %s and %d more", prefix,
			strings.Join(ids[:maxListedIDs], ", "), len(ids)-maxListedIDs)
	}
	return prefix + ": " + strings.Join(ids, ", ")
}
