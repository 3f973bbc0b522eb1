package dotdensity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

func unitSquareRegion(t *testing.T, id string, counts map[string]int) model.Region {
	t.Helper()
	return model.Region{
		ID:       id,
		City:     "testcity",
		Geometry: squareMP(t, 0, 0, 1, 1),
		Counts:   counts,
	}
}

func TestGenerator_New_Validation(t *testing.T) {
	_, err := New(Options{Categories: nil})
	assert.Error(t, err)

	_, err = New(Options{Categories: []string{"A", "A"}})
	assert.Error(t, err)

	_, err = New(Options{Categories: []string{"A"}, Ratio: -1})
	assert.Error(t, err)

	gen, err := New(Options{Categories: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultRatio), gen.opts.Ratio)
}

func TestGenerateRegion_EndToEnd(t *testing.T) {
	gen, err := New(Options{
		Categories: []string{"X", "Y"},
		Ratio:      100,
		Seed:       42,
	})
	require.NoError(t, err)

	region := unitSquareRegion(t, "R1", map[string]int{"X": 1000, "Y": 0})

	dots, err := gen.GenerateRegion(region)
	require.NoError(t, err)

	// 1000 / 100 is integral, so the count is exact.
	require.Len(t, dots, 10)
	for _, d := range dots {
		assert.Equal(t, "X", d.Category)
		assert.Equal(t, "R1", d.RegionID)
		assert.True(t, d.Lon >= 0 && d.Lon <= 1)
		assert.True(t, d.Lat >= 0 && d.Lat <= 1)
	}
}

func TestGenerateRegion_MissingGeometryFails(t *testing.T) {
	gen, err := New(Options{Categories: []string{"X"}, Seed: 1})
	require.NoError(t, err)

	_, err = gen.GenerateRegion(model.Region{ID: "R9", Counts: map[string]int{"X": 100}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R9")
}

func TestGenerateRegion_UnknownCategoryFails(t *testing.T) {
	gen, err := New(Options{Categories: []string{"X"}, Seed: 1})
	require.NoError(t, err)

	region := unitSquareRegion(t, "R1", map[string]int{"Z": 100})
	_, err = gen.GenerateRegion(region)
	assert.Error(t, err)
}

func TestGenerate_CategoryCoverage(t *testing.T) {
	categories := []string{"A", "B", "C"}
	gen, err := New(Options{Categories: categories, Ratio: 100, Seed: 7})
	require.NoError(t, err)

	var regions []model.Region
	ids := map[string]bool{}
	for _, id := range []string{"R1", "R2", "R3", "R4"} {
		regions = append(regions, unitSquareRegion(t, id, map[string]int{"A": 800, "B": 400, "C": 200}))
		ids[id] = true
	}

	col, err := gen.Generate(context.Background(), "testcity", regions)
	require.NoError(t, err)
	assert.Equal(t, "testcity", col.City)
	assert.NotEmpty(t, col.Dots)

	allowed := map[string]bool{"A": true, "B": true, "C": true}
	for _, d := range col.Dots {
		assert.True(t, allowed[d.Category], "unexpected category %q", d.Category)
		assert.True(t, ids[d.RegionID], "unexpected region %q", d.RegionID)
	}
}

func TestGenerate_DeterministicAcrossConcurrency(t *testing.T) {
	var regions []model.Region
	for _, id := range []string{"R1", "R2", "R3", "R4", "R5", "R6"} {
		regions = append(regions, unitSquareRegion(t, id, map[string]int{"A": 550, "B": 120}))
	}

	run := func(concurrency int) *model.DotCollection {
		gen, err := New(Options{
			Categories:  []string{"A", "B"},
			Ratio:       100,
			Seed:        31337,
			Concurrency: concurrency,
		})
		require.NoError(t, err)
		col, err := gen.Generate(context.Background(), "testcity", regions)
		require.NoError(t, err)
		return col
	}

	serial := run(1)
	parallel := run(4)
	assert.Equal(t, serial.Dots, parallel.Dots)
}

func TestGenerate_FailsOnBadRegion(t *testing.T) {
	gen, err := New(Options{Categories: []string{"A"}, Seed: 3})
	require.NoError(t, err)

	regions := []model.Region{
		unitSquareRegion(t, "R1", map[string]int{"A": 300}),
		{ID: "broken", Counts: map[string]int{"A": 300}},
	}

	_, err = gen.Generate(context.Background(), "testcity", regions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestGenerate_ForceRareDot(t *testing.T) {
	// Three regions with one person each in category Z: 0.01 dots expected
	// per region, so Z rounds to zero everywhere for most seeds.
	build := func(seed int64, force bool) *model.DotCollection {
		gen, err := New(Options{
			Categories:   []string{"A", "Z"},
			Ratio:        100,
			Seed:         seed,
			ForceRareDot: force,
		})
		require.NoError(t, err)

		regions := []model.Region{
			unitSquareRegion(t, "R1", map[string]int{"A": 500, "Z": 1}),
			unitSquareRegion(t, "R2", map[string]int{"A": 500, "Z": 1}),
			unitSquareRegion(t, "R3", map[string]int{"A": 500, "Z": 1}),
		}
		col, err := gen.Generate(context.Background(), "testcity", regions)
		require.NoError(t, err)
		return col
	}

	// Find a seed whose plain run leaves Z empty, then force with it.
	var seed int64
	var plain *model.DotCollection
	for seed = 1; seed < 50; seed++ {
		plain = build(seed, false)
		if plain.CountByCategory()["Z"] == 0 {
			break
		}
	}
	require.Equal(t, 0, plain.CountByCategory()["Z"])

	forced := build(seed, true)
	assert.Equal(t, 1, forced.CountByCategory()["Z"])

	// The forced dot still lies inside its host region's polygon.
	square := squareMP(t, 0, 0, 1, 1)
	for _, d := range forced.Dots {
		if d.Category == "Z" {
			assert.True(t, Contains(square, geom.Coord{d.Lon, d.Lat}))
		}
	}
}

func TestGenerate_ForceRareDotSkipsZeroPopulation(t *testing.T) {
	gen, err := New(Options{
		Categories:   []string{"A", "Z"},
		Ratio:        100,
		Seed:         2,
		ForceRareDot: true,
	})
	require.NoError(t, err)

	regions := []model.Region{
		unitSquareRegion(t, "R1", map[string]int{"A": 500}),
	}
	col, err := gen.Generate(context.Background(), "testcity", regions)
	require.NoError(t, err)

	// Z has no population anywhere, so even the forced pass leaves it out.
	assert.Equal(t, 0, col.CountByCategory()["Z"])
}

func TestGenerate_NoRegionsFails(t *testing.T) {
	gen, err := New(Options{Categories: []string{"A"}})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "testcity", nil)
	assert.Error(t, err)
}
