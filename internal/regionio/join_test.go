package regionio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func testBoundary(t *testing.T, id string) Boundary {
	t.Helper()
	poly := geom.NewPolygonFlat(geom.XY,
		[]float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}, []int{10})
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return Boundary{ID: id, Geometry: mp}
}

func TestJoin(t *testing.T) {
	boundaries := []Boundary{testBoundary(t, "R2"), testBoundary(t, "R1")}
	counts := map[string]map[string]int{
		"R1": {"A": 10},
		"R2": {"A": 5, "B": 2},
	}

	regions, err := Join("copenhagen", boundaries, counts, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, regions, 2)

	// Sorted by ID for stable downstream ordering.
	assert.Equal(t, "R1", regions[0].ID)
	assert.Equal(t, "R2", regions[1].ID)
	assert.Equal(t, "copenhagen", regions[0].City)

	// Missing categories are filled with zeros.
	assert.Equal(t, map[string]int{"A": 10, "B": 0}, regions[0].Counts)
	assert.Equal(t, map[string]int{"A": 5, "B": 2}, regions[1].Counts)
}

func TestJoin_CountsWithoutBoundaryFails(t *testing.T) {
	boundaries := []Boundary{testBoundary(t, "R1")}
	counts := map[string]map[string]int{
		"R1": {"A": 10},
		"R9": {"A": 3},
	}

	_, err := Join("copenhagen", boundaries, counts, []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R9")
}

func TestJoin_BoundaryWithoutCountsFails(t *testing.T) {
	boundaries := []Boundary{testBoundary(t, "R1"), testBoundary(t, "R2")}
	counts := map[string]map[string]int{"R1": {"A": 10}}

	_, err := Join("berlin", boundaries, counts, []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R2")
}

func TestJoin_DuplicateBoundaryFails(t *testing.T) {
	boundaries := []Boundary{testBoundary(t, "R1"), testBoundary(t, "R1")}
	counts := map[string]map[string]int{"R1": {"A": 10}}

	_, err := Join("berlin", boundaries, counts, []string{"A"})
	assert.Error(t, err)
}
