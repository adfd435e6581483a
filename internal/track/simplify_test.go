package track

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridelab/gstage/internal/gpx"
)

func TestMetresToEpsilon(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 9.0e-5, MetresToEpsilon(10), 1e-9)
	assert.InDelta(t, 9.0e-6, MetresToEpsilon(1), 1e-10)
	assert.Zero(t, MetresToEpsilon(0))
}

func TestSimplifyCollapsesStraightLine(t *testing.T) {
	t.Parallel()

	// Five colinear points a metre apart. With 10m accuracy everything
	// between the endpoints is noise.
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	points := rideAt(t0, time.Second, 0, 1, 2, 3, 4)

	reduced := Simplify(points, MetresToEpsilon(10))

	require.Len(t, reduced, 2)
	assert.Empty(t, cmp.Diff(points[0], reduced[0]))
	assert.Empty(t, cmp.Diff(points[len(points)-1], reduced[1]))
}

func TestSimplifyZeroEpsilonKeepsDetail(t *testing.T) {
	t.Parallel()

	// A zigzag has no redundant points; with a zero tolerance every
	// deviation counts and the input survives intact.
	points := zigzag(9)

	reduced := Simplify(points, 0)

	assert.Empty(t, cmp.Diff(points, reduced))
}

func TestSimplifyKeepsEndpointsAndOrder(t *testing.T) {
	t.Parallel()

	points := zigzag(21)
	reduced := Simplify(points, MetresToEpsilon(5))

	require.NotEmpty(t, reduced)
	assert.LessOrEqual(t, len(reduced), len(points))
	assert.Empty(t, cmp.Diff(points[0], reduced[0]))
	assert.Empty(t, cmp.Diff(points[len(points)-1], reduced[len(reduced)-1]))
	assertSubsequence(t, points, reduced)
}

func TestSimplifyDegenerateInputs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Simplify(nil, 1e-4))

	two := zigzag(2)
	assert.Empty(t, cmp.Diff(two, Simplify(two, 1e-4)))
}

// zigzag builds n points heading north with the longitude alternating
// about 8m either side of the meridian.
func zigzag(n int) []gpx.Point {
	points := make([]gpx.Point, n)
	for i := range points {
		lon := 7.0
		if i%2 == 1 {
			lon += 1e-4
		}
		points[i] = gpx.Point{
			Lat: 46.0 + float64(i)*10/metresPerDegreeLat,
			Lon: lon,
		}
	}
	return points
}

// assertSubsequence checks that got preserves the relative order of a
// subset of want.
func assertSubsequence(t *testing.T, want, got []gpx.Point) {
	t.Helper()
	j := 0
	for i := 0; i < len(want) && j < len(got); i++ {
		if cmp.Diff(want[i], got[j]) == "" {
			j++
		}
	}
	assert.Equal(t, len(got), j, "result is not an ordered subsequence of the input")
}
