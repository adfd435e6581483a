package track

import (
	"math"
	"time"

	"github.com/ridelab/gstage/internal/gpx"
)

// Point is a trackpoint enriched with derived kinematic data. The
// pointer fields are nil when the inputs needed to derive them were
// missing from the file. Points are created once by Enrich and never
// mutated afterwards; stages reference them by index.
type Point struct {
	// Index is the position of the point in the original sequence.
	// It is the stable identity used for cross-referencing stages
	// and report hyperlinks.
	Index int

	Lat       float64
	Lon       float64
	Elevation *float64
	Time      time.Time
	Ext       gpx.Extensions

	// DeltaMetres is the distance from the previous point.
	DeltaMetres float64
	// RunningMetres is the cumulative distance from point 0.
	RunningMetres float64
	// DeltaTime is the elapsed time since the previous point. Strictly
	// positive whenever both adjacent timestamps exist.
	DeltaTime *time.Duration
	// RunningDuration is the elapsed time since point 0.
	RunningDuration *time.Duration
	// SpeedKmh is the instantaneous speed over the last delta. Nil when
	// the delta time is unknown.
	SpeedKmh *float64
	// EleDeltaMetres is the elevation change from the previous point.
	EleDeltaMetres *float64
	// RunningAscentMetres and RunningDescentMetres accumulate climb and
	// drop from point 0. When elevation is missing at a step the previous
	// cumulative values are carried forward unchanged.
	RunningAscentMetres  *float64
	RunningDescentMetres *float64
}

// HasTime reports whether the point carries a timestamp.
func (p *Point) HasTime() bool {
	return !p.Time.IsZero()
}

// StartTime returns the instant this point's recording interval began.
// A trackpoint's timestamp marks when the point was written, which while
// stopped can be long after the stop actually began: a unit recording at
// 1s intervals may go quiet for 20 minutes and then write one point
// whose time is the end of that gap. Stage boundary timing must use this
// value, never the raw timestamp.
//
// For point 0 there is no predecessor, so its raw timestamp is returned.
// Returns the zero time when the value cannot be derived.
func (p *Point) StartTime() time.Time {
	if p.Index == 0 {
		return p.Time
	}
	if !p.HasTime() || p.DeltaTime == nil {
		return time.Time{}
	}
	return p.Time.Add(-*p.DeltaTime)
}

// AirTemp returns the air temperature extension value, if present.
func (p *Point) AirTemp() *float64 {
	return p.Ext.AirTemp
}

// HeartRate returns the heart rate extension value, if present.
func (p *Point) HeartRate() *int {
	return p.Ext.HeartRate
}

// Cadence returns the cadence extension value, if present.
func (p *Point) Cadence() *int {
	return p.Ext.Cadence
}

const earthRadiusMetres = 6371000

// DistanceMetres calculates the great-circle surface distance between
// two coordinates using the haversine formula. Planar maths on raw
// degrees is not good enough here: a degree of longitude shrinks with
// latitude, so spherical trigonometry it is. Symmetric, and zero for
// identical coordinates.
func DistanceMetres(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMetres * c
}

// distanceBetween is DistanceMetres for two enriched points.
func distanceBetween(p1, p2 *Point) float64 {
	return DistanceMetres(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
}

// SpeedKmh calculates speed in km/h from metres and seconds.
func SpeedKmh(metres, seconds float64) float64 {
	return metres / seconds * 3.6
}

// SpeedKmhFromDuration calculates speed in km/h from metres and a
// duration.
func SpeedKmhFromDuration(metres float64, d time.Duration) float64 {
	return SpeedKmh(metres, d.Seconds())
}
