package track

import (
	"fmt"
	"time"

	"github.com/ridelab/gstage/internal/gpx"
)

// TimestampError reports a non-monotonic or duplicate timestamp. The
// track it came from is corrupt and cannot be analyzed, but a batch run
// can carry on with the next file.
type TimestampError struct {
	// Index of the offending point.
	Index int
	// Time of the offending point and of its predecessor.
	Time, PrevTime time.Time
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("point %d: timestamp %s is not after previous timestamp %s",
		e.Index, e.Time.Format(time.RFC3339), e.PrevTime.Format(time.RFC3339))
}

// Enrich converts a raw ordered point sequence into enriched points
// carrying deltas and running sums. The output has the same length and
// order as the input. Points are assumed to be in chronological order;
// Enrich validates this where timestamps exist but never re-sorts.
//
// Fields that cannot be derived because an input was missing are left
// nil and simply stay unknown; only a non-positive time delta is an
// error, because it means the recording itself is broken.
func Enrich(points []gpx.Point) ([]Point, error) {
	if len(points) == 0 {
		return nil, nil
	}

	enriched := make([]Point, len(points))
	for i, p := range points {
		enriched[i] = Point{
			Index:     i,
			Lat:       p.Lat,
			Lon:       p.Lon,
			Elevation: p.Elevation,
			Time:      p.Time,
			Ext:       p.Ext,
		}
	}

	// Seed point 0. Quite a few running calculations rely on these
	// starting values being set when the underlying data exists.
	first := &enriched[0]
	if first.HasTime() {
		zero := time.Duration(0)
		zeroSpeed := 0.0
		first.DeltaTime = &zero
		first.RunningDuration = &zero
		first.SpeedKmh = &zeroSpeed
	}

	// Cumulative ascent/descent state, nil until we see an elevation.
	var cumAscent, cumDescent *float64
	if first.Elevation != nil {
		z1, z2, z3 := 0.0, 0.0, 0.0
		first.EleDeltaMetres = &z1
		cumAscent, cumDescent = &z2, &z3
		first.RunningAscentMetres = cumAscent
		first.RunningDescentMetres = cumDescent
	}

	startTime := first.Time

	for i := 1; i < len(enriched); i++ {
		prev, cur := &enriched[i-1], &enriched[i]

		cur.DeltaMetres = distanceBetween(prev, cur)
		cur.RunningMetres = prev.RunningMetres + cur.DeltaMetres

		if cur.HasTime() && prev.HasTime() {
			dt := cur.Time.Sub(prev.Time)
			if dt <= 0 {
				return nil, &TimestampError{Index: i, Time: cur.Time, PrevTime: prev.Time}
			}
			cur.DeltaTime = &dt
		}

		if cur.DeltaTime != nil {
			speed := SpeedKmhFromDuration(cur.DeltaMetres, *cur.DeltaTime)
			cur.SpeedKmh = &speed
		}

		if cur.HasTime() && !startTime.IsZero() {
			rd := cur.Time.Sub(startTime)
			if rd <= 0 {
				return nil, &TimestampError{Index: i, Time: cur.Time, PrevTime: startTime}
			}
			cur.RunningDuration = &rd
		}

		if cur.Elevation != nil && prev.Elevation != nil {
			delta := *cur.Elevation - *prev.Elevation
			cur.EleDeltaMetres = &delta

			if delta > 0 {
				v := valueOrZero(cumAscent) + delta
				cumAscent = &v
			} else {
				v := valueOrZero(cumDescent) - delta
				cumDescent = &v
			}
		}

		// Carried forward unchanged when elevation is missing here.
		cur.RunningAscentMetres = cumAscent
		cur.RunningDescentMetres = cumDescent
	}

	return enriched, nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
