package track

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Aggregate queries over stages. All of these are read-only reductions
// over the point buffer the stages were detected on; the buffer is
// passed explicitly because stages are only index ranges into it.
//
// Elevation and speed aggregates are all-or-nothing: if any point in the
// stage lacks the field, the aggregate for the whole stage is nil.
// Heart rate and temperature aggregates are computed over whichever
// points carry the field, independently of the rest.

// Start returns the first point of the stage.
func (s Stage) Start(points []Point) *Point {
	return &points[s.StartIndex]
}

// End returns the last point of the stage.
func (s Stage) End(points []Point) *Point {
	return &points[s.EndIndex]
}

// Duration returns the time span of the stage, measured from the start
// point's start time to the end point's timestamp. Consecutive stage
// durations telescope: they sum exactly to the track's total duration.
func (s Stage) Duration(points []Point) time.Duration {
	return s.End(points).Time.Sub(s.Start(points).StartTime())
}

// DistanceMetres returns the distance covered by the stage, including
// the travel into its first point, so that stage distances sum exactly
// to the track total.
func (s Stage) DistanceMetres(points []Point) float64 {
	start, end := s.Start(points), s.End(points)
	return end.RunningMetres - start.RunningMetres + start.DeltaMetres
}

// AverageSpeedKmh returns the average speed over the stage.
func (s Stage) AverageSpeedKmh(points []Point) float64 {
	return SpeedKmhFromDuration(s.DistanceMetres(points), s.Duration(points))
}

// AscentMetres returns the total climb during the stage, or nil when
// the running ascent is unknown at either end. As with DistanceMetres,
// the climb into the stage's first point belongs to this stage, so the
// baseline is the running value at the point before the stage; stage
// ascents then sum exactly to the ride total.
func (s Stage) AscentMetres(points []Point) *float64 {
	return runningDifference(s.runningBefore(points, ascentOf), s.End(points).RunningAscentMetres)
}

// DescentMetres returns the total drop during the stage, or nil when
// the running descent is unknown at either end.
func (s Stage) DescentMetres(points []Point) *float64 {
	return runningDifference(s.runningBefore(points, descentOf), s.End(points).RunningDescentMetres)
}

// runningBefore returns the cumulative value just before the stage
// begins. The first stage starts at point 0, whose running values are
// zero when known, so its own value serves as the baseline.
func (s Stage) runningBefore(points []Point, metric func(*Point) *float64) *float64 {
	if s.StartIndex == 0 {
		return metric(&points[0])
	}
	return metric(&points[s.StartIndex-1])
}

func ascentOf(p *Point) *float64  { return p.RunningAscentMetres }
func descentOf(p *Point) *float64 { return p.RunningDescentMetres }

func runningDifference(start, end *float64) *float64 {
	if start == nil || end == nil {
		return nil
	}
	d := *end - *start
	return &d
}

// MinElevation returns the point of minimum elevation within the stage,
// or nil if any point in range lacks elevation. Ties go to the first
// occurrence.
func (s Stage) MinElevation(points []Point) *Point {
	return s.pickElevation(points, func(candidate, best float64) bool { return candidate < best })
}

// MaxElevation returns the point of maximum elevation within the stage,
// or nil if any point in range lacks elevation. Ties go to the first
// occurrence.
func (s Stage) MaxElevation(points []Point) *Point {
	return s.pickElevation(points, func(candidate, best float64) bool { return candidate > best })
}

func (s Stage) pickElevation(points []Point, better func(candidate, best float64) bool) *Point {
	var best *Point
	for i := s.StartIndex; i <= s.EndIndex; i++ {
		p := &points[i]
		if p.Elevation == nil {
			return nil
		}
		if best == nil || better(*p.Elevation, *best.Elevation) {
			best = p
		}
	}
	return best
}

// MaxSpeed returns the point of maximum instantaneous speed within the
// stage, or nil if any point in range lacks a speed. Ties go to the
// first occurrence.
func (s Stage) MaxSpeed(points []Point) *Point {
	var best *Point
	for i := s.StartIndex; i <= s.EndIndex; i++ {
		p := &points[i]
		if p.SpeedKmh == nil {
			return nil
		}
		if best == nil || *p.SpeedKmh > *best.SpeedKmh {
			best = p
		}
	}
	return best
}

// AvgHeartRate returns the mean heart rate over the points in the stage
// that carry one, or nil when none do.
func (s Stage) AvgHeartRate(points []Point) *float64 {
	var rates []float64
	for i := s.StartIndex; i <= s.EndIndex; i++ {
		if hr := points[i].Ext.HeartRate; hr != nil {
			rates = append(rates, float64(*hr))
		}
	}
	if len(rates) == 0 {
		return nil
	}
	mean := stat.Mean(rates, nil)
	return &mean
}

// MaxHeartRate returns the point of maximum heart rate among the points
// in the stage that carry one, or nil when none do.
func (s Stage) MaxHeartRate(points []Point) *Point {
	var best *Point
	for i := s.StartIndex; i <= s.EndIndex; i++ {
		p := &points[i]
		if p.Ext.HeartRate == nil {
			continue
		}
		if best == nil || *p.Ext.HeartRate > *best.Ext.HeartRate {
			best = p
		}
	}
	return best
}

// MinAirTemp returns the coldest point among those carrying an air
// temperature, or nil when none do.
func (s Stage) MinAirTemp(points []Point) *Point {
	return s.pickAirTemp(points, func(candidate, best float64) bool { return candidate < best })
}

// MaxAirTemp returns the warmest point among those carrying an air
// temperature, or nil when none do.
func (s Stage) MaxAirTemp(points []Point) *Point {
	return s.pickAirTemp(points, func(candidate, best float64) bool { return candidate > best })
}

func (s Stage) pickAirTemp(points []Point, better func(candidate, best float64) bool) *Point {
	var best *Point
	for i := s.StartIndex; i <= s.EndIndex; i++ {
		p := &points[i]
		if p.Ext.AirTemp == nil {
			continue
		}
		if best == nil || better(*p.Ext.AirTemp, *best.Ext.AirTemp) {
			best = p
		}
	}
	return best
}

// AvgAirTemp returns the mean air temperature over the points in the
// stage that carry one, or nil when none do.
func (s Stage) AvgAirTemp(points []Point) *float64 {
	var temps []float64
	for i := s.StartIndex; i <= s.EndIndex; i++ {
		if at := points[i].Ext.AirTemp; at != nil {
			temps = append(temps, *at)
		}
	}
	if len(temps) == 0 {
		return nil
	}
	mean := stat.Mean(temps, nil)
	return &mean
}

// Duration returns the total time span from the start of the first
// stage to the end of the last.
func (stages StageList) Duration(points []Point) time.Duration {
	if len(stages) == 0 {
		return 0
	}
	first := stages[0].Start(points)
	last := stages[len(stages)-1].End(points)
	return last.Time.Sub(first.StartTime())
}

// TotalStoppedTime returns the summed duration of the Control stages.
func (stages StageList) TotalStoppedTime(points []Point) time.Duration {
	var total time.Duration
	for _, s := range stages {
		if s.Type == Control {
			total += s.Duration(points)
		}
	}
	return total
}

// TotalMovingTime returns the total duration minus the stopped time.
func (stages StageList) TotalMovingTime(points []Point) time.Duration {
	return stages.Duration(points) - stages.TotalStoppedTime(points)
}

// DistanceMetres returns the total distance across all stages.
func (stages StageList) DistanceMetres(points []Point) float64 {
	var total float64
	for _, s := range stages {
		total += s.DistanceMetres(points)
	}
	return total
}

// DistanceKm returns the total distance across all stages in km.
func (stages StageList) DistanceKm(points []Point) float64 {
	return stages.DistanceMetres(points) / 1000.0
}

// AverageMovingSpeedKmh returns the average speed excluding stopped
// time. This is the distance-weighted figure: every moving metre counts
// once no matter which stage it fell in.
func (stages StageList) AverageMovingSpeedKmh(points []Point) float64 {
	return SpeedKmhFromDuration(stages.DistanceMetres(points), stages.TotalMovingTime(points))
}

// AverageOverallSpeedKmh returns the average speed including stopped
// time.
func (stages StageList) AverageOverallSpeedKmh(points []Point) float64 {
	return SpeedKmhFromDuration(stages.DistanceMetres(points), stages.Duration(points))
}

// TotalAscentMetres returns the summed climb across all stages, or nil
// when any stage's ascent is unknown.
func (stages StageList) TotalAscentMetres(points []Point) *float64 {
	return stages.sumRunning(points, Stage.AscentMetres)
}

// TotalDescentMetres returns the summed drop across all stages, or nil
// when any stage's descent is unknown.
func (stages StageList) TotalDescentMetres(points []Point) *float64 {
	return stages.sumRunning(points, Stage.DescentMetres)
}

func (stages StageList) sumRunning(points []Point, metric func(Stage, []Point) *float64) *float64 {
	var total float64
	for _, s := range stages {
		v := metric(s, points)
		if v == nil {
			return nil
		}
		total += *v
	}
	return &total
}

// MinElevation returns the point of minimum elevation across all
// stages, or nil when any stage's elevation data is incomplete. Ties go
// to the first occurrence in scan order.
func (stages StageList) MinElevation(points []Point) *Point {
	return stages.pickPoint(points, Stage.MinElevation, func(candidate, best *Point) bool {
		return *candidate.Elevation < *best.Elevation
	})
}

// MaxElevation returns the point of maximum elevation across all
// stages, or nil when any stage's elevation data is incomplete. Ties go
// to the first occurrence in scan order.
func (stages StageList) MaxElevation(points []Point) *Point {
	return stages.pickPoint(points, Stage.MaxElevation, func(candidate, best *Point) bool {
		return *candidate.Elevation > *best.Elevation
	})
}

// MaxSpeed returns the point of maximum speed across all stages, or nil
// when any stage's speed data is incomplete. Ties go to the first
// occurrence in scan order.
func (stages StageList) MaxSpeed(points []Point) *Point {
	return stages.pickPoint(points, Stage.MaxSpeed, func(candidate, best *Point) bool {
		return *candidate.SpeedKmh > *best.SpeedKmh
	})
}

// pickPoint reduces a per-stage extremum over the whole list. A nil
// per-stage value makes the whole reduction nil (incomplete data).
func (stages StageList) pickPoint(points []Point, metric func(Stage, []Point) *Point, better func(candidate, best *Point) bool) *Point {
	var best *Point
	for _, s := range stages {
		candidate := metric(s, points)
		if candidate == nil {
			return nil
		}
		if best == nil || better(candidate, best) {
			best = candidate
		}
	}
	return best
}

// MaxHeartRate returns the point of maximum heart rate across all
// stages, over whichever points carry one. Nil when none do.
func (stages StageList) MaxHeartRate(points []Point) *Point {
	var best *Point
	for _, s := range stages {
		candidate := s.MaxHeartRate(points)
		if candidate == nil {
			continue
		}
		if best == nil || *candidate.Ext.HeartRate > *best.Ext.HeartRate {
			best = candidate
		}
	}
	return best
}

// AvgHeartRate returns the mean heart rate over every point in the
// track that carries one. Nil when none do.
func (stages StageList) AvgHeartRate(points []Point) *float64 {
	var rates []float64
	for i := range points {
		if hr := points[i].Ext.HeartRate; hr != nil {
			rates = append(rates, float64(*hr))
		}
	}
	if len(rates) == 0 {
		return nil
	}
	mean := stat.Mean(rates, nil)
	return &mean
}

// MinAirTemp returns the coldest point across all stages, over
// whichever points carry a temperature. Nil when none do.
func (stages StageList) MinAirTemp(points []Point) *Point {
	var best *Point
	for _, s := range stages {
		candidate := s.MinAirTemp(points)
		if candidate == nil {
			continue
		}
		if best == nil || *candidate.Ext.AirTemp < *best.Ext.AirTemp {
			best = candidate
		}
	}
	return best
}

// MaxAirTemp returns the warmest point across all stages, over
// whichever points carry a temperature. Nil when none do.
func (stages StageList) MaxAirTemp(points []Point) *Point {
	var best *Point
	for _, s := range stages {
		candidate := s.MaxAirTemp(points)
		if candidate == nil {
			continue
		}
		if best == nil || *candidate.Ext.AirTemp > *best.Ext.AirTemp {
			best = candidate
		}
	}
	return best
}
