package track

import (
	"fmt"
	"time"
)

// StageType classifies a stage as riding or stopped.
type StageType int

const (
	// Moving is a stage where the rider is underway.
	Moving StageType = iota
	// Control is a stopped stage, named for the controls (checkpoints)
	// of audax/randonneur events where riders stop to get cards stamped.
	Control
)

func (t StageType) String() string {
	switch t {
	case Moving:
		return "Moving"
	case Control:
		return "Control"
	}
	return fmt.Sprintf("StageType(%d)", int(t))
}

func (t StageType) toggle() StageType {
	if t == Moving {
		return Control
	}
	return Moving
}

// Stage is a view over a contiguous, non-empty index range of an
// enriched point sequence. It holds no points itself; every query takes
// the point buffer the stage was detected on.
type Stage struct {
	Type       StageType
	StartIndex int
	EndIndex   int
}

// StageList is the ordered partition of a track into stages. For any
// track with at least two points and complete timestamps the ranges
// tile [0, n-1] exactly and the types strictly alternate.
type StageList []Stage

// StageParams controls the stage detection algorithm. Validation of
// sensible ranges is left to the caller (the CLI layer).
type StageParams struct {
	// StoppedSpeedKmh is the speed floor below which a point counts as
	// stopped. The default is a dead stop; GPS jitter alone usually
	// reads faster than this.
	StoppedSpeedKmh float64

	// MinControlTime is the minimum stop duration for a stop to count
	// as a Control rather than noise (traffic lights, junctions).
	MinControlTime time.Duration

	// ControlResumptionMetres is how far you must move, as the crow
	// flies from the stop point, to be considered underway again.
	ControlResumptionMetres float64
}

// DefaultStageParams returns the parameters used for typical
// audax ride analysis.
func DefaultStageParams() StageParams {
	return StageParams{
		StoppedSpeedKmh:         0.15,
		MinControlTime:          5 * time.Minute,
		ControlResumptionMetres: 100.0,
	}
}

// Fixed heuristics for classifying the first stage. Not configuration:
// they only decide which of the two alternating types the track opens
// with, from the first three minutes of data.
const (
	initialClassificationWindow = 180 * time.Second
	initialMovingSpeedKmh       = 5.0
)

// DetectStages partitions an enriched track into alternating Moving and
// Control stages.
//
// Degenerate inputs are not errors: a track with fewer than two points,
// or with any point missing a timestamp, yields an empty list, because
// the timing maths below is undefined without complete monotonic
// timestamps. A postcondition violation in the produced list is an
// error; it means the scan itself is broken.
func DetectStages(points []Point, params StageParams) (StageList, error) {
	if len(points) < 2 {
		return nil, nil
	}
	for i := range points {
		if !points[i].HasTime() {
			return nil, nil
		}
	}

	lastValidIdx := len(points) - 1
	stageType := startingStageType(points)

	// The loop runs while any point remains uncovered. A stage ending one
	// short of the last point leaves a final single-point stage, which the
	// find functions handle by returning lastValidIdx immediately.
	var stages StageList
	startIdx := 0
	for startIdx <= lastValidIdx {
		var endIdx int
		switch stageType {
		case Moving:
			endIdx = findStopIndex(points, startIdx, lastValidIdx, params)
		case Control:
			endIdx = findResumeIndex(points, startIdx, lastValidIdx, params.ControlResumptionMetres)
		}

		stages = append(stages, Stage{Type: stageType, StartIndex: startIdx, EndIndex: endIdx})

		// Stages do not share points, the next one starts on the next.
		startIdx = endIdx + 1
		stageType = stageType.toggle()
	}

	if err := stages.validate(len(points)); err != nil {
		return nil, err
	}
	return stages, nil
}

// startingStageType figures out whether the track opens Moving or
// Control. Usually a ride starts with you riding, but it is not
// impossible to turn the unit on and then stand around for a while, so
// we classify from the average speed over the first three minutes
// rather than assuming.
func startingStageType(points []Point) StageType {
	lastValidIdx := len(points) - 1
	windowStart := points[1].StartTime()

	endIdx := 1
	for endIdx < lastValidIdx && points[endIdx].Time.Sub(windowStart) < initialClassificationWindow {
		endIdx++
	}

	// Point 1's recording interval began at point 0's position, so the
	// distance covered since windowStart is the full running distance.
	distance := points[endIdx].RunningMetres
	elapsed := points[endIdx].Time.Sub(windowStart)

	if SpeedKmhFromDuration(distance, elapsed) >= initialMovingSpeedKmh {
		return Moving
	}
	return Control
}

// findStopIndex finds the end of a Moving stage: the last point before
// the speed drops to the stopped floor and stays down long enough.
//
// We scan forward for a drop to or below StoppedSpeedKmh and note the
// point immediately before it as a candidate stage end. From the drop we
// keep scanning until the running distance from the candidate covers
// ControlResumptionMetres, then measure how long that took. A stop can
// be a single trackpoint whose recording interval spans the whole 25
// minutes at the cafe, which is why the elapsed time is measured from
// the candidate's start time and not its timestamp. If the stop lasted
// at least MinControlTime the candidate is confirmed; otherwise it was
// just a junction, and the scan resumes from where the distance check
// left off - never rewinding.
//
// Exhausting the track before confirmation truncates the stage at the
// last valid index.
func findStopIndex(points []Point, startIdx, lastValidIdx int, params StageParams) int {
	endIdx := startIdx + 1

	for endIdx <= lastValidIdx {
		// Find the first time we drop to or below the stopped floor.
		for endIdx <= lastValidIdx && *points[endIdx].SpeedKmh > params.StoppedSpeedKmh {
			endIdx++
		}
		if endIdx >= lastValidIdx {
			return lastValidIdx
		}

		candidate := endIdx - 1

		// Scan forward until we have moved far enough from the candidate
		// to be sure the ride is underway again.
		for endIdx <= lastValidIdx &&
			points[endIdx].RunningMetres-points[candidate].RunningMetres < params.ControlResumptionMetres {
			endIdx++
		}
		if endIdx >= lastValidIdx {
			return lastValidIdx
		}

		stopDuration := points[endIdx].Time.Sub(points[candidate].StartTime())
		if stopDuration >= params.MinControlTime {
			return candidate
		}

		// Too short to be a control. Keep searching from here.
		endIdx++
	}

	return lastValidIdx
}

// findResumeIndex finds the end of a Control stage: the first point more
// than resumptionMetres from the stage start, as the crow flies. Running
// distance is useless here - pacing around the cafe racks up running
// metres without going anywhere.
func findResumeIndex(points []Point, startIdx, lastValidIdx int, resumptionMetres float64) int {
	start := &points[startIdx]

	for endIdx := startIdx + 1; endIdx <= lastValidIdx; endIdx++ {
		if distanceBetween(start, &points[endIdx]) > resumptionMetres {
			return endIdx
		}
	}

	return lastValidIdx
}

// validate checks the tiling invariants of a built list: full coverage
// of [0, n-1] with no gaps or overlaps, and strict type alternation.
func (stages StageList) validate(numPoints int) error {
	if len(stages) == 0 {
		return fmt.Errorf("stage detection produced no stages for %d points", numPoints)
	}
	if first := stages[0].StartIndex; first != 0 {
		return fmt.Errorf("first stage starts at index %d, want 0", first)
	}
	if last := stages[len(stages)-1].EndIndex; last != numPoints-1 {
		return fmt.Errorf("last stage ends at index %d, want %d", last, numPoints-1)
	}
	for i, s := range stages {
		if s.EndIndex < s.StartIndex {
			return fmt.Errorf("stage %d has empty range [%d, %d]", i, s.StartIndex, s.EndIndex)
		}
		if i == 0 {
			continue
		}
		if stages[i-1].EndIndex+1 != s.StartIndex {
			return fmt.Errorf("stage %d starts at index %d, want %d", i, s.StartIndex, stages[i-1].EndIndex+1)
		}
		if stages[i-1].Type == s.Type {
			return fmt.Errorf("stage %d repeats type %s", i, s.Type)
		}
	}
	return nil
}
