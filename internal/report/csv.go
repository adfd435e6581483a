package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ridelab/gstage/internal/track"
)

// WriteCSVFile dumps every enriched trackpoint to path. Handy for
// eyeballing the derived figures in a spreadsheet when a stage boundary
// looks off.
func WriteCSVFile(path string, points []track.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, points)
}

// WriteCSV writes the enriched trackpoints to w in CSV form, one row
// per point, empty cells for unknown values.
func WriteCSV(w io.Writer, points []track.Point) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Index", "Time", "Lat", "Lon", "Ele",
		"DeltaMetres", "RunningMetres", "DeltaTimeSecs", "RunningSecs",
		"SpeedKmh", "EleDeltaMetres", "RunningAscentMetres", "RunningDescentMetres",
		"HeartRate", "Cadence", "AirTemp",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range points {
		p := &points[i]
		row := []string{
			strconv.Itoa(p.Index),
			csvTime(p.Time),
			strconv.FormatFloat(p.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Lon, 'f', -1, 64),
			csvFloat(p.Elevation),
			strconv.FormatFloat(p.DeltaMetres, 'f', 2, 64),
			strconv.FormatFloat(p.RunningMetres, 'f', 2, 64),
			csvDuration(p.DeltaTime),
			csvDuration(p.RunningDuration),
			csvFloat(p.SpeedKmh),
			csvFloat(p.EleDeltaMetres),
			csvFloat(p.RunningAscentMetres),
			csvFloat(p.RunningDescentMetres),
			csvInt(p.Ext.HeartRate),
			csvInt(p.Ext.Cadence),
			csvFloat(p.Ext.AirTemp),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func csvInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func csvDuration(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64)
}
