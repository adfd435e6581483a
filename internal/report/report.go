// Package report renders the per-ride analysis outputs: an HTML summary
// with the overall figures and the stage table, elevation and speed
// charts, and a CSV dump of every enriched trackpoint.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ridelab/gstage/internal/track"
)

// Ride bundles everything the report needs about one analyzed track.
type Ride struct {
	// Name of the track, usually from the GPX metadata or filename.
	Name string
	// Points is the enriched point buffer the stages index into.
	Points []track.Point
	// Stages is the detected stage partition. May be empty when the
	// track had incomplete timestamps.
	Stages track.StageList
}

// WriteHTML writes the ride summary to basePath+"_stages.html". Charts
// are written alongside as separate files and embedded via iframes, so
// the summary stays readable even if a chart cannot be produced for
// lack of data.
func WriteHTML(basePath string, ride Ride) error {
	var chartFiles []string

	if eleFile, ok := writeChart(basePath+"_elevation.html", elevationChart(ride)); ok {
		chartFiles = append(chartFiles, eleFile)
	}
	if speedFile, ok := writeChart(basePath+"_speed.html", speedChart(ride)); ok {
		chartFiles = append(chartFiles, speedFile)
	}

	f, err := os.Create(basePath + "_stages.html")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	data := buildTemplateData(ride, chartFiles)
	if err := reportTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// writeChart renders a chart to its own HTML file. A nil chart (no data
// to plot) is skipped without error.
func writeChart(path string, chart *charts.Line) (string, bool) {
	if chart == nil {
		return "", false
	}

	f, err := os.Create(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	if err := chart.Render(f); err != nil {
		return "", false
	}
	return filepath.Base(path), true
}

// elevationChart plots elevation against running distance. Returns nil
// when any point lacks elevation.
func elevationChart(ride Ride) *charts.Line {
	if len(ride.Points) == 0 {
		return nil
	}

	xLabels := make([]string, 0, len(ride.Points))
	series := make([]opts.LineData, 0, len(ride.Points))
	for i := range ride.Points {
		p := &ride.Points[i]
		if p.Elevation == nil {
			return nil
		}
		xLabels = append(xLabels, fmt.Sprintf("%.1f", p.RunningMetres/1000.0))
		series = append(series, opts.LineData{Value: *p.Elevation})
	}

	line := newLineChart("Elevation profile", ride.Name, "Distance (km)", "Elevation (m)")
	line.SetXAxis(xLabels).AddSeries("elevation", series,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}))
	return line
}

// speedChart plots instantaneous speed against running distance.
// Returns nil when any point lacks a speed.
func speedChart(ride Ride) *charts.Line {
	if len(ride.Points) == 0 {
		return nil
	}

	xLabels := make([]string, 0, len(ride.Points))
	series := make([]opts.LineData, 0, len(ride.Points))
	for i := range ride.Points {
		p := &ride.Points[i]
		if p.SpeedKmh == nil {
			return nil
		}
		xLabels = append(xLabels, fmt.Sprintf("%.1f", p.RunningMetres/1000.0))
		series = append(series, opts.LineData{Value: *p.SpeedKmh})
	}

	line := newLineChart("Speed", ride.Name, "Distance (km)", "Speed (km/h)")
	line.SetXAxis(xLabels).AddSeries("speed", series,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func newLineChart(title, subtitle, xName, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1200px",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

type summaryRow struct {
	Label, Value string
}

type stageRow struct {
	Number       int
	Type         string
	Start        string
	End          string
	Duration     string
	Distance     string
	AvgSpeed     string
	Ascent       string
	Descent      string
	MinElevation string
	MaxElevation string
	MaxSpeed     string
	AvgHR        string
	MaxHR        string
	AvgTemp      string
}

type templateData struct {
	Name       string
	Summary    []summaryRow
	Stages     []stageRow
	NoStages   bool
	ChartFiles []string
}

func buildTemplateData(ride Ride, chartFiles []string) templateData {
	data := templateData{
		Name:       ride.Name,
		NoStages:   len(ride.Stages) == 0,
		ChartFiles: chartFiles,
	}

	points, stages := ride.Points, ride.Stages
	if len(stages) > 0 {
		data.Summary = append(data.Summary,
			summaryRow{"Distance", fmt.Sprintf("%.2f km", stages.DistanceKm(points))},
			summaryRow{"Total time", formatDuration(stages.Duration(points))},
			summaryRow{"Moving time", formatDuration(stages.TotalMovingTime(points))},
			summaryRow{"Stopped time", formatDuration(stages.TotalStoppedTime(points))},
			summaryRow{"Avg moving speed", fmt.Sprintf("%.2f km/h", stages.AverageMovingSpeedKmh(points))},
			summaryRow{"Avg overall speed", fmt.Sprintf("%.2f km/h", stages.AverageOverallSpeedKmh(points))},
			summaryRow{"Total ascent", formatOptFloat(stages.TotalAscentMetres(points), 0) + " m"},
			summaryRow{"Total descent", formatOptFloat(stages.TotalDescentMetres(points), 0) + " m"},
		)
		if p := stages.MinElevation(points); p != nil {
			data.Summary = append(data.Summary, summaryRow{"Min elevation",
				fmt.Sprintf("%.0f m at %.1f km", *p.Elevation, p.RunningMetres/1000.0)})
		}
		if p := stages.MaxElevation(points); p != nil {
			data.Summary = append(data.Summary, summaryRow{"Max elevation",
				fmt.Sprintf("%.0f m at %.1f km", *p.Elevation, p.RunningMetres/1000.0)})
		}
		if p := stages.MaxSpeed(points); p != nil {
			data.Summary = append(data.Summary, summaryRow{"Max speed",
				fmt.Sprintf("%.1f km/h at %.1f km", *p.SpeedKmh, p.RunningMetres/1000.0)})
		}
		if hr := stages.AvgHeartRate(points); hr != nil {
			data.Summary = append(data.Summary, summaryRow{"Avg heart rate", fmt.Sprintf("%.0f bpm", *hr)})
		}
		if p := stages.MaxHeartRate(points); p != nil {
			data.Summary = append(data.Summary, summaryRow{"Max heart rate",
				fmt.Sprintf("%d bpm at %.1f km", *p.Ext.HeartRate, p.RunningMetres/1000.0)})
		}

		for i, s := range stages {
			data.Stages = append(data.Stages, buildStageRow(i+1, s, points))
		}
	}

	return data
}

func buildStageRow(number int, s track.Stage, points []track.Point) stageRow {
	row := stageRow{
		Number:   number,
		Type:     s.Type.String(),
		Start:    formatTime(s.Start(points).StartTime()),
		End:      formatTime(s.End(points).Time),
		Duration: formatDuration(s.Duration(points)),
		Distance: fmt.Sprintf("%.2f", s.DistanceMetres(points)/1000.0),
		AvgSpeed: fmt.Sprintf("%.2f", s.AverageSpeedKmh(points)),
		Ascent:   formatOptFloat(s.AscentMetres(points), 0),
		Descent:  formatOptFloat(s.DescentMetres(points), 0),
		AvgHR:    formatOptFloat(s.AvgHeartRate(points), 0),
		AvgTemp:  formatOptFloat(s.AvgAirTemp(points), 1),
	}

	if p := s.MinElevation(points); p != nil {
		row.MinElevation = fmt.Sprintf("%.0f", *p.Elevation)
	} else {
		row.MinElevation = "-"
	}
	if p := s.MaxElevation(points); p != nil {
		row.MaxElevation = fmt.Sprintf("%.0f", *p.Elevation)
	} else {
		row.MaxElevation = "-"
	}
	if p := s.MaxSpeed(points); p != nil {
		row.MaxSpeed = fmt.Sprintf("%.1f", *p.SpeedKmh)
	} else {
		row.MaxSpeed = "-"
	}
	if p := s.MaxHeartRate(points); p != nil {
		row.MaxHR = fmt.Sprintf("%d", *p.Ext.HeartRate)
	} else {
		row.MaxHR = "-"
	}

	return row
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} - ride analysis</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #f0f0f0; }
td.label, td.type { text-align: left; }
iframe { border: none; width: 100%; height: 460px; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
{{if .NoStages}}
<p>No stages detected: the track has too few points or incomplete timestamps.</p>
{{else}}
<h2>Summary</h2>
<table>
{{range .Summary}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
<h2>Stages</h2>
<table>
<tr><th>#</th><th>Type</th><th>Start</th><th>End</th><th>Duration</th>
<th>Distance (km)</th><th>Avg speed (km/h)</th><th>Ascent (m)</th><th>Descent (m)</th>
<th>Min ele (m)</th><th>Max ele (m)</th><th>Max speed (km/h)</th>
<th>Avg HR</th><th>Max HR</th><th>Avg temp (&deg;C)</th></tr>
{{range .Stages}}<tr><td>{{.Number}}</td><td class="type">{{.Type}}</td><td>{{.Start}}</td><td>{{.End}}</td><td>{{.Duration}}</td>
<td>{{.Distance}}</td><td>{{.AvgSpeed}}</td><td>{{.Ascent}}</td><td>{{.Descent}}</td>
<td>{{.MinElevation}}</td><td>{{.MaxElevation}}</td><td>{{.MaxSpeed}}</td>
<td>{{.AvgHR}}</td><td>{{.MaxHR}}</td><td>{{.AvgTemp}}</td></tr>
{{end}}</table>
{{end}}
{{range .ChartFiles}}<iframe src="{{.}}"></iframe>
{{end}}
</body>
</html>
`))
