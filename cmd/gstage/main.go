package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ridelab/gstage/internal/gpx"
	"github.com/ridelab/gstage/internal/log"
	"github.com/ridelab/gstage/internal/report"
	"github.com/ridelab/gstage/internal/track"
)

type options struct {
	metres       int
	detectStages bool
	stoppedSpeed float64
	minStopTime  float64
	resumption   float64
	writeCSV     bool
	force        bool
}

func main() {
	var (
		metres       = flag.Int("m", 0, "Simplify using Ramer-Douglas-Peucker with this accuracy in metres (1-1000, 0 disables)")
		detectStages = flag.Bool("detect-stages", false, "Detect stages (periods of moving alternating with stops) and write a ride report")
		stoppedSpeed = flag.Float64("stopped-speed", 0.15, "Speed in km/h you must drop below to be considered stopped")
		minStopTime  = flag.Float64("min-stop-time", 5.0, "Minimum length of a stop, in minutes, for it to count as a control")
		resumption   = flag.Float64("resumption-distance", 100.0, "Distance in metres you must move from a stop point to be moving again")
		writeCSV     = flag.Bool("csv", false, "Write every enriched trackpoint to a CSV file")
		force        = flag.Bool("force", false, "Overwrite existing output files")
		debug        = flag.Bool("debug", false, "Enable debug logging")
		version      = flag.Bool("version", false, "Show version information")
	)

	flag.Usage = func() {
		fmt.Printf("gstage - analyze GPX rides into moving and control stages\n\n")
		fmt.Printf("usage: gstage [options] file.gpx [file2.gpx ...]\n\n")
		fmt.Printf("examples:\n")
		fmt.Printf("  gstage -detect-stages ride.gpx\n")
		fmt.Printf("  gstage -m 10 ride.gpx\n")
		fmt.Printf("  gstage -detect-stages -min-stop-time 10 -csv \"Audax 600.gpx\"\n\n")
		fmt.Printf("options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Println("gstage v1.0.0 - GPX stage analyzer")
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := options{
		metres:       *metres,
		detectStages: *detectStages,
		stoppedSpeed: *stoppedSpeed,
		minStopTime:  *minStopTime,
		resumption:   *resumption,
		writeCSV:     *writeCSV,
		force:        *force,
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Each track is independent; a corrupt file must not take the rest
	// of the batch down with it.
	failed := 0
	for _, file := range files {
		if err := processFile(file, opts); err != nil {
			log.Errorf("%s: %v", file, err)
			failed++
		}
	}
	if failed > 0 {
		log.Errorf("%d of %d files failed", failed, len(files))
		os.Exit(1)
	}
}

func (o options) validate() error {
	if o.metres < 0 || o.metres > 1000 {
		return fmt.Errorf("simplification accuracy must be 1-1000 metres, got %d", o.metres)
	}
	if o.stoppedSpeed <= 0 {
		return fmt.Errorf("stopped-speed must be positive, got %v", o.stoppedSpeed)
	}
	if o.minStopTime <= 0 {
		return fmt.Errorf("min-stop-time must be positive, got %v", o.minStopTime)
	}
	if o.resumption <= 0 {
		return fmt.Errorf("resumption-distance must be positive, got %v", o.resumption)
	}
	if !o.detectStages && o.metres == 0 && !o.writeCSV {
		return fmt.Errorf("nothing to do: specify -detect-stages, -m or -csv")
	}
	return nil
}

func processFile(inputFile string, opts options) error {
	started := time.Now()

	log.Infof("reading %s", inputFile)
	gpxData, err := gpx.Parse(inputFile)
	if err != nil {
		return err
	}

	points := gpxData.FlattenPoints()
	if len(points) == 0 {
		return fmt.Errorf("no track points found")
	}
	log.Infof("%s: %d points across %d tracks", inputFile, len(points), len(gpxData.Tracks))

	base := strings.TrimSuffix(inputFile, filepath.Ext(inputFile))

	if opts.detectStages || opts.writeCSV {
		if err := analyze(base, gpxData, points, opts); err != nil {
			return err
		}
	}

	if opts.metres > 0 {
		if err := simplify(base, gpxData, points, opts); err != nil {
			return err
		}
	}

	log.Infof("%s: done in %v", inputFile, time.Since(started).Round(time.Millisecond))
	return nil
}

func analyze(base string, gpxData *gpx.GPX, points []gpx.Point, opts options) error {
	enriched, err := track.Enrich(points)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	if opts.writeCSV {
		csvFile := base + "_trackpoints.csv"
		if skip := refuseExisting(csvFile, opts.force); !skip {
			if err := report.WriteCSVFile(csvFile, enriched); err != nil {
				return err
			}
			log.Infof("wrote %s", csvFile)
		}
	}

	if !opts.detectStages {
		return nil
	}

	params := track.StageParams{
		StoppedSpeedKmh:         opts.stoppedSpeed,
		MinControlTime:          time.Duration(opts.minStopTime * float64(time.Minute)),
		ControlResumptionMetres: opts.resumption,
	}
	log.Debugf("detecting stages with stopped-speed=%.2fkm/h min-stop=%v resumption=%.0fm",
		params.StoppedSpeedKmh, params.MinControlTime, params.ControlResumptionMetres)

	stages, err := track.DetectStages(enriched, params)
	if err != nil {
		return fmt.Errorf("stage detection failed: %w", err)
	}
	if len(stages) == 0 {
		log.Warnf("no stages detected: track has too few points or incomplete timestamps")
	} else {
		log.Infof("detected %d stages, %.2f km in %v (moving %v, stopped %v)",
			len(stages),
			stages.DistanceKm(enriched),
			stages.Duration(enriched).Round(time.Second),
			stages.TotalMovingTime(enriched).Round(time.Second),
			stages.TotalStoppedTime(enriched).Round(time.Second))
	}

	reportFile := base + "_stages.html"
	if skip := refuseExisting(reportFile, opts.force); skip {
		return nil
	}

	ride := report.Ride{
		Name:   trackName(gpxData, base),
		Points: enriched,
		Stages: stages,
	}
	if err := report.WriteHTML(base, ride); err != nil {
		return err
	}
	log.Infof("wrote %s", reportFile)
	return nil
}

func simplify(base string, gpxData *gpx.GPX, points []gpx.Point, opts options) error {
	outputFile := base + "_simplified.gpx"
	if skip := refuseExisting(outputFile, opts.force); skip {
		return nil
	}

	epsilon := track.MetresToEpsilon(opts.metres)
	reduced := track.Simplify(points, epsilon)
	log.Infof("simplified with %dm accuracy (epsilon=%g): %d points to %d",
		opts.metres, epsilon, len(points), len(reduced))

	if err := gpxData.WithPoints(reduced).Write(outputFile); err != nil {
		return err
	}
	log.Infof("wrote %s", outputFile)
	return nil
}

// refuseExisting reports whether the output should be skipped because
// it already exists and -force was not given.
func refuseExisting(path string, force bool) bool {
	if force {
		return false
	}
	if _, err := os.Stat(path); err == nil {
		log.Warnf("%s already exists, skipping (use -force to overwrite)", path)
		return true
	}
	return false
}

func trackName(gpxData *gpx.GPX, base string) string {
	if len(gpxData.Tracks) > 0 && gpxData.Tracks[0].Name != "" {
		return gpxData.Tracks[0].Name
	}
	if gpxData.Metadata != nil && gpxData.Metadata.Name != "" {
		return gpxData.Metadata.Name
	}
	return filepath.Base(base)
}
