package gpx

import (
	"strings"
	"testing"
	"time"
)

func TestParseReader(t *testing.T) {
	gpxContent := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
	<trk>
		<name>Test Track</name>
		<trkseg>
			<trkpt lat="46.0" lon="7.0">
				<ele>1000</ele>
				<time>2025-01-01T10:00:00Z</time>
			</trkpt>
			<trkpt lat="46.001" lon="7.001">
				<ele>1005</ele>
				<time>2025-01-01T10:00:01Z</time>
			</trkpt>
		</trkseg>
	</trk>
</gpx>`

	gpxData, err := ParseReader(strings.NewReader(gpxContent))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	if len(gpxData.Tracks) != 1 {
		t.Errorf("Expected 1 track, got %d", len(gpxData.Tracks))
	}

	if len(gpxData.Tracks[0].Segments) != 1 {
		t.Errorf("Expected 1 segment, got %d", len(gpxData.Tracks[0].Segments))
	}

	if len(gpxData.Tracks[0].Segments[0].Points) != 2 {
		t.Errorf("Expected 2 points, got %d", len(gpxData.Tracks[0].Segments[0].Points))
	}

	// Check first point
	point := gpxData.Tracks[0].Segments[0].Points[0]
	if point.Lat != 46.0 || point.Lon != 7.0 {
		t.Errorf("Expected lat=46.0, lon=7.0, got lat=%f, lon=%f", point.Lat, point.Lon)
	}

	if point.Elevation == nil || *point.Elevation != 1000.0 {
		t.Errorf("Expected elevation=1000.0, got %v", point.Elevation)
	}

	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	if !point.Time.Equal(want) {
		t.Errorf("Expected time %v, got %v", want, point.Time)
	}
}

func TestParseMissingOptionalFields(t *testing.T) {
	gpxContent := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
	<trk>
		<trkseg>
			<trkpt lat="46.0" lon="7.0"/>
		</trkseg>
	</trk>
</gpx>`

	gpxData, err := ParseReader(strings.NewReader(gpxContent))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	point := gpxData.Tracks[0].Segments[0].Points[0]
	if point.Elevation != nil {
		t.Errorf("Expected nil elevation for missing <ele>, got %v", *point.Elevation)
	}
	if point.HasTime() {
		t.Errorf("Expected HasTime()=false for missing <time>")
	}
	if !point.Ext.IsEmpty() {
		t.Errorf("Expected empty extensions for bare trackpoint")
	}
}

func TestParseRejectsOutOfRangeCoordinates(t *testing.T) {
	gpxContent := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
	<trk>
		<trkseg>
			<trkpt lat="46.0" lon="7.0"/>
			<trkpt lat="91.0" lon="7.0"/>
		</trkseg>
	</trk>
</gpx>`

	_, err := ParseReader(strings.NewReader(gpxContent))
	if err == nil {
		t.Fatalf("Expected error for latitude 91.0, got nil")
	}
	if !strings.Contains(err.Error(), "point 1") {
		t.Errorf("Expected error to name point 1, got: %v", err)
	}
}

func TestFlattenPoints(t *testing.T) {
	gpx := &GPX{
		Tracks: []Track{
			{
				Segments: []TrackSegment{
					{
						Points: []Point{
							{Lat: 46.0, Lon: 7.0},
							{Lat: 46.001, Lon: 7.001},
						},
					},
					{
						Points: []Point{
							{Lat: 46.002, Lon: 7.002},
						},
					},
				},
			},
			{
				Segments: []TrackSegment{
					{
						Points: []Point{
							{Lat: 46.003, Lon: 7.003},
						},
					},
				},
			},
		},
	}

	points := gpx.FlattenPoints()

	if len(points) != 4 {
		t.Fatalf("Expected 4 flattened points, got %d", len(points))
	}

	// Points come out in file order across segments and tracks
	if points[2].Lat != 46.002 {
		t.Errorf("Expected third point lat=46.002, got %f", points[2].Lat)
	}
	if points[3].Lat != 46.003 {
		t.Errorf("Expected fourth point lat=46.003, got %f", points[3].Lat)
	}

	if gpx.NumPoints() != 4 {
		t.Errorf("Expected NumPoints=4, got %d", gpx.NumPoints())
	}
}

func TestWithPoints(t *testing.T) {
	gpx := &GPX{
		Tracks: []Track{
			{
				Name: "Test Track",
				Type: "cycling",
				Segments: []TrackSegment{
					{
						Points: []Point{
							{Lat: 46.0, Lon: 7.0},
							{Lat: 46.001, Lon: 7.001},
							{Lat: 46.002, Lon: 7.002},
						},
					},
				},
			},
		},
	}

	// Simulate simplification that removes the middle point
	filtered := []Point{
		{Lat: 46.0, Lon: 7.0},
		{Lat: 46.002, Lon: 7.002},
	}

	out := gpx.WithPoints(filtered)

	if len(out.Tracks) != 1 || len(out.Tracks[0].Segments) != 1 {
		t.Fatalf("Expected a single track with a single segment")
	}

	if len(out.Tracks[0].Segments[0].Points) != 2 {
		t.Errorf("Expected 2 points, got %d", len(out.Tracks[0].Segments[0].Points))
	}

	if out.Tracks[0].Name != "Test Track" {
		t.Errorf("Expected track name 'Test Track', got '%s'", out.Tracks[0].Name)
	}
	if out.Tracks[0].Type != "cycling" {
		t.Errorf("Expected track type 'cycling', got '%s'", out.Tracks[0].Type)
	}

	// The original must be untouched
	if gpx.NumPoints() != 3 {
		t.Errorf("Expected original to keep 3 points, got %d", gpx.NumPoints())
	}
}

func TestWriteRoundTrip(t *testing.T) {
	ele := 1000.5
	gpx := &GPX{
		Version: "1.1",
		Creator: "gstage",
		Tracks: []Track{
			{
				Name: "Round Trip",
				Segments: []TrackSegment{
					{
						Points: []Point{
							{Lat: 46.0, Lon: 7.0, Elevation: &ele,
								Time: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
							{Lat: 46.001, Lon: 7.001},
						},
					},
				},
			},
		},
	}

	var buf strings.Builder
	if err := gpx.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `lat="46.001"`) {
		t.Errorf("Expected lat attribute in output:\n%s", out)
	}
	if !strings.Contains(out, "<ele>1000.5</ele>") {
		t.Errorf("Expected elevation element in output:\n%s", out)
	}
	if !strings.Contains(out, "<time>2025-01-01T10:00:00Z</time>") {
		t.Errorf("Expected time element in output:\n%s", out)
	}
	// Second point has no timestamp and must not get one
	if strings.Count(out, "<time>") != 1 {
		t.Errorf("Expected exactly one time element in output:\n%s", out)
	}

	reparsed, err := ParseReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("reparsing own output failed: %v", err)
	}
	if reparsed.NumPoints() != 2 {
		t.Errorf("Expected 2 points after round trip, got %d", reparsed.NumPoints())
	}
}

func TestWriteOmitsEmptyMetadata(t *testing.T) {
	gpx := &GPX{
		Version: "1.1",
		Creator: "gstage",
		Tracks: []Track{
			{Segments: []TrackSegment{{Points: []Point{{Lat: 46.0, Lon: 7.0}}}}},
		},
	}

	var buf strings.Builder
	if err := gpx.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}

	if strings.Contains(buf.String(), "<metadata>") {
		t.Errorf("Expected no metadata element in output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "0001-01-01") {
		t.Errorf("Expected no zero timestamp in output:\n%s", buf.String())
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	gpxContent := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
	<metadata>
		<name>Sunday 200</name>
	</metadata>
	<trk>
		<trkseg>
			<trkpt lat="46.0" lon="7.0"/>
		</trkseg>
	</trk>
</gpx>`

	gpxData, err := ParseReader(strings.NewReader(gpxContent))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	if gpxData.Metadata == nil || gpxData.Metadata.Name != "Sunday 200" {
		t.Fatalf("Expected metadata name 'Sunday 200', got %+v", gpxData.Metadata)
	}
	if gpxData.Metadata.Time != nil {
		t.Errorf("Expected nil metadata time, got %v", *gpxData.Metadata.Time)
	}

	var buf strings.Builder
	if err := gpxData.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<name>Sunday 200</name>") {
		t.Errorf("Expected metadata name in output:\n%s", buf.String())
	}
	// A metadata block without a timestamp must not grow one.
	if strings.Contains(buf.String(), "<time>") {
		t.Errorf("Expected no time element in output:\n%s", buf.String())
	}
}
