package gpx

import (
	"strings"
	"testing"
)

func TestParseTrackPointExtensions(t *testing.T) {
	const gpxContent = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1">
	<trk>
		<trkseg>
			<trkpt lat="46.0" lon="7.0">
				<extensions>
					<gpxtpx:TrackPointExtension>
						<gpxtpx:atemp>21.5</gpxtpx:atemp>
						<gpxtpx:hr>145</gpxtpx:hr>
						<gpxtpx:cad>87</gpxtpx:cad>
					</gpxtpx:TrackPointExtension>
				</extensions>
			</trkpt>
			<trkpt lat="46.001" lon="7.001">
				<extensions>
					<gpxtpx:TrackPointExtension>
						<gpxtpx:hr>150</gpxtpx:hr>
					</gpxtpx:TrackPointExtension>
				</extensions>
			</trkpt>
		</trkseg>
	</trk>
</gpx>`

	gpxData, err := ParseReader(strings.NewReader(gpxContent))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	first := gpxData.Tracks[0].Segments[0].Points[0]
	if first.Ext.HeartRate == nil || *first.Ext.HeartRate != 145 {
		t.Errorf("Expected heart rate 145, got %v", first.Ext.HeartRate)
	}
	if first.Ext.AirTemp == nil || *first.Ext.AirTemp != 21.5 {
		t.Errorf("Expected air temp 21.5, got %v", first.Ext.AirTemp)
	}
	if first.Ext.Cadence == nil || *first.Ext.Cadence != 87 {
		t.Errorf("Expected cadence 87, got %v", first.Ext.Cadence)
	}

	// Second point carries only heart rate; the rest stay nil
	second := gpxData.Tracks[0].Segments[0].Points[1]
	if second.Ext.HeartRate == nil || *second.Ext.HeartRate != 150 {
		t.Errorf("Expected heart rate 150, got %v", second.Ext.HeartRate)
	}
	if second.Ext.AirTemp != nil {
		t.Errorf("Expected nil air temp, got %v", *second.Ext.AirTemp)
	}
	if second.Ext.Cadence != nil {
		t.Errorf("Expected nil cadence, got %v", *second.Ext.Cadence)
	}
	if second.Ext.IsEmpty() {
		t.Errorf("Expected IsEmpty()=false when heart rate is present")
	}
}

func TestWriteDropsExtensions(t *testing.T) {
	hr := 145
	gpx := &GPX{
		Version: "1.1",
		Creator: "gstage",
		Tracks: []Track{
			{
				Segments: []TrackSegment{
					{
						Points: []Point{
							{Lat: 46.0, Lon: 7.0, Ext: Extensions{HeartRate: &hr}},
						},
					},
				},
			},
		},
	}

	// Simplified output is for route upload forms; sensor data is not
	// meaningful on a reduced point set and is left out.
	var buf strings.Builder
	if err := gpx.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}

	if strings.Contains(buf.String(), "TrackPointExtension") {
		t.Errorf("Expected extensions to be dropped from output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `lat="46"`) {
		t.Errorf("Expected trackpoint in output:\n%s", buf.String())
	}
}
