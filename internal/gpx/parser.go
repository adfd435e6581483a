package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Parse reads and parses a GPX file, preserving namespaces and the
// Garmin trackpoint extension values.
func Parse(filename string) (*GPX, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader parses GPX from an io.Reader
func ParseReader(r io.Reader) (*GPX, error) {
	decoder := xml.NewDecoder(r)

	var gpxData GPX
	if err := decoder.Decode(&gpxData); err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	// Set default namespaces if missing
	if gpxData.XMLNS == "" {
		gpxData.XMLNS = "http://www.topografix.com/GPX/1/1"
	}
	if gpxData.Version == "" {
		gpxData.Version = "1.1"
	}
	if gpxData.Creator == "" {
		gpxData.Creator = "gstage"
	}

	if err := gpxData.validateCoordinates(); err != nil {
		return nil, err
	}

	return &gpxData, nil
}

// validateCoordinates rejects out-of-range lat/lon before any distance
// maths sees them. Everything downstream assumes valid coordinates.
func (g *GPX) validateCoordinates() error {
	n := 0
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				if p.Lat < -90 || p.Lat > 90 {
					return fmt.Errorf("point %d: latitude %v out of range [-90, 90]", n, p.Lat)
				}
				if p.Lon < -180 || p.Lon > 180 {
					return fmt.Errorf("point %d: longitude %v out of range [-180, 180]", n, p.Lon)
				}
				n++
			}
		}
	}
	return nil
}

// Write saves GPX data to a file
func (g *GPX) Write(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return g.WriteToWriter(file)
}

// WriteToWriter writes GPX data to an io.Writer
func (g *GPX) WriteToWriter(w io.Writer) error {
	// Write XML header
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}

	return nil
}

// MarshalXML writes a trackpoint with only the fields that are present.
// Extension data is deliberately dropped on output: simplified files are
// meant for route upload forms, which only need the shape of the ride.
func (p Point) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "lat"}, Value: strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		{Name: xml.Name{Local: "lon"}, Value: strconv.FormatFloat(p.Lon, 'f', -1, 64)},
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.Elevation != nil {
		if err := e.EncodeElement(*p.Elevation, xml.StartElement{Name: xml.Name{Local: "ele"}}); err != nil {
			return err
		}
	}
	if p.HasTime() {
		ts := p.Time.UTC().Format(time.RFC3339)
		if err := e.EncodeElement(ts, xml.StartElement{Name: xml.Name{Local: "time"}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// FlattenPoints returns all points from all tracks and segments in file
// order. This is the single ordered sequence the analysis engine works
// on; a multi-track file is treated as one continuous recording.
func (g *GPX) FlattenPoints() []Point {
	var points []Point

	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			points = append(points, segment.Points...)
		}
	}

	return points
}

// WithPoints returns a copy of the GPX carrying a single track with a
// single segment containing the given points. The name and type of the
// first original track are kept. Used after simplification, which always
// produces a flat point sequence.
func (g *GPX) WithPoints(points []Point) *GPX {
	out := *g
	track := Track{Segments: []TrackSegment{{Points: points}}}
	if len(g.Tracks) > 0 {
		track.Name = g.Tracks[0].Name
		track.Type = g.Tracks[0].Type
		track.Description = g.Tracks[0].Description
	}
	out.Tracks = []Track{track}
	return &out
}

// NumPoints returns the total number of points across all tracks and
// segments.
func (g *GPX) NumPoints() int {
	n := 0
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			n += len(segment.Points)
		}
	}
	return n
}
