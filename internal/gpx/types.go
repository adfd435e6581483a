package gpx

import (
	"encoding/xml"
	"time"
)

// RawXML preserves nested extension blocks without re-parsing them.
// We store the inner XML bytes verbatim so we can round-trip extensions
// emitted by other tools at the track and metadata level, where we never
// need the values ourselves.
type RawXML []byte

func (r RawXML) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if len(r) == 0 {
		return nil
	}

	type inner struct {
		Content string `xml:",innerxml"`
	}

	return e.EncodeElement(inner{Content: string(r)}, start)
}

func (r *RawXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type inner struct {
		Content string `xml:",innerxml"`
	}

	var data inner
	if err := d.DecodeElement(&data, &start); err != nil {
		return err
	}

	if len(data.Content) == 0 {
		*r = nil
		return nil
	}

	*r = append((*r)[:0], data.Content...)
	return nil
}

// Extensions holds the Garmin TrackPointExtension values, per
// https://www8.garmin.com/xmlschemas/TrackPointExtensionv1.xsd.
// All fields are optional; nil means the tag was absent.
type Extensions struct {
	AirTemp   *float64 `xml:"TrackPointExtension>atemp,omitempty"`
	WaterTemp *float64 `xml:"TrackPointExtension>wtemp,omitempty"`
	Depth     *float64 `xml:"TrackPointExtension>depth,omitempty"`
	HeartRate *int     `xml:"TrackPointExtension>hr,omitempty"`
	Cadence   *int     `xml:"TrackPointExtension>cad,omitempty"`
}

// IsEmpty reports whether no extension value is present at all.
func (e Extensions) IsEmpty() bool {
	return e.AirTemp == nil && e.WaterTemp == nil && e.Depth == nil &&
		e.HeartRate == nil && e.Cadence == nil
}

// Point represents a GPS track point as read from the file.
// Elevation and Time are optional: a nil Elevation or a zero Time means
// the tag was missing. Points are produced once by the parser and never
// mutated afterwards.
type Point struct {
	Lat       float64    `xml:"lat,attr"`
	Lon       float64    `xml:"lon,attr"`
	Elevation *float64   `xml:"ele,omitempty"`
	Time      time.Time  `xml:"time,omitempty"`
	Ext       Extensions `xml:"extensions,omitempty"`
}

// HasTime reports whether the point carries a timestamp.
func (p Point) HasTime() bool {
	return !p.Time.IsZero()
}

// Track represents a GPX track with segments
type Track struct {
	Name        string         `xml:"name,omitempty"`
	Type        string         `xml:"type,omitempty"`
	Description string         `xml:"desc,omitempty"`
	Segments    []TrackSegment `xml:"trkseg"`
	Extensions  RawXML         `xml:"extensions,omitempty"`
}

// TrackSegment represents a track segment
type TrackSegment struct {
	Points []Point `xml:"trkpt"`
}

// GPX represents the full GPX file structure
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`

	// Namespaces - preserve all original namespaces
	XMLNS    string `xml:"xmlns,attr,omitempty"`
	XMLNSXSI string `xml:"xmlns:xsi,attr,omitempty"`
	XSI      string `xml:"xsi:schemaLocation,attr,omitempty"`

	Metadata *Metadata `xml:"metadata,omitempty"`
	Tracks   []Track   `xml:"trk"`
}

// Metadata represents GPX metadata. Held by pointer and with an
// optional timestamp: encoding/xml never omits struct values, so value
// fields here would stamp a zero <time> into every file we write.
type Metadata struct {
	Name        string     `xml:"name,omitempty"`
	Description string     `xml:"desc,omitempty"`
	Time        *time.Time `xml:"time,omitempty"`
	Extensions  RawXML     `xml:"extensions,omitempty"`
}
