package document

import (
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// Document is the serialized form of a map.
type Document struct {
	Tracks      []Track      `json:"tracks" bson:"tracks"`
	Connections []Connection `json:"connections" bson:"connections"`
}

// Track is a serialized track.
type Track struct {
	ID           string         `json:"id" bson:"id"`
	SegmentStyle styles.Segment `json:"segmentStyle" bson:"segmentStyle"`
	StationStyle styles.Station `json:"stationStyle" bson:"stationStyle"`
	Segments     []Segment      `json:"segments" bson:"segments"`
	// Stations holds free stations not yet joined to any segment.
	Stations []Station `json:"stations,omitempty" bson:"stations,omitempty"`
}

// Segment is a serialized segment. StationsUser starts with the endpoints.
type Segment struct {
	ID           string    `json:"id" bson:"id"`
	StationA     Station   `json:"stationA" bson:"stationA"`
	StationB     Station   `json:"stationB" bson:"stationB"`
	StationsUser []Station `json:"stationsUser" bson:"stationsUser"`
	StationsAuto []Station `json:"stationsAuto" bson:"stationsAuto"`
}

// Station is a serialized station.
type Station struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	Position     geom.Vec  `json:"position" bson:"position"`
	OffsetFactor *float64  `json:"offsetFactor,omitempty" bson:"offsetFactor,omitempty"`
	LabelOffset  *geom.Vec `json:"labelOffset,omitempty" bson:"labelOffset,omitempty"`
}

// Connection is a serialized connection between two station ids.
type Connection struct {
	ID       string `json:"id" bson:"id"`
	StationA string `json:"stationA" bson:"stationA"`
	StationB string `json:"stationB" bson:"stationB"`
}

// Stats summarizes a document.
type Stats struct {
	Tracks      int
	Segments    int
	Stations    int
	Minor       int
	Connections int
}

// Stats counts the entities in d. Shared endpoints are counted once.
func (d Document) Stats() Stats {
	s := Stats{Tracks: len(d.Tracks), Connections: len(d.Connections)}
	seen := make(map[string]bool)
	count := func(st Station) {
		if !seen[st.ID] {
			seen[st.ID] = true
			s.Stations++
		}
	}
	for _, t := range d.Tracks {
		s.Segments += len(t.Segments)
		for _, seg := range t.Segments {
			count(seg.StationA)
			count(seg.StationB)
			for _, st := range seg.StationsUser {
				count(st)
			}
			for _, st := range seg.StationsAuto {
				count(st)
				s.Minor++
			}
		}
		for _, st := range t.Stations {
			count(st)
		}
	}
	return s
}
