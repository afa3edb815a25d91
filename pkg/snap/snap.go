// Package snap aligns dragged stations with their neighbours.
//
// While a station is dragged, each axis of the candidate position is
// compared with the stations sharing a segment with it. When the closest
// neighbour on an axis is nearer than the threshold, that coordinate snaps
// to the neighbour's. The default threshold equals the shortest span the
// router can bend in, so snapping never produces a corner tighter than the
// router can draw.
package snap

import (
	"math"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// DefaultThreshold is the snap distance used when none is given.
const DefaultThreshold = metro.MinStraight + 2*metro.ArcRadius

// Option configures [Position].
type Option func(*config)

type config struct {
	threshold float64
}

// WithThreshold overrides the snap distance.
func WithThreshold(d float64) Option {
	return func(c *config) { c.threshold = d }
}

// Position returns the candidate position adjusted for alignment with the
// station's topological neighbours on track. Stations without neighbours
// align with the track's most recently added major station. X and Y are
// resolved independently and may snap to different neighbours.
func Position(track *metro.Track, station *metro.Station, candidate geom.Vec, opts ...Option) geom.Vec {
	cfg := config{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	neighbours := Neighbours(track, station)
	if len(neighbours) == 0 {
		return candidate
	}

	out := candidate
	bestX, bestY := math.Inf(1), math.Inf(1)
	var snapX, snapY float64
	for _, n := range neighbours {
		p := n.Position()
		if dx := math.Abs(candidate.X - p.X); dx < bestX {
			bestX, snapX = dx, p.X
		}
		if dy := math.Abs(candidate.Y - p.Y); dy < bestY {
			bestY, snapY = dy, p.Y
		}
	}
	if bestX < cfg.threshold {
		out.X = snapX
	}
	if bestY < cfg.threshold {
		out.Y = snapY
	}
	return out
}

// Neighbours returns the stations the snap manager aligns station with:
// those sharing a segment with it or, failing that, the track's most
// recently added major station other than station itself.
func Neighbours(track *metro.Track, station *metro.Station) []*metro.Station {
	if track == nil {
		return nil
	}
	if connected := track.ConnectedStations(station); len(connected) > 0 {
		return connected
	}
	majors := track.MajorStations()
	for i := len(majors) - 1; i >= 0; i-- {
		if station == nil || majors[i].ID != station.ID {
			return []*metro.Station{majors[i]}
		}
	}
	return nil
}
