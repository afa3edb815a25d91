package metro

import (
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// NewExample returns the two-track map a new document starts with: a red line
// and a blue line, each with one segment.
func NewExample() *Map {
	m := New()

	red := m.CreateTrack(WithID("3794c750-6605-49df-b810-aa5b0ebb42e8"))
	a := red.CreateStationFree(geom.V(152, 239), nil, WithID("3fe7243d"))
	red.CreateStationFree(geom.V(687, 495), a, WithID("995a2376"))

	blue := m.CreateTrack(WithID("6fe22ae9-cd61-4705-aa2d-c457e11901e9"))
	blueStyle := styles.DefaultSegment()
	blueStyle.StrokeColor = styles.RGBToHex(0, 0, 255)
	blue.SetSegmentStyle(blueStyle)
	c := blue.CreateStationFree(geom.V(174, 142), nil, WithID("8cb86074"))
	blue.CreateStationFree(geom.V(764, 433), c, WithID("882322b8"))

	m.Layout(Quiet())
	return m
}
