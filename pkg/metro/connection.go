package metro

import (
	"math"
	"slices"

	"github.com/SonghaiFan/metroflow/pkg/geom"
)

// Connection is a visual link between two distinct stations, possibly on
// different tracks. It is drawn as two parallel strokes over a background
// mask and has no routing of its own.
type Connection struct {
	ID   string
	a, b string
}

// A returns the id of the first station.
func (c *Connection) A() string { return c.a }

// B returns the id of the second station.
func (c *Connection) B() string { return c.b }

// Has reports whether the connection touches the station.
func (c *Connection) Has(id string) bool { return c.a == id || c.b == id }

// CreateConnection links two stations. It returns nil when either station is
// missing, when both are the same station, or when the requested id is taken.
func (m *Map) CreateConnection(a, b *Station, opts ...Option) *Connection {
	if a == nil || b == nil || a.ID == b.ID {
		return nil
	}
	if m.arena.get(a.ID) != a || m.arena.get(b.ID) != b {
		return nil
	}
	o := applyOptions(opts)
	id := idOr(o.id, newID)
	if m.FindConnection(id) != nil {
		return nil
	}
	c := &Connection{ID: id, a: a.ID, b: b.ID}
	m.connections = append(m.connections, c)
	return c
}

// Connections returns the connections in creation order.
func (m *Map) Connections() []*Connection { return slices.Clone(m.connections) }

// FindConnection returns the connection with the given id, or nil.
func (m *Map) FindConnection(id string) *Connection {
	for _, c := range m.connections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// RemoveConnection deletes a connection. It reports false for unknown ids.
func (m *Map) RemoveConnection(id string) bool {
	n := len(m.connections)
	m.connections = slices.DeleteFunc(m.connections, func(c *Connection) bool { return c.ID == id })
	return len(m.connections) != n
}

// ConnectionGeometry is the drawable form of a connection.
type ConnectionGeometry struct {
	// Lines are the two parallel strokes, each from the A side to the B side.
	Lines [2][2]geom.Vec
	// Mask is the background rectangle between the strokes, as four corners.
	Mask [4]geom.Vec
	// StrokeColor and StrokeWidth style both strokes.
	StrokeColor string
	StrokeWidth float64
}

// Geometry computes the strokes and mask of c from its stations' current
// positions and styles. It reports false when a station is missing.
func (m *Map) Geometry(c *Connection) (ConnectionGeometry, bool) {
	a, b := m.arena.get(c.a), m.arena.get(c.b)
	if a == nil || b == nil {
		return ConnectionGeometry{}, false
	}
	sa, sb := a.Style, b.Style
	strokeWidth := math.Min(sa.StrokeWidth, sb.StrokeWidth)
	radius := math.Min(sa.StationRadius, sb.StationRadius)

	diff := b.pos.Sub(a.pos)
	n := diff.Normalize()
	perp := n.Rotate(90).Mul(radius / 2)
	insetA := n.Mul(sa.StationRadius - sa.StrokeWidth/2)
	insetB := n.Mul(sb.StationRadius - sb.StrokeWidth/2)

	g := ConnectionGeometry{StrokeColor: sa.StrokeColor, StrokeWidth: strokeWidth}
	g.Lines[0] = [2]geom.Vec{a.pos.Add(perp).Add(insetA), b.pos.Add(perp).Sub(insetB)}
	g.Lines[1] = [2]geom.Vec{a.pos.Sub(perp).Add(insetA), b.pos.Sub(perp).Sub(insetB)}

	// The mask is laid out along +x from a, then rotated onto the link.
	half := radius/2 - strokeWidth/4
	length := diff.Length() - radius
	angle := diff.Angle()
	corners := [4]geom.Vec{
		geom.V(radius/2, -half),
		geom.V(radius/2+length, -half),
		geom.V(radius/2+length, half),
		geom.V(radius/2, half),
	}
	for i, c := range corners {
		g.Mask[i] = a.pos.Add(c.Rotate(angle))
	}
	return g, true
}
