package render

import (
	"math"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/path"
)

// Scene is a map reduced to drawing primitives in map coordinates.
type Scene struct {
	// Min is the top-left corner of the view box, Size its extent.
	Min, Size geom.Vec

	Background string
	Ink        string
	FontSize   float64

	Items  []Item
	Labels []Label
}

// ItemKind tells the sinks how to draw an [Item].
type ItemKind int

// Item kinds.
const (
	ItemSegment ItemKind = iota
	ItemMinor
	ItemStation
	ItemConnection
)

// Item is one drawable element. Which fields are set depends on Kind.
type Item struct {
	Kind ItemKind
	ID   string

	// Path is the routed geometry of a segment.
	Path *path.Path
	// From and To are the ends of a minor tick.
	From, To geom.Vec
	// Center and Radius describe a station disc.
	Center geom.Vec
	Radius float64
	// Connection holds the strokes and mask of a connection.
	Connection metro.ConnectionGeometry

	Stroke      string
	StrokeWidth float64
	Fill        string
	Selected    bool
}

// Label is a station name placed next to its station. Pos is the left end
// of the text baseline.
type Label struct {
	StationID string
	Text      string
	Pos       geom.Vec
	Box       Rect
}

// Build reduces m to a scene. The map should be laid out.
func Build(m *metro.Map, opts ...Option) Scene {
	cfg := newConfig(opts)
	s := Scene{
		Background: cfg.theme.Background(),
		Ink:        cfg.theme.Ink(),
		FontSize:   cfg.fontSize,
	}

	var obstacles []obstacle
	var majors []*metro.Station
	drawn := make(map[string]bool)
	for _, t := range m.Tracks() {
		for _, seg := range t.Segments() {
			if seg.Path() == nil {
				continue
			}
			st := seg.Style
			color := st.StrokeColor
			if seg.Selected() {
				color = st.SelectionColor
			}
			s.Items = append(s.Items, Item{
				Kind:        ItemSegment,
				ID:          seg.ID,
				Path:        seg.Path(),
				Stroke:      color,
				StrokeWidth: st.StrokeWidth,
				Selected:    seg.Selected(),
			})
			obstacles = append(obstacles, obstacle{path: seg.Path(), half: st.StrokeWidth / 2})
		}
		for _, st := range t.MinorStations() {
			if drawn[st.ID] {
				continue
			}
			drawn[st.ID] = true
			ms := st.MinorStyle
			color := ms.StrokeColor
			if st.Selected() {
				color = ms.SelectionColor
			}
			s.Items = append(s.Items, Item{
				Kind:        ItemMinor,
				ID:          st.ID,
				From:        st.Position(),
				To:          st.Position().Add(st.Normal().Mul(ms.MinorStationSize)),
				Stroke:      color,
				StrokeWidth: ms.StrokeWidth,
				Selected:    st.Selected(),
			})
		}
		for _, st := range t.MajorStations() {
			if drawn[st.ID] {
				continue
			}
			drawn[st.ID] = true
			ss := st.Style
			color := ss.StrokeColor
			if st.Selected() {
				color = ss.SelectionColor
			}
			s.Items = append(s.Items, Item{
				Kind:        ItemStation,
				ID:          st.ID,
				Center:      st.Position(),
				Radius:      ss.StationRadius,
				Stroke:      color,
				StrokeWidth: ss.StrokeWidth,
				Fill:        ss.FillColor,
				Selected:    st.Selected(),
			})
			majors = append(majors, st)
		}
	}
	for _, c := range m.Connections() {
		g, ok := m.Geometry(c)
		if !ok {
			continue
		}
		s.Items = append(s.Items, Item{
			Kind:        ItemConnection,
			ID:          c.ID,
			Connection:  g,
			Stroke:      g.StrokeColor,
			StrokeWidth: g.StrokeWidth,
			Fill:        s.Background,
		})
	}
	if cfg.labels {
		s.Labels = placeLabels(majors, obstacles, cfg.fontSize)
	}

	s.frame(cfg)
	return s
}

// frame computes the view box from the content bounds and the padding.
// A fixed size centers the content.
func (s *Scene) frame(cfg config) {
	box := emptyRect()
	for _, it := range s.Items {
		box = box.Union(it.Bounds())
	}
	for _, l := range s.Labels {
		box = box.Union(l.Box)
	}
	if box.Empty() {
		box = Rect{}
	}

	s.Min = box.Min.Sub(geom.V(cfg.padding, cfg.padding))
	s.Size = box.Max.Sub(box.Min).Add(geom.V(2*cfg.padding, 2*cfg.padding))
	if cfg.width > 0 {
		s.Min.X -= (cfg.width - s.Size.X) / 2
		s.Size.X = cfg.width
	}
	if cfg.height > 0 {
		s.Min.Y -= (cfg.height - s.Size.Y) / 2
		s.Size.Y = cfg.height
	}
}

// Bounds returns the area the item covers, stroke included.
func (it Item) Bounds() Rect {
	half := it.StrokeWidth / 2
	switch it.Kind {
	case ItemSegment:
		lo, hi := it.Path.Bounds()
		return Rect{lo, hi}.Expand(half)
	case ItemMinor:
		return rectOf(it.From, it.To).Expand(half)
	case ItemStation:
		return Rect{it.Center, it.Center}.Expand(it.Radius + half)
	case ItemConnection:
		r := emptyRect()
		for _, p := range it.Connection.Mask {
			r = r.Union(Rect{p, p})
		}
		for _, l := range it.Connection.Lines {
			r = r.Union(rectOf(l[0], l[1]).Expand(half))
		}
		return r
	}
	return emptyRect()
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max geom.Vec
}

func emptyRect() Rect {
	inf := math.Inf(1)
	return Rect{geom.V(inf, inf), geom.V(-inf, -inf)}
}

func rectOf(a, b geom.Vec) Rect {
	return Rect{geom.V(math.Min(a.X, b.X), math.Min(a.Y, b.Y)), geom.V(math.Max(a.X, b.X), math.Max(a.Y, b.Y))}
}

// Empty reports whether r encloses nothing.
func (r Rect) Empty() bool { return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y }

// Union returns the smallest rectangle enclosing r and o.
func (r Rect) Union(o Rect) Rect {
	if o.Empty() {
		return r
	}
	if r.Empty() {
		return o
	}
	return Rect{
		geom.V(math.Min(r.Min.X, o.Min.X), math.Min(r.Min.Y, o.Min.Y)),
		geom.V(math.Max(r.Max.X, o.Max.X), math.Max(r.Max.Y, o.Max.Y)),
	}
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{r.Min.Sub(geom.V(d, d)), r.Max.Add(geom.V(d, d))}
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p geom.Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}
