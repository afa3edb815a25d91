package render

import (
	"unicode/utf8"

	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/path"
)

const (
	labelPadding = 6.0
	labelMargin  = 4.0
	// Rough advance of one glyph relative to the font size.
	glyphWidth = 0.6
	// Share of the font size above the baseline.
	ascent = 0.8
)

// textSize estimates the extent of a label.
func textSize(text string, fontSize float64) (w, h float64) {
	return glyphWidth * fontSize * float64(utf8.RuneCountInString(text)), fontSize
}

// labelBox returns the box of a label whose baseline starts at pos.
func labelBox(pos geom.Vec, w, h float64) Rect {
	return Rect{pos.Sub(geom.V(0, ascent*h)), pos.Add(geom.V(w, (1-ascent)*h))}
}

// candidates lists top-left corners, relative to the station, in order of
// preference: right, below, left, above, then the four diagonals.
func candidates(r, w, h float64) []geom.Vec {
	p := labelPadding
	return []geom.Vec{
		geom.V(r+p, -h/2),
		geom.V(-w/2, r+p),
		geom.V(-r-p-w, -h/2),
		geom.V(-w/2, -r-p-h),
		geom.V(r+p, r+p),
		geom.V(-r-p-w, r+p),
		geom.V(r+p, -r-p-h),
		geom.V(-r-p-w, -r-p-h),
	}
}

type obstacle struct {
	path *path.Path
	half float64
}

// placeLabels positions the names of major stations. A stored label offset
// is used as is; otherwise the first candidate position clear of all
// segment paths and earlier labels wins, retrying once with more spacing.
func placeLabels(stations []*metro.Station, obstacles []obstacle, fontSize float64) []Label {
	var out []Label
	var placed []Rect
	for _, st := range stations {
		if st.Name == "" {
			continue
		}
		w, h := textSize(st.Name, fontSize)
		pos := st.Position()

		var baseline geom.Vec
		if off, ok := st.LabelOffset(); ok {
			baseline = pos.Add(off)
		} else {
			r := st.Style.StationRadius + st.Style.StrokeWidth
			baseline = pos.Add(bestOffset(pos, candidates(r, w, h), w, h, obstacles, placed)).Add(geom.V(0, ascent*h))
		}
		box := labelBox(baseline, w, h)
		placed = append(placed, box)
		out = append(out, Label{StationID: st.ID, Text: st.Name, Pos: baseline, Box: box})
	}
	return out
}

func bestOffset(pos geom.Vec, cands []geom.Vec, w, h float64, obstacles []obstacle, placed []Rect) geom.Vec {
	for _, spread := range []float64{1, 1.5} {
		for _, c := range cands {
			off := c.Mul(spread)
			box := Rect{pos.Add(off), pos.Add(off).Add(geom.V(w, h))}
			if isClear(box, obstacles, placed) {
				return off
			}
		}
	}
	return cands[0].Mul(1.2)
}

func isClear(box Rect, obstacles []obstacle, placed []Rect) bool {
	for _, r := range placed {
		if box.Intersects(r) {
			return false
		}
	}
	for _, o := range obstacles {
		if crosses(box, o.path, o.half+labelMargin) {
			return false
		}
	}
	return true
}

// crosses reports whether p passes within margin of box, sampling the path
// every two units.
func crosses(box Rect, p *path.Path, margin float64) bool {
	grown := box.Expand(margin)
	lo, hi := p.Bounds()
	if !grown.Intersects(Rect{lo, hi}) {
		return false
	}
	const step = 2.0
	length := p.Length()
	for off := 0.0; off < length; off += step {
		if grown.Contains(p.PointAt(off)) {
			return true
		}
	}
	return grown.Contains(p.End())
}
