package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/path"
)

// SVG renders m as a standalone SVG document.
func SVG(m *metro.Map, opts ...Option) []byte {
	return SceneSVG(Build(m, opts...))
}

// SceneSVG writes a prepared scene as SVG.
func SceneSVG(s Scene) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="%.0f" height="%.0f">`+"\n",
		s.Min.X, s.Min.Y, s.Size.X, s.Size.Y, s.Size.X, s.Size.Y)
	fmt.Fprintf(&buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
		s.Min.X, s.Min.Y, s.Size.X, s.Size.Y, s.Background)

	for _, it := range s.Items {
		switch it.Kind {
		case ItemSegment:
			fmt.Fprintf(&buf, `  <path id="segment-%s" class="segment" d="%s" fill="none" stroke="%s" stroke-width="%g" stroke-linejoin="round"/>`+"\n",
				escape(it.ID), pathData(it.Path), it.Stroke, it.StrokeWidth)
		case ItemMinor:
			fmt.Fprintf(&buf, `  <line id="station-%s" class="station minor" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>`+"\n",
				escape(it.ID), it.From.X, it.From.Y, it.To.X, it.To.Y, it.Stroke, it.StrokeWidth)
		case ItemStation:
			fmt.Fprintf(&buf, `  <circle id="station-%s" class="station" cx="%.2f" cy="%.2f" r="%g" fill="%s" stroke="%s" stroke-width="%g"/>`+"\n",
				escape(it.ID), it.Center.X, it.Center.Y, it.Radius, it.Fill, it.Stroke, it.StrokeWidth)
		case ItemConnection:
			renderConnection(&buf, it)
		}
	}

	if len(s.Labels) > 0 {
		fmt.Fprintf(&buf, `  <g class="labels" font-family="sans-serif" font-size="%g" fill="%s">`+"\n", s.FontSize, s.Ink)
		for _, l := range s.Labels {
			fmt.Fprintf(&buf, `    <text data-station="%s" x="%.2f" y="%.2f">%s</text>`+"\n",
				escape(l.StationID), l.Pos.X, l.Pos.Y, escape(l.Text))
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderConnection(buf *bytes.Buffer, it Item) {
	g := it.Connection
	fmt.Fprintf(buf, `  <g id="connection-%s" class="connection">`+"\n", escape(it.ID))
	pts := make([]string, len(g.Mask))
	for i, p := range g.Mask {
		pts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	fmt.Fprintf(buf, `    <polygon points="%s" fill="%s"/>`+"\n", strings.Join(pts, " "), it.Fill)
	for _, l := range g.Lines {
		fmt.Fprintf(buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>`+"\n",
			l[0].X, l[0].Y, l[1].X, l[1].Y, it.Stroke, it.StrokeWidth)
	}
	buf.WriteString("  </g>\n")
}

// pathData formats p as SVG path commands.
func pathData(p *path.Path) string {
	var b strings.Builder
	start := p.Start()
	fmt.Fprintf(&b, "M%.2f %.2f", start.X, start.Y)
	for _, pc := range p.Pieces() {
		if pc.Curved {
			fmt.Fprintf(&b, " Q%.2f %.2f %.2f %.2f", pc.Ctrl.X, pc.Ctrl.Y, pc.To.X, pc.To.Y)
		} else {
			fmt.Fprintf(&b, " L%.2f %.2f", pc.To.X, pc.To.Y)
		}
	}
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
