package render

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-graphviz"

	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// pointsPerInch converts map units to Graphviz inches.
const pointsPerInch = 72.0

// TopologyDOT describes the station graph of m in Graphviz DOT. Stations
// are pinned at their map positions (y flipped, as Graphviz grows
// upwards); segments become edges in their track color and connections
// dashed grey edges. Minor stations are drawn as points. Stations placed on
// a segment split its edge into a chain ordered along the path.
func TopologyDOT(m *metro.Map) string {
	var buf bytes.Buffer
	buf.WriteString("graph metro {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.25, fixedsize=true];\n")
	buf.WriteString("  edge [penwidth=3];\n")
	buf.WriteString("\n")

	for _, st := range m.Stations() {
		p := st.Position()
		attrs := fmt.Sprintf("pos=\"%.3f,%.3f!\", xlabel=%q, label=\"\"", p.X/pointsPerInch, -p.Y/pointsPerInch, st.Name)
		if st.Kind() == metro.KindMinor {
			attrs += ", shape=point, width=0.08"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", st.ID, attrs)
	}

	buf.WriteString("\n")
	for _, t := range m.Tracks() {
		for _, seg := range t.Segments() {
			color := styles.Hex(seg.Style.StrokeColor)
			chain := []string{seg.A()}
			for _, st := range stopsAlong(seg) {
				chain = append(chain, st.ID)
			}
			chain = append(chain, seg.B())
			for i := 1; i < len(chain); i++ {
				fmt.Fprintf(&buf, "  %q -- %q [color=%q, id=%q];\n", chain[i-1], chain[i], color, fmt.Sprintf("%s-%d", seg.ID, i))
			}
		}
	}
	for _, c := range m.Connections() {
		fmt.Fprintf(&buf, "  %q -- %q [style=dashed, color=grey, penwidth=1, id=%q];\n", c.A(), c.B(), c.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// stopsAlong returns the interior stations of seg ordered by arc length.
func stopsAlong(seg *metro.Segment) []*metro.Station {
	stops := seg.InteriorStations()
	if seg.Path() == nil {
		return stops
	}
	slices.SortStableFunc(stops, func(a, b *metro.Station) int {
		return cmp.Compare(seg.OffsetOf(a.Position()), seg.OffsetOf(b.Position()))
	})
	return stops
}

// TopologySVG renders the DOT description of m with Graphviz.
func TopologySVG(ctx context.Context, m *metro.Map) ([]byte, error) {
	return DOTToSVG(ctx, TopologyDOT(m))
}

// DOTToSVG renders a DOT graph to SVG using Graphviz.
func DOTToSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
