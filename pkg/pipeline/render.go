package pipeline

import (
	"context"
	"fmt"

	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/render"
)

// prepared holds the immutable inputs every format renders from. Building
// them reads the map; rendering them does not, so formats can run in
// parallel.
type prepared struct {
	scene render.Scene
	dot   string
	scale float64
}

func prepare(m *metro.Map, formats []string, opts Options) prepared {
	p := prepared{scale: opts.Scale}
	var scene, dot bool
	for _, f := range formats {
		switch f {
		case FormatSVG, FormatPNG:
			scene = true
		case FormatDOT, FormatTopology:
			dot = true
		}
	}
	if scene {
		p.scene = render.Build(m, opts.RenderOptions()...)
	}
	if dot {
		p.dot = render.TopologyDOT(m)
	}
	return p
}

// renderFormat produces one artifact from prepared inputs.
func renderFormat(ctx context.Context, format string, p prepared) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.SceneSVG(p.scene), nil
	case FormatPNG:
		return render.ScenePNG(p.scene, p.scale)
	case FormatDOT:
		return []byte(p.dot), nil
	case FormatTopology:
		return render.DOTToSVG(ctx, p.dot)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// Render draws m in the given formats without caching.
func Render(ctx context.Context, m *metro.Map, opts Options) (map[string][]byte, error) {
	return NewRunner(nil, nil, opts.Logger).Render(ctx, m, opts)
}
