package render

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// Raster limits. The whole image is held in memory, so maps spread over a
// huge area or rendered at a large scale are refused instead of allocated.
const (
	MaxPNGSide   = 16384
	MaxPNGPixels = 1 << 26
)

var (
	labelFont     *truetype.Font
	labelFontErr  error
	labelFontOnce sync.Once
)

func fontFace(size float64) (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = truetype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("parse font: %w", labelFontErr)
	}
	return truetype.NewFace(labelFont, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// PNG rasterizes m. The image size is the scene size times the scale set
// with [WithScale].
func PNG(m *metro.Map, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	return ScenePNG(Build(m, opts...), cfg.scale)
}

// ScenePNG rasterizes a prepared scene at the given scale.
func ScenePNG(s Scene, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	wf, hf := math.Ceil(s.Size.X*scale), math.Ceil(s.Size.Y*scale)
	if !(wf <= MaxPNGSide && hf <= MaxPNGSide && wf*hf <= MaxPNGPixels) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"png would be %.0fx%.0f pixels (limit %dx%d, %d pixels); lower the scale or use svg",
			wf, hf, MaxPNGSide, MaxPNGSide, MaxPNGPixels)
	}
	w, h := int(wf), int(hf)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetHexColor(styles.Hex(s.Background))
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-s.Min.X, -s.Min.Y)
	dc.SetLineJoinRound()

	for _, it := range s.Items {
		switch it.Kind {
		case ItemSegment:
			start := it.Path.Start()
			dc.NewSubPath()
			dc.MoveTo(start.X, start.Y)
			for _, pc := range it.Path.Pieces() {
				if pc.Curved {
					dc.QuadraticTo(pc.Ctrl.X, pc.Ctrl.Y, pc.To.X, pc.To.Y)
				} else {
					dc.LineTo(pc.To.X, pc.To.Y)
				}
			}
			stroke(dc, it.Stroke, it.StrokeWidth)
		case ItemMinor:
			dc.DrawLine(it.From.X, it.From.Y, it.To.X, it.To.Y)
			stroke(dc, it.Stroke, it.StrokeWidth)
		case ItemStation:
			dc.DrawCircle(it.Center.X, it.Center.Y, it.Radius)
			dc.SetHexColor(styles.Hex(it.Fill))
			dc.FillPreserve()
			stroke(dc, it.Stroke, it.StrokeWidth)
		case ItemConnection:
			g := it.Connection
			dc.NewSubPath()
			for i, p := range g.Mask {
				if i == 0 {
					dc.MoveTo(p.X, p.Y)
				} else {
					dc.LineTo(p.X, p.Y)
				}
			}
			dc.ClosePath()
			dc.SetHexColor(styles.Hex(it.Fill))
			dc.Fill()
			for _, l := range g.Lines {
				dc.DrawLine(l[0].X, l[0].Y, l[1].X, l[1].Y)
				stroke(dc, it.Stroke, it.StrokeWidth)
			}
		}
	}

	if len(s.Labels) > 0 {
		face, err := fontFace(s.FontSize)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetHexColor(styles.Hex(s.Ink))
		for _, l := range s.Labels {
			dc.DrawString(l.Text, l.Pos.X, l.Pos.Y)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func stroke(dc *gg.Context, color string, width float64) {
	dc.SetHexColor(styles.Hex(color))
	dc.SetLineWidth(width)
	dc.Stroke()
}
