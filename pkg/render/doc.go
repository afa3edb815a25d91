// Package render draws metro maps.
//
// Rendering happens in two steps. [Build] turns a laid-out map into a
// [Scene]: a flat, ordered list of strokes, station discs, minor ticks,
// connection strokes and placed labels, together with the view box that
// encloses them. The scene is then written out by one of the sinks:
//
//   - [SVG] writes a standalone SVG document by hand
//   - [PNG] rasterizes the scene with fogleman/gg
//   - [TopologyDOT] and [TopologySVG] draw the station graph with Graphviz,
//     ignoring routed geometry
//
// Drawing order follows the editor: for each track its segments, then its
// minor stations, then its major stations; connections are drawn on top of
// all tracks and labels last.
//
//	m := metro.NewExample()
//	svg := render.SVG(m, render.WithPadding(40))
//	png, err := render.PNG(m, render.WithScale(2))
package render
