// Package pkg provides the libraries behind MetroFlow, a transit-map editor
// engine.
//
// # Overview
//
// A metro map is a set of tracks. Each track owns stations and the segments
// joining them; connections join stations across tracks. The pkg directory
// is organized in layers:
//
//  1. Geometry: [geom] vectors and [path] line/curve pieces
//  2. Model: [metro] tracks, segments, stations, connections and routing,
//     [styles] for colors and themes, [snap] for drag alignment
//  3. State: [document] snapshots, [revision] undo history and [editor]
//     sessions used by user interfaces
//  4. Output: [render] for SVG, PNG and Graphviz views, [pipeline] to run
//     them with an artifact [cache]
//  5. Infrastructure: [store] for named snapshots, [config], [errors],
//     [observability] hooks and [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	user action (CLI / HTTP API)
//	         ↓
//	    [editor] session (validate, snap, record)
//	         ↓
//	    [metro] map (mutate, re-route dependent segments)
//	         ↓
//	    [document] snapshot → [revision] history / [store]
//	         ↓
//	    [pipeline] → [render] → SVG/PNG/DOT
//
// # Quick Start
//
// Build a two-station line and render it:
//
//	import (
//	    "context"
//	    "github.com/SonghaiFan/metroflow/pkg/editor"
//	    "github.com/SonghaiFan/metroflow/pkg/geom"
//	    "github.com/SonghaiFan/metroflow/pkg/pipeline"
//	)
//
//	s := editor.New()
//	s.AddStation(geom.V(100, 100))
//	s.AddStation(geom.V(300, 180))
//
//	artifacts, _ := pipeline.Render(context.Background(), s.Map(), pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	os.WriteFile("line.svg", artifacts[pipeline.FormatSVG], 0o644)
//
// [geom]: github.com/SonghaiFan/metroflow/pkg/geom
// [path]: github.com/SonghaiFan/metroflow/pkg/path
// [metro]: github.com/SonghaiFan/metroflow/pkg/metro
// [styles]: github.com/SonghaiFan/metroflow/pkg/styles
// [snap]: github.com/SonghaiFan/metroflow/pkg/snap
// [document]: github.com/SonghaiFan/metroflow/pkg/document
// [revision]: github.com/SonghaiFan/metroflow/pkg/revision
// [editor]: github.com/SonghaiFan/metroflow/pkg/editor
// [render]: github.com/SonghaiFan/metroflow/pkg/render
// [pipeline]: github.com/SonghaiFan/metroflow/pkg/pipeline
// [cache]: github.com/SonghaiFan/metroflow/pkg/cache
// [store]: github.com/SonghaiFan/metroflow/pkg/store
// [config]: github.com/SonghaiFan/metroflow/pkg/config
// [errors]: github.com/SonghaiFan/metroflow/pkg/errors
// [observability]: github.com/SonghaiFan/metroflow/pkg/observability
// [buildinfo]: github.com/SonghaiFan/metroflow/pkg/buildinfo
package pkg
