// Package metro is the topology and layout engine of a transit-map editor.
//
// # Model
//
// A [Map] owns an ordered list of [Track] values, the [Connection] values
// between stations, and the station arena: every [Station] lives in a single
// map-owned store keyed by id. Tracks, segments and connections refer to
// stations by id, which keeps removal cascades simple and avoids cyclic
// ownership.
//
// A [Segment] joins two endpoint stations. Its interior stations are split
// into user-placed stations (the endpoints first, then stations dropped onto
// the segment) and auto-placed minor stations. Each station derives its
// position through a [PositionStrategy] chosen at creation:
//
//   - [KindFree]: the position is authoritative.
//   - [KindOnSegment]: the position is a fraction of the segment's arc length.
//   - [KindMinor]: the position is recomputed by even subdivision between the
//     two user-placed stations that bracket it.
//
// # Layout
//
// [Map.Layout] routes every segment with [Route] and re-projects dependent
// stations onto the new paths. Layout is a pure function of the current
// state: running it twice in a row changes nothing.
//
// # Errors
//
// Invalid topology requests (a segment from a station to itself, a
// connection between identical stations, lookups of stale ids) return nil or
// false. The engine never panics on stray input and never logs.
package metro
