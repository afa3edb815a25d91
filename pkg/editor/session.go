// Package editor is the boundary between user interfaces and the map engine.
//
// A [Session] holds everything an interactive editor needs besides the map
// itself: the track new stations go to, the selected and most recently added
// stations, the snap setting and the undo history. Sessions are explicit
// values, so a process can edit several maps at once. A Session is not safe
// for concurrent use.
package editor

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/observability"
	"github.com/SonghaiFan/metroflow/pkg/revision"
	"github.com/SonghaiFan/metroflow/pkg/snap"
	"github.com/SonghaiFan/metroflow/pkg/styles"
)

// Session is one editing session on one map.
type Session struct {
	m        *metro.Map
	track    *metro.Track
	selected *metro.Station
	last     *metro.Station
	dragging bool

	snap      bool
	threshold float64
	theme     styles.Theme
	history   *revision.History
	capacity  int
	logger    *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSnap enables or disables drag alignment.
func WithSnap(enabled bool) Option {
	return func(s *Session) { s.snap = enabled }
}

// WithSnapThreshold sets the alignment distance. Non-positive values keep
// the default.
func WithSnapThreshold(d float64) Option {
	return func(s *Session) {
		if d > 0 {
			s.threshold = d
		}
	}
}

// WithHistory replaces the undo history.
func WithHistory(h *revision.History) Option {
	return func(s *Session) {
		if h != nil {
			s.history = h
		}
	}
}

// WithHistoryCapacity bounds the history the session creates for itself.
// It has no effect together with [WithHistory].
func WithHistoryCapacity(n int) Option {
	return func(s *Session) { s.capacity = n }
}

// WithTheme sets the theme used for tracks created by the session.
func WithTheme(t styles.Theme) Option {
	return func(s *Session) { s.theme = t }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New starts a session on an empty map with one track.
func New(opts ...Option) *Session {
	s := newSession(opts)
	m := metro.New()
	m.SetTheme(s.theme)
	m.CreateTrack()
	s.install(m, "")
	s.record("new")
	return s
}

// Open starts a session on an existing map. The map is laid out and becomes
// the first history entry.
func Open(m *metro.Map, opts ...Option) *Session {
	s := newSession(opts)
	m.SetTheme(s.theme)
	m.Layout()
	s.install(m, "")
	s.record("open")
	return s
}

func newSession(opts []Option) *Session {
	s := &Session{
		snap:      true,
		threshold: snap.DefaultThreshold,
		theme:     styles.ThemeDefault,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = revision.New(revision.WithCapacity(s.capacity), revision.WithLogger(s.logger))
	}
	return s
}

// install makes m the session map. The current track is kept when a track
// with the same id exists, else the first track is used.
func (s *Session) install(m *metro.Map, trackID string) {
	s.m = m
	s.track = m.FindTrack(trackID)
	if s.track == nil {
		if tracks := m.Tracks(); len(tracks) > 0 {
			s.track = tracks[0]
		}
	}
	s.selected = nil
	s.last = nil
	s.dragging = false
}

// =============================================================================
// Accessors
// =============================================================================

// Map returns the map being edited. Undo, redo and load replace it, so
// callers should not hold on to the result across those calls.
func (s *Session) Map() *metro.Map { return s.m }

// CurrentTrack returns the track new stations are added to, or nil.
func (s *Session) CurrentTrack() *metro.Track { return s.track }

// Selected returns the selected station, or nil.
func (s *Session) Selected() *metro.Station { return s.selected }

// LastStation returns the station the next free station links from.
func (s *Session) LastStation() *metro.Station { return s.last }

// History returns the undo history.
func (s *Session) History() *revision.History { return s.history }

// SnapEnabled reports whether drag alignment is on.
func (s *Session) SnapEnabled() bool { return s.snap }

// SetSnap turns drag alignment on or off.
func (s *Session) SetSnap(enabled bool) { s.snap = enabled }

// ToggleSnap flips drag alignment and returns the new setting.
func (s *Session) ToggleSnap() bool {
	s.snap = !s.snap
	return s.snap
}

// =============================================================================
// Tracks
// =============================================================================

// NewTrack appends a track and makes it current.
func (s *Session) NewTrack() (*metro.Track, error) {
	s.m.SetTheme(s.theme)
	t := s.m.CreateTrack()
	s.track = t
	s.last = nil
	if err := s.done("new_track", nil); err != nil {
		return nil, err
	}
	return t, nil
}

// SelectTrack makes the track with the given id current.
func (s *Session) SelectTrack(id string) error {
	t := s.m.FindTrack(id)
	if t == nil {
		return errors.New(errors.ErrCodeTrackNotFound, "track %s not found", id)
	}
	if t != s.track {
		s.track = t
		s.last = nil
	}
	return nil
}

// BreakLine makes the next free station start a new line instead of
// linking to the last one.
func (s *Session) BreakLine() { s.last = nil }

// =============================================================================
// Layout and history
// =============================================================================

// Layout routes all segments and re-projects dependent stations.
func (s *Session) Layout() {
	start := time.Now()
	s.m.Layout()
	observability.Editor().OnLayout(len(s.m.Segments()), time.Since(start))
}

// Record stores the current map in the history.
func (s *Session) Record() error {
	return s.record("record")
}

func (s *Session) record(op string) error {
	if err := s.history.Record(s.m); err != nil {
		s.logger.Error("record revision failed", "error", err)
		return errors.Wrap(errors.ErrCodeInternal, err, "record revision")
	}
	observability.Editor().OnHistory(op, s.history.Index(), s.history.Len())
	return nil
}

// Undo restores the previous snapshot. It reports whether the map changed.
func (s *Session) Undo() (bool, error) {
	return s.restore("undo", s.history.HasUndo(), s.history.Undo)
}

// Redo restores the next snapshot. It reports whether the map changed.
func (s *Session) Redo() (bool, error) {
	return s.restore("redo", s.history.HasRedo(), s.history.Redo)
}

func (s *Session) restore(op string, ok bool, step func(*metro.Map) (*metro.Map, error)) (bool, error) {
	if !ok {
		return false, nil
	}
	m, err := step(s.m)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "%s", op)
	}
	trackID := ""
	if s.track != nil {
		trackID = s.track.ID
	}
	m.SetTheme(s.theme)
	s.install(m, trackID)
	s.logger.Debug("history step", "op", op, "index", s.history.Index(), "len", s.history.Len())
	observability.Editor().OnHistory(op, s.history.Index(), s.history.Len())
	return true, nil
}

// Reset replaces the map with an empty one holding a single track and
// restarts the history.
func (s *Session) Reset() {
	m := metro.New()
	m.SetTheme(s.theme)
	m.CreateTrack()
	s.install(m, "")
	s.history.Clear()
	s.record("reset")
}

// =============================================================================
// Persistence
// =============================================================================

// Snapshot serializes the map.
func (s *Session) Snapshot() ([]byte, error) {
	return document.Marshal(s.m)
}

// Save writes the map as indented JSON.
func (s *Session) Save(w io.Writer) error {
	return document.Write(s.m, w)
}

// Load replaces the map with the one decoded from data and restarts the
// history. On error the session is left untouched.
func (s *Session) Load(data []byte) error {
	m, err := document.Unmarshal(data)
	if err != nil {
		return s.done("load", err)
	}
	m.SetTheme(s.theme)
	s.install(m, "")
	s.history.Clear()
	s.logger.Debug("loaded map", "tracks", len(m.Tracks()), "stations", len(m.Stations()))
	return s.done("load", nil)
}

// done finishes a discrete action and returns its error. Successful actions
// become a history entry. If the entry cannot be written the map is rolled
// back to the current entry, so the action either lands in the history or
// not at all.
func (s *Session) done(action string, err error) error {
	if err == nil {
		if err = s.record(action); err != nil {
			s.rollback()
		}
	}
	observability.Editor().OnEdit(action, err)
	if err != nil {
		s.logger.Debug("edit rejected", "action", action, "error", err)
		return err
	}
	s.logger.Debug("edit", "action", action)
	return nil
}

func (s *Session) rollback() {
	data := s.history.Current()
	if data == nil {
		return
	}
	m, err := document.Unmarshal(data)
	if err != nil {
		s.logger.Error("rollback failed", "error", err)
		return
	}
	trackID := ""
	if s.track != nil {
		trackID = s.track.ID
	}
	m.SetTheme(s.theme)
	s.install(m, trackID)
}

func (s *Session) station(id string) (*metro.Station, error) {
	st := s.m.FindStation(id)
	if st == nil {
		return nil, errors.New(errors.ErrCodeStationNotFound, "station %s not found", id)
	}
	return st, nil
}

func (s *Session) currentTrack() (*metro.Track, error) {
	if s.track == nil {
		return nil, errors.New(errors.ErrCodeTrackNotFound, "no current track")
	}
	return s.track, nil
}

func (s *Session) alive(st *metro.Station) bool {
	return st != nil && s.m.FindStation(st.ID) == st
}

// position returns pos aligned with the station's neighbours when snapping
// applies to it.
func (s *Session) position(st *metro.Station, pos geom.Vec) geom.Vec {
	if !s.snap || !st.Snap {
		return pos
	}
	t := s.m.TrackOf(st.ID)
	if t == nil {
		return pos
	}
	return snap.Position(t, st, pos, snap.WithThreshold(s.threshold))
}
