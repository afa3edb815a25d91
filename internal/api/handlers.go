package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SonghaiFan/metroflow/pkg/buildinfo"
	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/editor"
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/geom"
	"github.com/SonghaiFan/metroflow/pkg/metro"
	"github.com/SonghaiFan/metroflow/pkg/pipeline"
	"github.com/SonghaiFan/metroflow/pkg/store"
)

// =============================================================================
// Wire types
// =============================================================================

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type mapResponse struct {
	ID    string `json:"id"`
	Track string `json:"track,omitempty"`
}

type trackResponse struct {
	ID string `json:"id"`
}

type stationRequest struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Kind    string   `json:"kind,omitempty"` // station (default), free, on-segment, minor
	Segment string   `json:"segment,omitempty"`
	Offset  *float64 `json:"offset,omitempty"`
	Track   string   `json:"track,omitempty"`
}

type stationPatch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Name        *string  `json:"name,omitempty"`
	LabelOffset *point   `json:"labelOffset,omitempty"`
}

type stationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Position point  `json:"position"`
	Track    string `json:"track,omitempty"`
	Selected bool   `json:"selected"`
}

type linkRequest struct {
	StationA string `json:"stationA"`
	StationB string `json:"stationB"`
}

type linkResponse struct {
	ID       string `json:"id"`
	StationA string `json:"stationA"`
	StationB string `json:"stationB"`
}

type historyResponse struct {
	Changed bool `json:"changed"`
	Index   int  `json:"index"`
	Length  int  `json:"length"`
}

func stationJSON(m *metro.Map, st *metro.Station) stationResponse {
	p := st.Position()
	resp := stationResponse{
		ID:       st.ID,
		Name:     st.Name,
		Kind:     st.Kind().String(),
		Position: point{p.X, p.Y},
		Selected: st.Selected(),
	}
	if t := m.TrackOf(st.ID); t != nil {
		resp.Track = t.ID
	}
	return resp
}

// =============================================================================
// Maps
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Get().Version,
		"sessions": s.sessions.len(),
	})
}

// handleCreateMap starts a session from an empty map, a snapshot in the
// request body, or a stored snapshot named by ?from=.
func (s *Server) handleCreateMap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var ed *editor.Session
	switch from := r.URL.Query().Get("from"); {
	case from != "":
		if s.store == nil {
			s.writeError(w, errNoStore())
			return
		}
		m, err := store.LoadMap(r.Context(), s.store, from)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ed = editor.Open(m, s.editor...)
	case len(body) > 0:
		m, err := document.Unmarshal(body)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ed = editor.Open(m, s.editor...)
	default:
		ed = editor.New(s.editor...)
	}

	id := s.sessions.add(ed)
	resp := mapResponse{ID: id}
	if t := ed.CurrentTrack(); t != nil {
		resp.Track = t.ID
	}
	w.Header().Set("Location", "/maps/"+id)
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.lock(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := sess.ed.Snapshot()
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.remove(id) {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// edit runs fn on the locked session named in the URL.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(ed *editor.Session) (int, any, error)) {
	sess, err := s.sessions.lock(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	status, resp, err := fn(sess.ed)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if resp == nil {
		w.WriteHeader(status)
		return
	}
	s.writeJSON(w, status, resp)
}

// =============================================================================
// Tracks and stations
// =============================================================================

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		t, err := ed.NewTrack()
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, trackResponse{ID: t.ID}, nil
	})
}

func (s *Server) handleCreateStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		if req.Track != "" {
			if err := ed.SelectTrack(req.Track); err != nil {
				return 0, nil, err
			}
		}
		pos := geom.V(req.X, req.Y)
		var (
			st  *metro.Station
			err error
		)
		switch req.Kind {
		case "", "station":
			st, err = ed.AddStation(pos)
		case "free":
			st, err = ed.AddFreeStation(pos)
		case "on-segment":
			if req.Segment == "" || req.Offset == nil {
				return 0, nil, errors.New(errors.ErrCodeInvalidInput, "on-segment stations need segment and offset")
			}
			st, err = ed.AddStationOnSegment(req.Segment, *req.Offset)
		case "minor":
			if req.Segment != "" {
				st, err = ed.AddMinorStationOnSegment(req.Segment, pos)
			} else {
				st, err = ed.AddMinorStation(pos)
			}
		default:
			return 0, nil, errors.New(errors.ErrCodeInvalidInput, "unknown station kind %q", req.Kind)
		}
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, stationJSON(ed.Map(), st), nil
	})
}

func (s *Server) handleUpdateStation(w http.ResponseWriter, r *http.Request) {
	var req stationPatch
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "x and y must be given together"))
		return
	}
	var u editor.StationUpdate
	if req.X != nil {
		pos := geom.V(*req.X, *req.Y)
		u.Position = &pos
	}
	u.Name = req.Name
	if req.LabelOffset != nil {
		off := geom.V(req.LabelOffset.X, req.LabelOffset.Y)
		u.LabelOffset = &off
	}
	sid := chi.URLParam(r, "sid")
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		st, err := ed.UpdateStation(sid, u)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, stationJSON(ed.Map(), st), nil
	})
}

func (s *Server) handleDeleteStation(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		return http.StatusNoContent, nil, ed.RemoveStation(sid)
	})
}

// =============================================================================
// Segments and connections
// =============================================================================

func (s *Server) handleCreateSegment(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		seg, err := ed.CreateSegment(req.StationA, req.StationB)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, linkResponse{ID: seg.ID, StationA: seg.A(), StationB: seg.B()}, nil
	})
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		c, err := ed.Connect(req.StationA, req.StationB)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, linkResponse{ID: c.ID, StationA: c.A(), StationB: c.B()}, nil
	})
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		return http.StatusNoContent, nil, ed.Disconnect(cid)
	})
}

// =============================================================================
// History
// =============================================================================

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		return history(ed, ed.Undo)
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *editor.Session) (int, any, error) {
		return history(ed, ed.Redo)
	})
}

func history(ed *editor.Session, step func() (bool, error)) (int, any, error) {
	changed, err := step()
	if err != nil {
		return 0, nil, err
	}
	h := ed.History()
	return http.StatusOK, historyResponse{Changed: changed, Index: h.Index(), Length: h.Len()}, nil
}

// =============================================================================
// Rendering and storage
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == "topology.svg" {
		format = pipeline.FormatTopology
	}
	opts, err := s.renderOptions(r, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.lock(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.runner.Execute(r.Context(), sess.ed.Map(), opts)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("ETag", strconv.Quote(result.SnapshotHash[:16]))
	w.Write(result.Artifacts[format])
}

// renderOptions applies query overrides to the server defaults.
func (s *Server) renderOptions(r *http.Request, format string) (pipeline.Options, error) {
	if err := pipeline.ValidateFormat(format); err != nil {
		return pipeline.Options{}, err
	}
	opts := s.render
	opts.Formats = []string{format}
	opts.Logger = s.logger

	q := r.URL.Query()
	floats := []struct {
		key string
		dst *float64
	}{
		{"padding", &opts.Padding},
		{"scale", &opts.Scale},
		{"font_size", &opts.FontSize},
		{"width", &opts.Width},
		{"height", &opts.Height},
	}
	for _, f := range floats {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "%s: not a number: %q", f.key, v)
		}
		*f.dst = n
	}
	if v := q.Get("labels"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "labels: not a boolean: %q", v)
		}
		opts.NoLabels = !on
	}
	if v := q.Get("theme"); v != "" {
		opts.Theme = v
	}
	opts.Refresh = q.Has("refresh")
	return opts, opts.ValidateAndSetDefaults()
}

func (s *Server) handleSaveToStore(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errNoStore())
		return
	}
	sess, err := s.sessions.lock(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := sess.ed.Snapshot()
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), chi.URLParam(r, "name"), data); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStore(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errNoStore())
		return
	}
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func errNoStore() error {
	return errors.New(errors.ErrCodeUnsupported, "no snapshot store configured")
}
