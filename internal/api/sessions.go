package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SonghaiFan/metroflow/pkg/editor"
	"github.com/SonghaiFan/metroflow/pkg/errors"
)

// session is one map being edited. mu serializes every request that reads
// or changes the map.
type session struct {
	mu      sync.Mutex
	ed      *editor.Session
	touched time.Time
}

type sessions struct {
	mu  sync.RWMutex
	m   map[string]*session
	ttl time.Duration
	now func() time.Time
}

func newSessions(ttl time.Duration) *sessions {
	return &sessions{m: make(map[string]*session), ttl: ttl, now: time.Now}
}

func (ss *sessions) add(ed *editor.Session) string {
	id := uuid.NewString()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.m[id] = &session{ed: ed, touched: ss.now()}
	return id
}

// lock returns the session with its mutex held. The caller must unlock it.
func (ss *sessions) lock(id string) (*session, error) {
	ss.mu.RLock()
	s := ss.m[id]
	ss.mu.RUnlock()
	if s == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	s.mu.Lock()
	s.touched = ss.now()
	return s, nil
}

func (ss *sessions) remove(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.m[id]; !ok {
		return false
	}
	delete(ss.m, id)
	return true
}

func (ss *sessions) len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.m)
}

// expire drops sessions idle for longer than the TTL. Sessions in use are
// skipped.
func (ss *sessions) expire(now time.Time) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for id, s := range ss.m {
		if !s.mu.TryLock() {
			continue
		}
		if now.Sub(s.touched) > ss.ttl {
			delete(ss.m, id)
			n++
		}
		s.mu.Unlock()
	}
	return n
}
