package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvview/internal/core"
)

// sessions keeps the view each browser currently has on screen, keyed by a
// uuid cookie. Update cycles read the prior view from here and store the
// result back.
type sessions struct {
	cookie string
	ttl    time.Duration
	max    int

	mu      sync.Mutex
	entries map[string]*session
	now     func() time.Time
}

type session struct {
	view      *core.View
	selection []string
	touched   time.Time
}

func newSessions(cookie string, ttl time.Duration, maxEntries int) *sessions {
	return &sessions{
		cookie:  cookie,
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]*session),
		now:     time.Now,
	}
}

// id returns the caller's session id, issuing a new cookie when the request
// has none or an invalid one.
func (s *sessions) id(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return id
}

// get returns the stored view and selection, or nil when the session is
// unknown or expired.
func (s *sessions) get(id string) (*core.View, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if s.now().Sub(e.touched) > s.ttl {
		delete(s.entries, id)
		return nil, nil
	}
	e.touched = s.now()
	return e.view, e.selection
}

// put stores the view now on screen, evicting the least recently used
// session when full.
func (s *sessions) put(id string, view *core.View, selection []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok && len(s.entries) >= s.max {
		s.evictOldestLocked()
	}
	s.entries[id] = &session{view: view, selection: selection, touched: s.now()}
}

func (s *sessions) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.entries {
		if oldestID == "" || e.touched.Before(oldest) {
			oldestID, oldest = id, e.touched
		}
	}
	delete(s.entries, oldestID)
}

// sweep drops expired sessions and reports how many were removed.
func (s *sessions) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, e := range s.entries {
		if now.Sub(e.touched) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// run sweeps expired sessions until stop is closed.
func (s *sessions) run(stop <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}
