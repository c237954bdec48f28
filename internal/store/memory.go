package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no session exists for an id.
	ErrNotFound = errors.New("no dashboard session for id")
)

// Theme is the user-toggled display flag of a dashboard.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Entry is one dashboard instance: its weather session and display flag.
type Entry struct {
	ID        string
	Session   *weather.Session
	Theme     Theme
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionFactory builds the weather session for a new dashboard.
type SessionFactory func() *weather.Session

// SessionStore is a concurrency-safe in-memory registry of dashboard sessions.
type SessionStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*Entry

	newSession SessionFactory

	// retention configuration
	maxSessions int           // max number of live sessions
	maxAge      time.Duration // idle time after which a session is dropped

	now func() time.Time
}

// NewSessionStore creates a SessionStore with optional limits.
// If maxSessions or maxAge is <= 0, it is treated as unlimited.
func NewSessionStore(factory SessionFactory, maxSessions int, maxAge time.Duration) *SessionStore {
	return &SessionStore{
		data:        make(map[string]*Entry),
		newSession:  factory,
		maxSessions: maxSessions,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Create registers a new idle session and enforces the count limit by
// evicting the least recently seen sessions.
func (s *SessionStore) Create() Entry {
	now := s.now()
	e := &Entry{
		ID:        uuid.NewString(),
		Session:   s.newSession(),
		Theme:     ThemeLight,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[e.ID] = e

	for s.maxSessions > 0 && len(s.data) > s.maxSessions {
		s.evictOldestLocked(e.ID)
	}
	return *e
}

// Get returns the session for id and marks it as seen.
func (s *SessionStore) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.LastSeen = s.now()
	return *e, nil
}

// ToggleTheme flips the display flag of a session.
func (s *SessionStore) ToggleTheme(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if e.Theme == ThemeDark {
		e.Theme = ThemeLight
	} else {
		e.Theme = ThemeDark
	}
	e.LastSeen = s.now()
	return *e, nil
}

// Delete tears a session down.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// Sweep drops sessions idle for longer than maxAge and returns how many
// were removed.
func (s *SessionStore) Sweep() int {
	if s.maxAge <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.data {
		if e.LastSeen.Before(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *SessionStore) evictOldestLocked(keep string) {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.data {
		if id == keep {
			continue
		}
		if oldestID == "" || e.LastSeen.Before(oldest) {
			oldestID = id
			oldest = e.LastSeen
		}
	}
	if oldestID == "" {
		return
	}
	delete(s.data, oldestID)
}
