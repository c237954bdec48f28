package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(maxSessions int, maxAge time.Duration) (*SessionStore, *clock) {
	c := &clock{t: time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)}
	s := NewSessionStore(func() *weather.Session {
		return weather.NewSession(nil, nil)
	}, maxSessions, maxAge)
	s.now = c.now
	return s, c
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(0, 0)

	e := s.Create()
	if e.ID == "" || e.Session == nil || e.Theme != ThemeLight {
		t.Fatalf("unexpected entry %+v", e)
	}
	if st := e.Session.State(); st.Status != weather.StatusIdle {
		t.Fatalf("new session is %q, want idle", st.Status)
	}

	got, err := s.Get(e.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Session != e.Session {
		t.Fatalf("Get returned a different session")
	}

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s, _ := newTestStore(0, 0)

	a, b := s.Create(), s.Create()
	if a.ID == b.ID || a.Session == b.Session {
		t.Fatalf("sessions share identity: %+v %+v", a, b)
	}
	if _, err := s.ToggleTheme(a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Get(b.ID)
	if got.Theme != ThemeLight {
		t.Fatalf("toggling one session changed another")
	}
}

func TestToggleTheme(t *testing.T) {
	s, _ := newTestStore(0, 0)
	e := s.Create()

	got, err := s.ToggleTheme(e.ID)
	if err != nil || got.Theme != ThemeDark {
		t.Fatalf("first toggle = %q, %v", got.Theme, err)
	}
	got, err = s.ToggleTheme(e.ID)
	if err != nil || got.Theme != ThemeLight {
		t.Fatalf("second toggle = %q, %v", got.Theme, err)
	}
	if _, err := s.ToggleTheme("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(0, 0)
	e := s.Create()

	if err := s.Delete(e.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	if err := s.Delete(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateEvictsLeastRecentlySeen(t *testing.T) {
	s, c := newTestStore(2, 0)

	first := s.Create()
	c.t = c.t.Add(time.Minute)
	second := s.Create()
	c.t = c.t.Add(time.Minute)

	// Touch the first so the second becomes the oldest.
	if _, err := s.Get(first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.t = c.t.Add(time.Minute)
	third := s.Create()

	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Len())
	}
	if _, err := s.Get(second.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second session evicted, got %v", err)
	}
	for _, id := range []string{first.ID, third.ID} {
		if _, err := s.Get(id); err != nil {
			t.Fatalf("session %s missing: %v", id, err)
		}
	}
}

func TestCreateNeverEvictsNewEntry(t *testing.T) {
	s, _ := newTestStore(1, 0)

	s.Create()
	e := s.Create()
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
	if _, err := s.Get(e.ID); err != nil {
		t.Fatalf("newest session evicted: %v", err)
	}
}

func TestSweep(t *testing.T) {
	s, c := newTestStore(0, 30*time.Minute)

	stale := s.Create()
	c.t = c.t.Add(20 * time.Minute)
	fresh := s.Create()
	c.t = c.t.Add(15 * time.Minute)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if _, err := s.Get(stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session still present")
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Fatalf("fresh session removed: %v", err)
	}
}

func TestSweepUnlimitedAge(t *testing.T) {
	s, c := newTestStore(0, 0)
	s.Create()
	c.t = c.t.Add(24 * time.Hour)

	if n := s.Sweep(); n != 0 {
		t.Fatalf("Sweep removed %d with no max age", n)
	}
}
