package weather

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Session turns user intent into provider calls and holds the latest outcome.
//
// Every submission takes a new generation number. A result is published only
// while its generation is still the latest one started, so a slow response
// to an older request can never overwrite a newer one. Superseded calls are
// not aborted; their results are dropped when they arrive.
type Session struct {
	provider Provider
	geocoder Geocoder
	display  *time.Location
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex // guards gen and serialises publication
	gen   uint64
	state atomic.Pointer[State]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDisplayLocation sets the zone used to pick each day's midday sample.
func WithDisplayLocation(loc *time.Location) SessionOption {
	return func(s *Session) {
		if loc != nil {
			s.display = loc
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession creates an idle Session. geocoder may be nil, in which case
// current-location requests fail as unsupported.
func NewSession(provider Provider, geocoder Geocoder, opts ...SessionOption) *Session {
	s := &Session{
		provider: provider,
		geocoder: geocoder,
		display:  time.UTC,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(&State{Status: StatusIdle, UpdatedAt: s.now().UTC()})
	return s
}

// State returns the latest published state. The returned value must be
// treated as read-only.
func (s *Session) State() State {
	return *s.state.Load()
}

// SubmitSearch looks up current conditions and the forecast for text and
// returns the session state once this request has settled. Blank input fails
// with a ValidationError without contacting the provider.
func (s *Session) SubmitSearch(ctx context.Context, text string) State {
	query := strings.TrimSpace(text)
	if query == "" {
		gen := s.next()
		s.publish(gen, State{
			Status: StatusFailed,
			Error:  &StateError{Kind: ErrValidation, Message: MsgEmptyQuery},
		})
		return s.State()
	}

	gen := s.next()
	s.publish(gen, State{Status: StatusLoading, Query: query})
	s.search(ctx, gen, query)
	return s.State()
}

// SubmitCurrentLocation asks locator for the device position, resolves it to
// a place name and then searches for that name. A nil locator means the
// device has no location provider.
func (s *Session) SubmitCurrentLocation(ctx context.Context, locator Locator) State {
	gen := s.next()

	if locator == nil || s.geocoder == nil {
		s.publish(gen, State{
			Status: StatusFailed,
			Error:  &StateError{Kind: ErrUnsupported, Message: MsgUnsupported},
		})
		return s.State()
	}

	s.publish(gen, State{Status: StatusLoading})

	coords, err := locator.Locate(ctx)
	if err != nil {
		s.fail(gen, "", NewError(ErrGeolocation, MsgGeolocationPrefix+err.Error(), err))
		return s.State()
	}

	name, err := s.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		s.fail(gen, "", err)
		return s.State()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.fail(gen, "", NewError(ErrNotFound, MsgGeocodeNoResults, nil))
		return s.State()
	}

	s.logger.Debug("resolved device location",
		"generation", gen, "lat", coords.Latitude, "lon", coords.Longitude, "query", name)

	if !s.publish(gen, State{Status: StatusLoading, Query: name}) {
		return s.State()
	}
	s.search(ctx, gen, name)
	return s.State()
}

// search fetches current conditions and the forecast concurrently. Both must
// succeed; a partial result is never published. When both fail the
// current-conditions error is reported.
func (s *Session) search(ctx context.Context, gen uint64, query string) {
	var (
		current     CurrentConditions
		samples     []WeatherSample
		errCurrent  error
		errForecast error
	)

	var g errgroup.Group
	g.Go(func() error {
		current, errCurrent = s.provider.FetchCurrent(ctx, query)
		return errCurrent
	})
	g.Go(func() error {
		samples, errForecast = s.provider.FetchForecast(ctx, query)
		return errForecast
	})
	_ = g.Wait()

	switch {
	case errCurrent != nil:
		s.fail(gen, query, errCurrent)
		return
	case errForecast != nil:
		s.fail(gen, query, errForecast)
		return
	}

	s.publish(gen, State{
		Status:   StatusReady,
		Query:    query,
		Current:  &current,
		Forecast: AggregateIn(samples, s.display),
	})
}

func (s *Session) fail(gen uint64, query string, err error) {
	s.logger.Warn("weather request failed",
		"generation", gen, "query", query, "kind", KindOf(err), "error", err)
	s.publish(gen, State{Status: StatusFailed, Query: query, Error: asStateError(err)})
}

// next starts a new request and supersedes every older one.
func (s *Session) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// publish stores st if gen is still the latest request. It reports whether
// the state was published.
func (s *Session) publish(gen uint64, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.logger.Debug("discarding superseded result",
			"generation", gen, "latest", s.gen, "status", st.Status)
		return false
	}

	st.Generation = gen
	st.UpdatedAt = s.now().UTC()
	s.state.Store(&st)
	return true
}
