package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeProvider struct {
	calls    atomic.Int32
	current  func(ctx context.Context, q string) (CurrentConditions, error)
	forecast func(ctx context.Context, q string) ([]WeatherSample, error)
}

func (f *fakeProvider) FetchCurrent(ctx context.Context, q string) (CurrentConditions, error) {
	f.calls.Add(1)
	if f.current == nil {
		return CurrentConditions{Name: q, ConditionCode: "01d"}, nil
	}
	return f.current(ctx, q)
}

func (f *fakeProvider) FetchForecast(ctx context.Context, q string) ([]WeatherSample, error) {
	f.calls.Add(1)
	if f.forecast == nil {
		return fiveDaySamples(), nil
	}
	return f.forecast(ctx, q)
}

type fakeGeocoder struct {
	name string
	err  error
}

func (g fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return g.name, g.err
}

// fiveDaySamples returns 15 samples, three per day over five days.
func fiveDaySamples() []WeatherSample {
	var out []WeatherSample
	for day := 4; day <= 8; day++ {
		for _, hour := range []int{9, 12, 18} {
			out = append(out, sampleAt(day, hour, float64(day+hour), "02d"))
		}
	}
	return out
}

func TestSessionStartsIdle(t *testing.T) {
	s := NewSession(&fakeProvider{}, nil)
	if st := s.State(); st.Status != StatusIdle || st.Generation != 0 {
		t.Fatalf("unexpected initial state %+v", st)
	}
}

func TestSubmitSearchRejectsBlankInput(t *testing.T) {
	p := &fakeProvider{}
	s := NewSession(p, nil)

	for _, in := range []string{"", "   ", "\t\n"} {
		st := s.SubmitSearch(context.Background(), in)
		if st.Status != StatusFailed || st.Error == nil || st.Error.Kind != ErrValidation {
			t.Fatalf("SubmitSearch(%q) = %+v, want validation failure", in, st)
		}
		if st.Error.Message != MsgEmptyQuery {
			t.Errorf("message = %q, want %q", st.Error.Message, MsgEmptyQuery)
		}
	}
	if n := p.calls.Load(); n != 0 {
		t.Fatalf("provider called %d times for blank input", n)
	}
}

func TestSubmitSearchReady(t *testing.T) {
	s := NewSession(&fakeProvider{}, nil)

	st := s.SubmitSearch(context.Background(), "  London ")
	if st.Status != StatusReady {
		t.Fatalf("status = %q, want ready (error %+v)", st.Status, st.Error)
	}
	if st.Query != "London" || st.Current == nil || st.Current.Name != "London" {
		t.Fatalf("unexpected current conditions %+v", st.Current)
	}
	if len(st.Forecast) != 5 {
		t.Fatalf("expected 5 daily summaries, got %d", len(st.Forecast))
	}
	for i := 1; i < len(st.Forecast); i++ {
		if !st.Forecast[i].Date.After(st.Forecast[i-1].Date) {
			t.Fatalf("summaries out of day order at %d", i)
		}
	}
	if st.Error != nil {
		t.Fatalf("ready state carries error %+v", st.Error)
	}
}

func TestSubmitSearchNotFound(t *testing.T) {
	p := &fakeProvider{
		current: func(context.Context, string) (CurrentConditions, error) {
			return CurrentConditions{}, NewError(ErrNotFound, MsgLocationNotFound, nil)
		},
		forecast: func(context.Context, string) ([]WeatherSample, error) {
			return nil, NewError(ErrNotFound, MsgForecastFailed, nil)
		},
	}
	s := NewSession(p, nil)

	st := s.SubmitSearch(context.Background(), "Atlantis")
	if st.Status != StatusFailed || st.Error.Kind != ErrNotFound {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Current != nil || st.Forecast != nil {
		t.Fatalf("failed state carries data")
	}
}

func TestSubmitSearchReportsCurrentErrorWhenForecastFailsFirst(t *testing.T) {
	forecastDone := make(chan struct{})
	p := &fakeProvider{
		current: func(context.Context, string) (CurrentConditions, error) {
			<-forecastDone
			return CurrentConditions{}, NewError(ErrNotFound, MsgLocationNotFound, nil)
		},
		forecast: func(context.Context, string) ([]WeatherSample, error) {
			defer close(forecastDone)
			return nil, NewError(ErrNotFound, MsgForecastFailed, nil)
		},
	}
	s := NewSession(p, nil)

	for i := 0; i < 20; i++ {
		if i > 0 {
			forecastDone = make(chan struct{})
		}
		st := s.SubmitSearch(context.Background(), "Atlantis")
		if st.Status != StatusFailed || st.Error == nil || st.Error.Message != MsgLocationNotFound {
			t.Fatalf("run %d: unexpected state %+v", i, st)
		}
	}
}

func TestSubmitSearchDoesNotCancelSiblingFetch(t *testing.T) {
	p := &fakeProvider{
		current: func(ctx context.Context, _ string) (CurrentConditions, error) {
			time.Sleep(20 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				t.Errorf("current fetch saw cancelled context: %v", err)
			}
			return CurrentConditions{}, NewError(ErrNotFound, MsgLocationNotFound, nil)
		},
		forecast: func(context.Context, string) ([]WeatherSample, error) {
			return nil, NewError(ErrNetwork, MsgNetwork, nil)
		},
	}
	s := NewSession(p, nil)

	st := s.SubmitSearch(context.Background(), "Atlantis")
	if st.Error == nil || st.Error.Kind != ErrNotFound {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSubmitSearchDiscardsPartialResult(t *testing.T) {
	p := &fakeProvider{
		forecast: func(context.Context, string) ([]WeatherSample, error) {
			return nil, NewError(ErrNotFound, MsgForecastFailed, nil)
		},
	}
	s := NewSession(p, nil)

	st := s.SubmitSearch(context.Background(), "Paris")
	if st.Status != StatusFailed || st.Error.Message != MsgForecastFailed {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Current != nil {
		t.Fatalf("partial current conditions retained: %+v", st.Current)
	}
}

func TestSubmitSearchUnclassifiedErrorIsNetwork(t *testing.T) {
	p := &fakeProvider{
		current: func(context.Context, string) (CurrentConditions, error) {
			return CurrentConditions{}, errors.New("connection reset")
		},
	}
	s := NewSession(p, nil)

	st := s.SubmitSearch(context.Background(), "Oslo")
	if st.Error == nil || st.Error.Kind != ErrNetwork || st.Error.Message != MsgNetwork {
		t.Fatalf("unexpected error %+v", st.Error)
	}
}

func TestSessionRecoversAfterFailure(t *testing.T) {
	s := NewSession(&fakeProvider{}, nil)

	if st := s.SubmitSearch(context.Background(), ""); st.Status != StatusFailed {
		t.Fatalf("expected failure, got %q", st.Status)
	}
	st := s.SubmitSearch(context.Background(), "Rome")
	if st.Status != StatusReady || st.Error != nil {
		t.Fatalf("expected ready after failure, got %+v", st)
	}
	if st.Generation != 2 {
		t.Fatalf("generation = %d, want 2", st.Generation)
	}
}

// blockingProvider holds every call for a query until that query is released.
type blockingProvider struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started map[string]chan struct{}
}

func newBlockingProvider(queries ...string) *blockingProvider {
	p := &blockingProvider{gates: map[string]chan struct{}{}, started: map[string]chan struct{}{}}
	for _, q := range queries {
		p.gates[q] = make(chan struct{})
		p.started[q] = make(chan struct{}, 2)
	}
	return p
}

func (p *blockingProvider) wait(q string) {
	p.mu.Lock()
	gate, started := p.gates[q], p.started[q]
	p.mu.Unlock()
	started <- struct{}{}
	<-gate
}

func (p *blockingProvider) FetchCurrent(_ context.Context, q string) (CurrentConditions, error) {
	p.wait(q)
	return CurrentConditions{Name: q}, nil
}

func (p *blockingProvider) FetchForecast(_ context.Context, q string) ([]WeatherSample, error) {
	p.wait(q)
	return fiveDaySamples(), nil
}

func (p *blockingProvider) awaitStart(t *testing.T, q string) {
	t.Helper()
	for i := 0; i < 2; i++ {
		select {
		case <-p.started[q]:
		case <-time.After(2 * time.Second):
			t.Fatalf("request %q never reached the provider", q)
		}
	}
}

func TestStaleResponseArrivingLateIsDiscarded(t *testing.T) {
	p := newBlockingProvider("A", "B")
	s := NewSession(p, nil)

	doneA := make(chan State, 1)
	go func() { doneA <- s.SubmitSearch(context.Background(), "A") }()
	p.awaitStart(t, "A")

	doneB := make(chan State, 1)
	go func() { doneB <- s.SubmitSearch(context.Background(), "B") }()
	p.awaitStart(t, "B")

	close(p.gates["B"])
	if st := <-doneB; st.Status != StatusReady || st.Query != "B" {
		t.Fatalf("B settled as %+v", st)
	}

	close(p.gates["A"])
	<-doneA

	st := s.State()
	if st.Status != StatusReady || st.Query != "B" || st.Current.Name != "B" {
		t.Fatalf("final state reflects %q, want B", st.Query)
	}
}

func TestSupersededResponseDoesNotReplaceLoading(t *testing.T) {
	p := newBlockingProvider("A", "B")
	s := NewSession(p, nil)

	doneA := make(chan State, 1)
	go func() { doneA <- s.SubmitSearch(context.Background(), "A") }()
	p.awaitStart(t, "A")

	doneB := make(chan State, 1)
	go func() { doneB <- s.SubmitSearch(context.Background(), "B") }()
	p.awaitStart(t, "B")

	close(p.gates["A"])
	<-doneA

	if st := s.State(); st.Status != StatusLoading || st.Query != "B" {
		t.Fatalf("after A settled state = %+v, want loading B", st)
	}

	close(p.gates["B"])
	if st := <-doneB; st.Status != StatusReady || st.Current.Name != "B" {
		t.Fatalf("B settled as %+v", st)
	}
}

func TestSubmitCurrentLocationUnsupported(t *testing.T) {
	p := &fakeProvider{}
	s := NewSession(p, fakeGeocoder{name: "London"})

	st := s.SubmitCurrentLocation(context.Background(), nil)
	if st.Status != StatusFailed || st.Error.Kind != ErrUnsupported || st.Error.Message != MsgUnsupported {
		t.Fatalf("unexpected state %+v", st)
	}
	if p.calls.Load() != 0 {
		t.Fatal("provider called without a location")
	}
}

func TestSubmitCurrentLocationGeolocationError(t *testing.T) {
	s := NewSession(&fakeProvider{}, fakeGeocoder{name: "London"})

	locator := LocatorFunc(func(context.Context) (Coordinates, error) {
		return Coordinates{}, errors.New("User denied Geolocation")
	})
	st := s.SubmitCurrentLocation(context.Background(), locator)
	if st.Status != StatusFailed || st.Error.Kind != ErrGeolocation {
		t.Fatalf("unexpected state %+v", st)
	}
	if want := "Geolocation error: User denied Geolocation"; st.Error.Message != want {
		t.Fatalf("message = %q, want %q", st.Error.Message, want)
	}
}

func TestSubmitCurrentLocationNoGeocodeResult(t *testing.T) {
	s := NewSession(&fakeProvider{}, fakeGeocoder{})

	st := s.SubmitCurrentLocation(context.Background(), FixedLocator(Coordinates{Latitude: 1, Longitude: 2}))
	if st.Status != StatusFailed || st.Error.Kind != ErrNotFound || st.Error.Message != MsgGeocodeNoResults {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSubmitCurrentLocationGeocodeFailure(t *testing.T) {
	s := NewSession(&fakeProvider{}, fakeGeocoder{err: NewError(ErrNotFound, MsgGeocodeFailed, nil)})

	st := s.SubmitCurrentLocation(context.Background(), FixedLocator(Coordinates{}))
	if st.Status != StatusFailed || st.Error.Message != MsgGeocodeFailed {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSubmitCurrentLocationSearchesResolvedName(t *testing.T) {
	p := &fakeProvider{}
	s := NewSession(p, fakeGeocoder{name: "Camden Town"})

	st := s.SubmitCurrentLocation(context.Background(), FixedLocator(Coordinates{Latitude: 51.5, Longitude: -0.14}))
	if st.Status != StatusReady || st.Query != "Camden Town" || st.Current.Name != "Camden Town" {
		t.Fatalf("unexpected state %+v", st)
	}
	if p.calls.Load() != 2 {
		t.Fatalf("provider calls = %d, want 2", p.calls.Load())
	}
}

func TestSessionStampsUpdatedAt(t *testing.T) {
	fixed := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	s := NewSession(&fakeProvider{}, nil, WithClock(func() time.Time { return fixed }))

	st := s.SubmitSearch(context.Background(), "Lima")
	if !st.UpdatedAt.Equal(fixed) {
		t.Fatalf("updatedAt = %v, want %v", st.UpdatedAt, fixed)
	}
}
