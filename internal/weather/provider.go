package weather

import (
	"context"
)

// Provider abstracts the weather data source (OpenWeatherMap).
// Implementations return *Error values classified as NotFound, NetworkError
// or MalformedResponse.
type Provider interface {
	FetchCurrent(ctx context.Context, query string) (CurrentConditions, error)
	FetchForecast(ctx context.Context, query string) ([]WeatherSample, error)
}

// Geocoder turns device coordinates into a location query for a Provider.
// Zero results are reported as a NotFound *Error.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Client is a provider that can also reverse geocode.
type Client interface {
	Provider
	Geocoder
}

// Locator is the device location provider: a one-shot position request.
// The error message is shown to the user.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (Coordinates, error) { return f(ctx) }

// FixedLocator reports a known position, e.g. one sent by a browser.
func FixedLocator(c Coordinates) Locator {
	return LocatorFunc(func(context.Context) (Coordinates, error) { return c, nil })
}
