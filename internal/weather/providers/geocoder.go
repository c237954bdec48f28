package providers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// googleZeroResults is the error text the geocoder library returns for a
// ZERO_RESULTS status.
const googleZeroResults = "No results found."

// defaultGeocodeTimeout bounds a Google lookup; the library's HTTP client has
// no timeout of its own.
const defaultGeocodeTimeout = 10 * time.Second

// GoogleGeocoder resolves coordinates through the Google Geocoding API.
// It is used in place of the OpenWeather reverse endpoint when a Google key
// is configured.
type GoogleGeocoder struct {
	timeout time.Duration
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder sets the library's process-wide key once; lookups never
// touch it afterwards.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey

	return &GoogleGeocoder{
		timeout: defaultGeocodeTimeout,
		reverse: geocoder.GeocodingReverse,
	}
}

// ReverseGeocode returns the place name for lat/lon. The library call has no
// context support, so ctx and the geocoder timeout only bound how long the
// caller waits.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type result struct {
		addrs []geocoder.Address
		err   error
	}

	done := make(chan result, 1)
	go func() {
		addrs, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		done <- result{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", weather.NewError(weather.ErrNetwork, weather.MsgNetwork, ctx.Err())
	case r := <-done:
		if r.err != nil {
			var uerr *url.Error
			if errors.As(r.err, &uerr) {
				uerr.URL = redactQuery(uerr.URL)
				return "", weather.NewError(weather.ErrNetwork, weather.MsgNetwork, r.err)
			}
			if r.err.Error() == googleZeroResults {
				return "", weather.NewError(weather.ErrNotFound, weather.MsgGeocodeNoResults, r.err)
			}
			return "", weather.NewError(weather.ErrNotFound, weather.MsgGeocodeFailed, r.err)
		}
		for _, a := range r.addrs {
			if name := placeName(a); name != "" {
				return name, nil
			}
		}
		return "", weather.NewError(weather.ErrNotFound, weather.MsgGeocodeNoResults, nil)
	}
}

// placeName prefers the city, then the wider administrative areas.
func placeName(a geocoder.Address) string {
	for _, s := range []string{a.City, a.County, a.State, a.Country} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
