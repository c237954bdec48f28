package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOpenWeatherBaseURL is the public OpenWeatherMap API host.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

const (
	currentPath  = "/data/2.5/weather"
	forecastPath = "/data/2.5/forecast"
	reversePath  = "/geo/1.0/reverse"
)

var _ weather.Client = (*OpenWeatherClient)(nil)

// OpenWeatherClient implements weather.Client against OpenWeatherMap.
// Every call is a single GET; non-2xx responses are reported as NotFound
// whatever the status.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	http    *resty.Client
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewOpenWeatherClient(client *http.Client, baseURL, apiKey string, logger *slog.Logger) *OpenWeatherClient {
	if client == nil {
		client = &http.Client{}
	}
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rc := resty.NewWithClient(client).
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetLogger(restyLogger{l: logger.With("component", "resty")})

	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  apiKey,
		http:    rc,
		circuit: newCircuitBreaker("openweather", logger),
		logger:  logger.With("provider", "openweathermap"),
	}
}

func (p *OpenWeatherClient) Name() string {
	return p.name
}

type conditionPayload struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type currentPayload struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Weather []conditionPayload `json:"weather"`
}

type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []conditionPayload `json:"weather"`
	} `json:"list"`
}

type geoPayload []struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// FetchCurrent returns current conditions for a free-text location query.
func (p *OpenWeatherClient) FetchCurrent(ctx context.Context, query string) (weather.CurrentConditions, error) {
	resp, err := p.get(ctx, currentPath, map[string]string{
		"q":     query,
		"appid": p.apiKey,
		"units": "metric",
	})
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	if !resp.IsSuccess() {
		return weather.CurrentConditions{}, notFound(weather.MsgLocationNotFound, resp)
	}

	var payload currentPayload
	if err := decodeBody(resp, currentPath, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Main == nil {
		return weather.CurrentConditions{}, malformed("current conditions for %q: missing main block", query)
	}
	if len(payload.Weather) == 0 {
		return weather.CurrentConditions{}, malformed("current conditions for %q: empty weather list", query)
	}

	return weather.CurrentConditions{
		Name:          payload.Name,
		Country:       payload.Sys.Country,
		Temperature:   payload.Main.Temp,
		FeelsLike:     payload.Main.FeelsLike,
		TempMin:       payload.Main.TempMin,
		TempMax:       payload.Main.TempMax,
		Humidity:      payload.Main.Humidity,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		Sunrise:       time.Unix(payload.Sys.Sunrise, 0).UTC(),
		Sunset:        time.Unix(payload.Sys.Sunset, 0).UTC(),
		ConditionCode: payload.Weather[0].Icon,
		Description:   payload.Weather[0].Description,
	}, nil
}

// FetchForecast returns the 5-day / 3-hour sample list for a location query.
func (p *OpenWeatherClient) FetchForecast(ctx context.Context, query string) ([]weather.WeatherSample, error) {
	resp, err := p.get(ctx, forecastPath, map[string]string{
		"q":     query,
		"appid": p.apiKey,
		"units": "metric",
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, notFound(weather.MsgForecastFailed, resp)
	}

	var payload forecastPayload
	if err := decodeBody(resp, forecastPath, &payload); err != nil {
		return nil, err
	}

	samples := make([]weather.WeatherSample, 0, len(payload.List))
	for i, item := range payload.List {
		if item.Main == nil || len(item.Weather) == 0 {
			return nil, malformed("forecast for %q: sample %d is incomplete", query, i)
		}
		samples = append(samples, weather.WeatherSample{
			Time:          time.Unix(item.Dt, 0).UTC(),
			Temperature:   item.Main.Temp,
			Humidity:      item.Main.Humidity,
			WindSpeed:     item.Wind.Speed,
			ConditionCode: item.Weather[0].Icon,
			Description:   item.Weather[0].Description,
		})
	}
	return samples, nil
}

// ReverseGeocode returns the name of the place closest to lat/lon.
func (p *OpenWeatherClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	resp, err := p.get(ctx, reversePath, map[string]string{
		"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
		"limit": "1",
		"appid": p.apiKey,
	})
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", notFound(weather.MsgGeocodeFailed, resp)
	}

	var payload geoPayload
	if err := decodeBody(resp, reversePath, &payload); err != nil {
		return "", err
	}
	if len(payload) == 0 || payload[0].Name == "" {
		return "", weather.NewError(weather.ErrNotFound, weather.MsgGeocodeNoResults, nil)
	}
	return payload[0].Name, nil
}

func (p *OpenWeatherClient) get(ctx context.Context, path string, params map[string]string) (*resty.Response, error) {
	start := time.Now()
	resp, err := doGet(ctx, p.http, p.circuit, path, params)
	if err != nil {
		p.logger.Warn("request failed", "path", path, "error", err)
		return nil, err
	}
	p.logger.Debug("request completed", "path", path, "status", resp.StatusCode(), "latency", time.Since(start))
	return resp, nil
}

func notFound(msg string, resp *resty.Response) error {
	return weather.NewError(weather.ErrNotFound, msg, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode()))
}
