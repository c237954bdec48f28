package weather

import (
	"time"
)

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherSample is one 3-hour forecast point as reported by the provider.
type WeatherSample struct {
	Time          time.Time `json:"time"` // always UTC
	Temperature   float64   `json:"temperatureC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeedMs"`
	ConditionCode string    `json:"conditionCode"` // provider icon code, e.g. "10d"
	Description   string    `json:"description"`
}

// DailySummary is one calendar day derived from the samples that fall on it.
type DailySummary struct {
	Date          time.Time `json:"date"` // UTC midnight of the day key
	DayName       string    `json:"dayName"`
	ConditionCode string    `json:"conditionCode"`
	Description   string    `json:"description"`
	Icon          Icon      `json:"icon"`
	TempMax       float64   `json:"tempMax"`
	TempMin       float64   `json:"tempMin"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"windSpeed"`
}

// CurrentConditions is a one-shot snapshot for a location.
type CurrentConditions struct {
	Name          string    `json:"name"`
	Country       string    `json:"country"`
	Temperature   float64   `json:"temperatureC"`
	FeelsLike     float64   `json:"feelsLikeC"`
	TempMin       float64   `json:"tempMinC"`
	TempMax       float64   `json:"tempMaxC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeedMs"`
	WindDirection float64   `json:"windDirectionDeg"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
	ConditionCode string    `json:"conditionCode"`
	Description   string    `json:"description"`
}

// Status is the phase a Session is in.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// StateError is the user-facing failure carried by a failed State.
type StateError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// State is an immutable snapshot of a Session. Exactly one of Loading, Ready
// or Failed applies once a request has been made; Current and Forecast are set
// only when Ready and Error only when Failed.
type State struct {
	Status     Status             `json:"status"`
	Query      string             `json:"query,omitempty"`
	Current    *CurrentConditions `json:"current,omitempty"`
	Forecast   []DailySummary     `json:"forecast,omitempty"`
	Error      *StateError        `json:"error,omitempty"`
	Generation uint64             `json:"generation"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}
