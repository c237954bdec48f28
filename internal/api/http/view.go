package httpapi

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const idlePrompt = "Enter a location to get the current weather and forecast"

// dashboardView is everything the page needs to render one dashboard. It is
// derived only from the session state and the theme flag.
type dashboardView struct {
	ID         string              `json:"id"`
	Theme      store.Theme         `json:"theme"`
	Status     weather.Status      `json:"status"`
	Query      string              `json:"query,omitempty"`
	Prompt     string              `json:"prompt,omitempty"`
	Error      *weather.StateError `json:"error,omitempty"`
	Current    *currentView        `json:"current,omitempty"`
	Forecast   []dayView           `json:"forecast,omitempty"`
	Generation uint64              `json:"generation"`
}

type currentView struct {
	Location      string       `json:"location"`
	Date          string       `json:"date"`
	Temperature   int          `json:"temperature"`
	FeelsLike     int          `json:"feelsLike"`
	High          int          `json:"high"`
	Low           int          `json:"low"`
	Humidity      int          `json:"humidity"`
	WindKmh       int          `json:"windKmh"`
	WindDirection int          `json:"windDirection"`
	Sunrise       string       `json:"sunrise"`
	Sunset        string       `json:"sunset"`
	Description   string       `json:"description"`
	Icon          weather.Icon `json:"icon"`
	Tone          string       `json:"tone"`
}

type dayView struct {
	Date        string       `json:"date"`
	DayName     string       `json:"dayName"`
	Icon        weather.Icon `json:"icon"`
	Description string       `json:"description"`
	High        int          `json:"high"`
	Low         int          `json:"low"`
	Humidity    int          `json:"humidity"`
	WindKmh     int          `json:"windKmh"`
}

func newDashboardView(e store.Entry, loc *time.Location) dashboardView {
	st := e.Session.State()

	v := dashboardView{
		ID:         e.ID,
		Theme:      e.Theme,
		Status:     st.Status,
		Query:      st.Query,
		Error:      st.Error,
		Generation: st.Generation,
	}

	switch st.Status {
	case weather.StatusIdle:
		v.Prompt = idlePrompt
	case weather.StatusReady:
		if st.Current != nil {
			c := newCurrentView(*st.Current, st.UpdatedAt, loc)
			v.Current = &c
		}
		v.Forecast = make([]dayView, 0, len(st.Forecast))
		for _, d := range st.Forecast {
			v.Forecast = append(v.Forecast, newDayView(d))
		}
	}
	return v
}

func newCurrentView(c weather.CurrentConditions, updated time.Time, loc *time.Location) currentView {
	name := c.Name
	if c.Country != "" {
		name = fmt.Sprintf("%s, %s", c.Name, c.Country)
	}
	return currentView{
		Location:      name,
		Date:          updated.In(loc).Format("Monday, January 2, 2006"),
		Temperature:   round(c.Temperature),
		FeelsLike:     round(c.FeelsLike),
		High:          round(c.TempMax),
		Low:           round(c.TempMin),
		Humidity:      round(c.Humidity),
		WindKmh:       kmh(c.WindSpeed),
		WindDirection: round(c.WindDirection),
		Sunrise:       c.Sunrise.In(loc).Format("15:04"),
		Sunset:        c.Sunset.In(loc).Format("15:04"),
		Description:   c.Description,
		Icon:          weather.ResolveIcon(c.ConditionCode),
		Tone:          tempTone(c.Temperature),
	}
}

func newDayView(d weather.DailySummary) dayView {
	return dayView{
		Date:        d.Date.Format("Mon, Jan 2"),
		DayName:     d.DayName,
		Icon:        d.Icon,
		Description: d.Description,
		High:        round(d.TempMax),
		Low:         round(d.TempMin),
		Humidity:    round(d.Humidity),
		WindKmh:     kmh(d.WindSpeed),
	}
}

// tempTone buckets a Celsius temperature for colouring.
func tempTone(t float64) string {
	switch {
	case t <= 0:
		return "freezing"
	case t <= 10:
		return "cold"
	case t <= 20:
		return "mild"
	case t <= 30:
		return "warm"
	default:
		return "hot"
	}
}

func round(f float64) int { return int(math.Round(f)) }

// kmh converts m/s to whole km/h.
func kmh(ms float64) int { return round(ms * 3.6) }
