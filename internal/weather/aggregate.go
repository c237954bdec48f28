package weather

import "time"

// MaxForecastDays bounds the number of summaries Aggregate returns.
const MaxForecastDays = 5

// Aggregate groups 3-hour samples into daily summaries using UTC for both the
// day boundary and the representative-hour test.
func Aggregate(samples []WeatherSample) []DailySummary {
	return AggregateIn(samples, time.UTC)
}

// AggregateIn groups samples by UTC calendar day and summarises each day.
// Days keep the order in which their first sample appears and only the first
// MaxForecastDays days are returned. loc is the zone in which the midday
// (12:00-15:59) representative sample is looked for.
func AggregateIn(samples []WeatherSample, loc *time.Location) []DailySummary {
	if loc == nil {
		loc = time.UTC
	}

	type dayKey string

	var (
		order  []dayKey
		groups = make(map[dayKey][]WeatherSample)
	)

	for _, s := range samples {
		k := dayKey(s.Time.UTC().Format(time.DateOnly))
		if _, exists := groups[k]; !exists {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s)
	}

	if len(order) > MaxForecastDays {
		order = order[:MaxForecastDays]
	}

	out := make([]DailySummary, 0, len(order))
	for _, k := range order {
		out = append(out, summarizeDay(string(k), groups[k], loc))
	}
	return out
}

// summarizeDay folds a non-empty group of samples that share a day key.
func summarizeDay(key string, items []WeatherSample, loc *time.Location) DailySummary {
	var (
		sumHumidity float64
		sumWind     float64
	)

	tempMax := items[0].Temperature
	tempMin := items[0].Temperature

	for _, s := range items {
		if s.Temperature > tempMax {
			tempMax = s.Temperature
		}
		if s.Temperature < tempMin {
			tempMin = s.Temperature
		}
		sumHumidity += s.Humidity
		sumWind += s.WindSpeed
	}

	n := float64(len(items))
	rep := representative(items, loc)

	date, err := time.ParseInLocation(time.DateOnly, key, time.UTC)
	if err != nil {
		date = items[0].Time.UTC().Truncate(24 * time.Hour)
	}

	return DailySummary{
		Date:          date,
		DayName:       date.Format("Mon"),
		ConditionCode: rep.ConditionCode,
		Description:   rep.Description,
		Icon:          ResolveIcon(rep.ConditionCode),
		TempMax:       tempMax,
		TempMin:       tempMin,
		Humidity:      sumHumidity / n,
		WindSpeed:     sumWind / n,
	}
}

// representative picks the first sample between 12:00 and 15:59 in loc,
// falling back to the middle of the group.
func representative(items []WeatherSample, loc *time.Location) WeatherSample {
	for _, s := range items {
		if h := s.Time.In(loc).Hour(); h >= 12 && h <= 15 {
			return s
		}
	}
	return items[len(items)/2]
}
