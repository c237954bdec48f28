package providers

import (
	"errors"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func asError(err error, target **weather.Error) bool {
	return errors.As(err, target)
}

func containsKey(s string) bool {
	return strings.Contains(s, testKey)
}
