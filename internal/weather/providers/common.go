package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
	errNoClient    = errors.New("http client not configured")
)

// newCircuitBreaker guards the transport. Only transport failures count
// against it; an HTTP error status is a completed call and a cancelled
// request says nothing about the upstream.
func newCircuitBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// doGet performs exactly one GET. Transport failures and an open breaker are
// returned as NetworkError; the response is returned whatever its status.
func doGet(
	ctx context.Context,
	client *resty.Client,
	cb *gobreaker.CircuitBreaker,
	path string,
	params map[string]string,
) (*resty.Response, error) {
	if client == nil {
		return nil, weather.NewError(weather.ErrNetwork, weather.MsgNetwork, errNoClient)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		return client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			SetQueryParams(params).
			Get(path)
	})
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactQuery(uerr.URL)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, weather.NewError(weather.ErrNetwork, weather.MsgNetwork, err)
	}

	resp, ok := result.(*resty.Response)
	if !ok {
		return nil, weather.NewError(weather.ErrNetwork, weather.MsgNetwork,
			fmt.Errorf("unexpected result type %T from circuit breaker", result))
	}
	return resp, nil
}

// decodeBody unmarshals a successful response body into v.
func decodeBody(resp *resty.Response, path string, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return weather.NewError(weather.ErrMalformed, weather.MsgMalformed, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func malformed(format string, args ...any) error {
	return weather.NewError(weather.ErrMalformed, weather.MsgMalformed, fmt.Errorf(format, args...))
}

// redactQuery drops the query string, which carries the API key.
func redactQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

var apiKeyParam = regexp.MustCompile(`((?:appid|key)=)[^&\s"]+`)

// restyLogger routes resty's own diagnostics into slog.
type restyLogger struct{ l *slog.Logger }

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(apiKeyParam.ReplaceAllString(fmt.Sprintf(format, v...), "${1}REDACTED"))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(apiKeyParam.ReplaceAllString(fmt.Sprintf(format, v...), "${1}REDACTED"))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(apiKeyParam.ReplaceAllString(fmt.Sprintf(format, v...), "${1}REDACTED"))
}
