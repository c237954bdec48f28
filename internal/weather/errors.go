package weather

import (
	"errors"
)

// ErrorKind classifies a failed request.
type ErrorKind string

const (
	ErrValidation  ErrorKind = "ValidationError"
	ErrNotFound    ErrorKind = "NotFound"
	ErrNetwork     ErrorKind = "NetworkError"
	ErrMalformed   ErrorKind = "MalformedResponse"
	ErrGeolocation ErrorKind = "GeolocationError"
	ErrUnsupported ErrorKind = "UnsupportedError"
)

// User-facing messages.
const (
	MsgEmptyQuery        = "Please enter a location."
	MsgLocationNotFound  = "Location not found. Please try a different search term."
	MsgForecastFailed    = "Error fetching forecast data."
	MsgGeocodeFailed     = "Error determining your location."
	MsgGeocodeNoResults  = "Could not determine your location."
	MsgUnsupported       = "Geolocation is not supported by your browser."
	MsgGeolocationPrefix = "Geolocation error: "
	MsgNetwork           = "Unable to reach the weather service. Please check your connection."
	MsgMalformed         = "Received an unexpected response from the weather service."
)

// Error is a classified failure with a message safe to show to the user.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error wrapping cause (which may be nil).
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf reports the kind of err. Errors that were never classified count as
// network failures since they can only originate below the provider boundary.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrNetwork
}

// asStateError converts err into the form published on a failed State.
func asStateError(err error) *StateError {
	var e *Error
	if errors.As(err, &e) {
		return &StateError{Kind: e.Kind, Message: e.Message}
	}
	return &StateError{Kind: ErrNetwork, Message: MsgNetwork}
}
