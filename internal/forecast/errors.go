package forecast

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed prediction request.
type ErrorKind string

const (
	// KindUpstreamHTTP: the service responded, but with an error status or a
	// success:false payload.
	KindUpstreamHTTP ErrorKind = "upstream_http"
	// KindNetwork: the request went out and no response came back.
	KindNetwork ErrorKind = "network"
	// KindRequestSetup: the request failed before it was sent.
	KindRequestSetup ErrorKind = "request_setup"
)

// RequestError is a classified prediction-request failure, structured enough
// for the caller to pick a user-facing message. Status is set only for
// KindUpstreamHTTP.
type RequestError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Pre-flight failures: these block the request before anything goes on the
// wire.
var (
	ErrUnauthenticated = errors.New("no active user identity")
	ErrDaysOutOfRange  = errors.New("forecast days out of range")
	ErrBadStartDate    = errors.New("start_date must be in YYYY-MM-DD format")
	ErrQuotaExceeded   = errors.New("hourly forecast request quota exceeded")
)
