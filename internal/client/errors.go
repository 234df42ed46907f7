package client

import (
	"errors"
	"fmt"
)

// NetworkErrorMessage is surfaced when no structured error reached the client.
const NetworkErrorMessage = "Network error occurred. Please check your connection."

const cancelledMessage = "Request was cancelled"

type Kind int

const (
	KindNetwork   Kind = iota // transport failure or an unstructured error response
	KindAPI                   // the server answered with {"error": "..."}
	KindNotFound              // as KindAPI, with status 404
	KindCancelled             // the caller's context was cancelled
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindNotFound:
		return "not_found"
	case KindCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// RequestError is the single error type returned by every client operation.
// Message is safe to show to the user.
type RequestError struct {
	Kind       Kind
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, or KindNetwork for errors that did not come
// from this package.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindNetwork
}

// IsCancelled reports whether err is a cancellation of the caller's request.
func IsCancelled(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == KindCancelled
}
