package feed

import (
	"errors"
	"fmt"
)

// ErrEmptyBody is reported when the backend answers with no payload at all.
// A confirmed-empty feed is the JSON array [], which is not an error.
var ErrEmptyBody = errors.New("empty response body")

// NetworkKind classifies a NetworkError.
type NetworkKind int

const (
	KindTransport NetworkKind = iota
	KindTimeout
	KindStatus
)

func (k NetworkKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	default:
		return "transport"
	}
}

// NetworkError reports a transport failure, a timeout or a non-2xx response.
type NetworkError struct {
	Kind       NetworkKind
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request exceeded its deadline.
func (e *NetworkError) Timeout() bool { return e.Kind == KindTimeout }

// DecodeError reports a malformed payload or a record missing a required field.
// Index is -1 when the payload as a whole could not be decoded.
type DecodeError struct {
	Index int
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("decode video feed: %v", e.Err)
	case e.Field != "":
		return fmt.Sprintf("decode video feed: record %d: missing %s", e.Index, e.Field)
	default:
		return fmt.Sprintf("decode video feed: record %d: %v", e.Index, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
