package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks a transport that failed to connect or complete
	// (DNS, offline, rejected preflight).
	ErrNetwork = errors.New("network request failed")

	// ErrStream marks a reader failure after the response started streaming.
	ErrStream = errors.New("stream read failed")
)

// HTTPError is a non-2xx response from the proxy. Message is taken from the
// response's JSON error body when one could be parsed.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("proxy returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("proxy returned status %d", e.Status)
}

// errorBody is the error envelope the proxy uses for non-2xx responses.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
