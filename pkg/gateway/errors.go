package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthenticationRequired is returned before any request is made when no token is stored,
	// and matched by a 401 RequestError.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrNotFound is matched by a 404 RequestError.
	ErrNotFound = errors.New("not found")
)

// RequestError is a non-2xx answer, or a 2xx answer with success:false.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrAuthenticationRequired:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// NetworkError wraps a transport failure; the request may or may not have reached the API.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

func genericMessage(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}
