package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrSessionExpired marks a 401 that survived the refresh flow: the
	// session was torn down and the caller must re-authenticate.
	ErrSessionExpired = errors.New("client: session expired")

	// ErrNotAuthenticated indicates an operation that requires a session
	// was attempted while anonymous.
	ErrNotAuthenticated = errors.New("client: not authenticated")
)

// APIError is a non-2xx backend response. Beyond the 401 status, which
// drives the refresh flow, the client does not interpret it.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("panel api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("panel api: %d %s", e.Status, http.StatusText(e.Status))
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type expiredError struct{ cause error }

func (e *expiredError) Error() string {
	return ErrSessionExpired.Error() + ": " + e.cause.Error()
}

func (e *expiredError) Unwrap() []error { return []error{ErrSessionExpired, e.cause} }

// apiErrorFromResponse drains the body and builds an APIError, picking up the
// conventional message/errorCode fields when the body is JSON.
func apiErrorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var payload struct {
		Message   string `json:"message"`
		Error     string `json:"error"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	apiErr.Code = payload.ErrorCode
	switch {
	case payload.Message != "":
		apiErr.Message = payload.Message
	case payload.Error != "":
		apiErr.Message = payload.Error
	}
	return apiErr
}
