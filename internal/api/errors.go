package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNoAccessToken is returned when the credentials exchange succeeds
	// but the response carries no accessToken field.
	ErrNoAccessToken = errors.New("no access token in response")
)

// ErrorClass categorizes request failures for retry decisions and logging.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is an HTTP error response from the T3 API.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("t3 %s error (status %d) on %s: %s",
		e.Class, e.StatusCode, e.Endpoint, e.Body)
}

// ClassifyStatus maps an HTTP status code to an error class.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}

// Retryable reports whether an error is worth retrying. Network errors,
// 429 and 5xx responses retry; other 4xx responses fail immediately since
// repeating e.g. a bad-auth request cannot succeed.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Class {
		case ErrorClassServer, ErrorClassRateLimit:
			return true
		default:
			return false
		}
	}
	// Anything that never reached HTTP status handling is a transport
	// failure.
	return err != nil
}

// classOf returns the error class for logging and metrics.
func classOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ErrorClassNetwork
}
