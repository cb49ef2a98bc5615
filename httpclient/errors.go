package httpclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/asrkit/errors"
)

const maxBodyDetail = 512

// NewConnectionError reports a backend that could not be reached.
func NewConnectionError(service string, err error) *errors.AppError {
	return errors.ServiceUnavailable(service).WithCause(err)
}

// NewTimeoutError reports a request that ran out of time.
func NewTimeoutError(service string, err error) *errors.AppError {
	return errors.Timeout(service + " request").WithCause(err)
}

// ClassifyStatusCode converts a non-2xx response into an AppError.
// 404 maps to NOT_FOUND. 429 and 5xx are retryable external-service errors.
// Other 4xx responses are external-service errors that are not retried.
// Returns nil for 2xx.
func ClassifyStatusCode(service string, statusCode int, body []byte) *errors.AppError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	cause := fmt.Errorf("HTTP %d: %s", statusCode, truncate(body))
	if statusCode == http.StatusNotFound {
		return errors.NotFound(service+" endpoint", "").WithCause(cause).WithDetail("status", statusCode)
	}
	appErr := errors.ExternalServiceError(service, cause).WithDetail("status", statusCode)
	appErr.Retryable = statusCode == http.StatusTooManyRequests || statusCode >= 500
	return appErr
}

// IsRetryable reports whether err is an AppError flagged Retryable.
func IsRetryable(err error) bool {
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.Retryable
}

// StatusCode returns the HTTP status recorded on err, or 0.
func StatusCode(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return 0
	}
	if s, ok := appErr.Details["status"].(int); ok {
		return s
	}
	return 0
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodyDetail {
		return s[:maxBodyDetail] + "..."
	}
	return s
}
