package retry

import (
	"errors"
	"net/http"
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	HTTPStatusCode() int
}

// HTTPErrorClassifier treats throttling, server errors and network failures
// as transient.
type HTTPErrorClassifier struct{}

// NewHTTPErrorClassifier creates an HTTPErrorClassifier.
func NewHTTPErrorClassifier() *HTTPErrorClassifier {
	return &HTTPErrorClassifier{}
}

// IsTransient reports whether err is worth retrying.
func (c *HTTPErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsTransientStatus(sc.HTTPStatusCode())
	}
	return isNetworkError(err)
}

// IsTransientStatus reports whether an HTTP status may succeed on retry.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}
	return code >= 500 && code != http.StatusNotImplemented
}
