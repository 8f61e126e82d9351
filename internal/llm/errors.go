package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// statusOverloaded is Anthropic's "overloaded" status.
const statusOverloaded = 529

// ErrEmptyResponse is returned when a vendor answers without any text, for
// example when a Gemini candidate is blocked by safety filters.
var ErrEmptyResponse = errors.New("llm: empty response")

// APIError is a non-2xx response from an LLM vendor.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

var overloadMarkers = []string{"overloaded", "429", "503", "rate limit", "resource exhausted", "resource_exhausted", "resourceexhausted"}

// IsOverloaded reports whether err signals a transient capacity problem worth retrying.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && isOverloadStatus(apiErr.StatusCode) {
		return true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && isOverloadStatus(gErr.Code) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range overloadMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isOverloadStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable || code == statusOverloaded
}
