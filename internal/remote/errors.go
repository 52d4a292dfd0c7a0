package remote

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dotcommander/memhook/internal/models"
)

var _ models.RecoverableError = (*APIError)(nil)

// retryableStatus is the allow-list of transient HTTP codes.
//
//nolint:gochecknoglobals // read-only lookup table
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooEarly:            true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Retryable reports whether status is worth another attempt.
func Retryable(status int) bool { return retryableStatus[status] }

// APIError is a non-2xx reply from the memory service.
type APIError struct {
	Endpoint string
	Status   int
	// Message is the service-provided error text, when it sent one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("memory service %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("memory service %s: HTTP %d", e.Endpoint, e.Status)
}

func (e *APIError) ErrorCode() string {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return "REMOTE_UNAUTHORIZED"
	case Retryable(e.Status):
		return "REMOTE_UNAVAILABLE"
	default:
		return "REMOTE_REJECTED"
	}
}

func (e *APIError) Context() map[string]string {
	return map[string]string{
		"endpoint": e.Endpoint,
		"status":   strconv.Itoa(e.Status),
	}
}

func (e *APIError) SuggestedAction() string {
	switch e.ErrorCode() {
	case "REMOTE_UNAUTHORIZED":
		return "check MEMHOOK_API_KEY, then run: memhook doctor"
	case "REMOTE_UNAVAILABLE":
		return "the service is busy or down; retry later"
	default:
		return "run: memhook doctor"
	}
}
