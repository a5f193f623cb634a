package httpx

import (
	"net/http"

	"github.com/tinytrails/tinytrails/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
// Validation failures map to 422 so they stay distinct from malformed
// requests, which handlers report as 400 before reaching the service.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Invalid:
		return http.StatusUnprocessableEntity
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	case errx.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Invalid:
		return "validation_failed"
	case errx.Unavailable:
		return "unavailable"
	case errx.Internal:
		return "internal_error"
	default:
		return "internal_error"
	}
}
