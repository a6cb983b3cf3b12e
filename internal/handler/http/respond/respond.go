// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling that keeps internal failure detail out of
// response bodies.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tatami-backend/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Log the error but cannot send error response as headers already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// SafeError writes a JSON error body, redacting messages that are not safe to
// show users. Domain errors (validation failures, missing resources, limit
// rejections) carry user-correctable information and pass through; anything
// else — and every 5xx — becomes a generic message with the original error
// logged server-side only.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	if code < 500 && isUserFacing(err) {
		JSON(w, code, map[string]string{"error": err.Error()})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", err.Error()))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

// isUserFacing reports whether the error message may appear in a response.
func isUserFacing(err error) bool {
	var missingFields *entity.MissingFieldsError
	var validation *entity.ValidationError
	switch {
	case errors.As(err, &missingFields),
		errors.As(err, &validation),
		errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrValidationFailed),
		errors.Is(err, entity.ErrNotFound),
		errors.Is(err, entity.ErrRateLimitExceeded),
		errors.Is(err, entity.ErrAuthRejected):
		return true
	}
	return false
}
