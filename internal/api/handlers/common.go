// Package handlers provides the HTTP request handlers of the scanviz API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/scanviz/internal/api/middleware"
	"github.com/anstrom/scanviz/internal/errors"
)

// maxRequestSize bounds JSON request bodies.
const maxRequestSize = 64 * 1024

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse represents a standard API error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response",
			"request_id", middleware.GetRequestID(r),
			"error", err)
	}
}

// writeError writes an error response with an explicit status.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, err error) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r),
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		response.Code = string(code)
	}
	writeJSON(w, r, statusCode, response)
}

// handleError maps a coded error onto its HTTP status and writes it.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			"request_id", middleware.GetRequestID(r),
			"operation", operation,
			"error", err)
	} else {
		logger.Debug("Request rejected",
			"request_id", middleware.GetRequestID(r),
			"operation", operation,
			"error", err)
	}
	writeError(w, r, status, err)
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound, errors.CodeUnknownScanType:
		return http.StatusNotFound
	case errors.CodeValidation, errors.CodeInvalidPortState, errors.CodeInvalidSpeed, errors.CodeInvalidScenario:
		return http.StatusBadRequest
	case errors.CodePlaybackActive, errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeCanceled:
		return http.StatusRequestTimeout
	case errors.CodeDatabaseConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseJSON decodes a size-limited JSON body into dest and validates it.
func parseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.NewConfigFieldError(errors.CodeValidation, "Request body is empty", "body", nil)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewConfigFieldError(errors.CodeValidation,
				fmt.Sprintf("Request body too large (max %d bytes)", maxRequestSize), "body", nil)
		}
		return errors.WrapConfigError(errors.CodeValidation, fmt.Sprintf("Invalid JSON: %v", err), err)
	}

	if err := validate.Struct(dest); err != nil {
		return errors.WrapConfigError(errors.CodeValidation, fmt.Sprintf("Invalid request: %v", err), err)
	}
	return nil
}

// getQueryParamInt reads an integer query parameter.
func getQueryParamInt(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.NewConfigFieldError(errors.CodeValidation, "Invalid integer parameter", key, value)
	}
	return n, nil
}
