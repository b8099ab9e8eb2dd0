package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tripledger/processing"
)

// responder carries the JSON helpers shared by the handlers of this package
type responder struct {
	logger *log.Logger
}

// respondJSON sends JSON response
func (h responder) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]interface{}{
			"error":   "failed to encode response",
			"status":  statusCode,
			"message": http.StatusText(statusCode),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// respondError sends error response
func (h responder) respondError(w http.ResponseWriter, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}

	h.respondJSON(w, errorResp, statusCode)
}

// allow answers 405 unless r uses method
func (h responder) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, processing.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, processing.ErrInvalidInput), errors.Is(err, processing.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, processing.ErrSimulationDisabled):
		return http.StatusForbidden
	case errors.Is(err, processing.ErrAnchoringDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
