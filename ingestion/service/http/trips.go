package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	core "tripledger/ingestion/service/core"
	"tripledger/internal/models"
)

const maxTripBody = 10 * 1024 * 1024 // 10MB

// TripHandler encapsulates the logic for handling HTTP trip submissions
type TripHandler struct {
	responder
	svc *core.Service
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(s *core.Service, l *log.Logger) *TripHandler {
	return &TripHandler{responder: responder{logger: l}, svc: s}
}

// Routes registers the feeder endpoints on a new mux
func (h *TripHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/trips", h.SubmitTrip)
	mux.HandleFunc("/health", h.HealthCheck)
	return mux
}

// SubmitTrip handles POST /v1/trips requests
func (h *TripHandler) SubmitTrip(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	// Content-Type validation
	if r.Header.Get("Content-Type") != "application/json" {
		h.respondError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	// Request size limit
	if r.ContentLength > maxTripBody {
		h.respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	var reqPayload struct {
		SupplierID   string           `json:"supplier_id"`
		SupplierName string           `json:"supplier_name"`
		VehicleID    string           `json:"vehicle_id"`
		VehicleType  string           `json:"vehicle_type"`
		TripID       string           `json:"trip_id"`
		Pings        []models.RawPing `json:"gps_pings"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTripBody)).Decode(&reqPayload); err != nil {
		h.logger.Printf("HTTP Handler: Failed to parse JSON request: %v", err)
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}

	// Supplier may also be asserted by the gateway
	supplierID := r.Header.Get("X-Supplier-ID")
	if supplierID == "" {
		supplierID = reqPayload.SupplierID
	}

	result, err := h.svc.SubmitTrip(r.Context(), &core.TripInput{
		SupplierID:   supplierID,
		SupplierName: reqPayload.SupplierName,
		VehicleID:    reqPayload.VehicleID,
		VehicleType:  reqPayload.VehicleType,
		TripID:       reqPayload.TripID,
		Pings:        reqPayload.Pings,
	})
	if err != nil {
		h.logger.Printf("HTTP Handler: Service layer processing failed: %v", err)
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, core.ErrInvalidTrip):
			statusCode = http.StatusBadRequest
		case errors.Is(err, core.ErrBackpressure):
			statusCode = http.StatusServiceUnavailable
		}
		h.respondError(w, err.Error(), statusCode)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"request_id":                result.RequestID,
		"trip_id":                   result.TripID,
		"ping_count":                result.PingCount,
		"server_received_timestamp": result.ReceivedAt.Format(time.RFC3339Nano),
		"status":                    "ACCEPTED",
	}, http.StatusAccepted)
}

// HealthCheck handles GET /health requests
func (h *TripHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "trip-feeder",
	}

	h.respondJSON(w, resp, http.StatusOK)
}
