package http

import (
	"log"
	"net/http"
	"strings"
	"time"

	"tripledger/processing"
)

// AuditHandler serves the audit engine's REST surface over a Builder
type AuditHandler struct {
	responder
	builder    *processing.Builder
	healthPath string
	afterRun   func(*processing.ProcessResult)
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(b *processing.Builder, healthPath string, l *log.Logger) *AuditHandler {
	if healthPath == "" {
		healthPath = "/health"
	}
	return &AuditHandler{responder: responder{logger: l}, builder: b, healthPath: healthPath}
}

// SetAfterRun registers fn to be called after every successful run
func (h *AuditHandler) SetAfterRun(fn func(*processing.ProcessResult)) { h.afterRun = fn }

// Routes registers every engine endpoint on a new mux
func (h *AuditHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/automation/process-all-data", h.ProcessAll)
	mux.HandleFunc("/audit/list-trips", h.ListTrips)
	mux.HandleFunc("/audit/trip-report/{trip_id}", h.TripReport)
	mux.HandleFunc("/audit/anchors/{trip_id}", h.AnchorStatus)
	mux.HandleFunc("/authority/integrity-events", h.IntegrityEvents)
	mux.HandleFunc("/simulation/tamper-data", h.TamperData)
	mux.HandleFunc("/simulation/reset-data", h.ResetData)
	mux.HandleFunc("/intelligence/supplier-leaderboard", h.SupplierLeaderboard)
	mux.HandleFunc("/intelligence/dashboard-stats", h.DashboardStats)
	mux.HandleFunc(h.healthPath, h.HealthCheck)
	return mux
}

// ProcessAll handles POST /automation/process-all-data
func (h *AuditHandler) ProcessAll(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	start := time.Now()
	res, err := h.builder.Run(r.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: Processing run failed: %v", err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	if h.afterRun != nil {
		h.afterRun(res)
	}

	h.respondJSON(w, map[string]interface{}{
		"status":          "success",
		"message":         "Batch processing complete. All records hashed and sealed.",
		"records_sealed":  len(res.AuditRecords),
		"supplier_totals": res.SupplierTotals,
		"duration_ms":     time.Since(start).Milliseconds(),
	}, http.StatusOK)
}

// ListTrips handles GET /audit/list-trips
func (h *AuditHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	h.respondJSON(w, map[string]interface{}{"trips": h.builder.TripIDs()}, http.StatusOK)
}

// TripReport handles GET /audit/trip-report/{trip_id}; every read re-verifies
func (h *AuditHandler) TripReport(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	rendered, err := h.builder.VerifyAndRender(r.PathValue("trip_id"))
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, rendered, http.StatusOK)
}

// AnchorStatus handles GET /audit/anchors/{trip_id}
func (h *AuditHandler) AnchorStatus(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	view, err := h.builder.AnchorStatus(r.Context(), r.PathValue("trip_id"))
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, view, http.StatusOK)
}

// IntegrityEvents handles GET /authority/integrity-events
func (h *AuditHandler) IntegrityEvents(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	h.respondJSON(w, h.builder.IntegrityEvents(), http.StatusOK)
}

// TamperData handles POST /simulation/tamper-data?trip_id=&field=&new_value=
func (h *AuditHandler) TamperData(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}
	q := r.URL.Query()
	tripID, field, value := q.Get("trip_id"), q.Get("field"), q.Get("new_value")
	if tripID == "" || field == "" || value == "" {
		h.respondError(w, "trip_id, field and new_value are required", http.StatusBadRequest)
		return
	}

	if err := h.builder.Tamper(tripID, field, value); err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "Data tampered. Hashes NOT updated. Integrity check should fail.",
		"trip_id": tripID,
		"field":   field,
	}, http.StatusOK)
}

// ResetData handles POST /simulation/reset-data?trip_id=; it rebuilds every
// record from the source, then confirms the named trip still exists
func (h *AuditHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}
	tripID := strings.TrimSpace(r.URL.Query().Get("trip_id"))
	if tripID == "" {
		h.respondError(w, "trip_id is required", http.StatusBadRequest)
		return
	}

	res, err := h.builder.Reprocess(r.Context(), "reset requested for trip "+tripID)
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	if h.afterRun != nil {
		h.afterRun(res)
	}
	rendered, err := h.builder.VerifyAndRender(tripID)
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{
		"status":           "success",
		"message":          "Data reset to original state. Integrity restored.",
		"trip_id":          tripID,
		"integrity_status": rendered.IntegrityStatus,
	}, http.StatusOK)
}

// SupplierLeaderboard handles GET /intelligence/supplier-leaderboard
func (h *AuditHandler) SupplierLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	board, err := h.builder.SupplierLeaderboard()
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, board, http.StatusOK)
}

// DashboardStats handles GET /intelligence/dashboard-stats
func (h *AuditHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	h.respondJSON(w, h.builder.Dashboard(), http.StatusOK)
}

// HealthCheck handles GET /health requests
func (h *AuditHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "audit-engine",
		"records":   len(h.builder.TripIDs()),
	}

	h.respondJSON(w, resp, http.StatusOK)
}
