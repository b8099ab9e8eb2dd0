package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON_UnencodableValue(t *testing.T) {
	h := responder{logger: quietLogger()}
	rec := httptest.NewRecorder()
	h.respondJSON(rec, map[string]float64{"total": math.NaN()}, http.StatusOK)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusInternalServerError), body["status"])
}

func TestRespondJSON_WritesStatusAndBody(t *testing.T) {
	h := responder{logger: quietLogger()}
	rec := httptest.NewRecorder()
	h.respondJSON(rec, map[string]string{"trip_id": "T-1"}, http.StatusAccepted)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"trip_id":"T-1"}`, rec.Body.String())
}
