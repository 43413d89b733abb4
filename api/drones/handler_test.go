package drones

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/voicedispatch/core/fleet"
	"github.com/kilianp07/voicedispatch/core/model"
	"github.com/kilianp07/voicedispatch/infra/logger"
)

func TestFleetStatus(t *testing.T) {
	reg := fleet.NewRegistry(fleet.Config{})
	_, err := reg.Claim(model.UrgencyRoutine)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	NewHandler(reg, logger.NopLogger{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/drones", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		TotalDrones int                   `json:"total_drones"`
		Available   int                   `json:"available"`
		Drones      map[string]model.Unit `json:"drones"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TotalDrones)
	assert.Equal(t, 2, got.Available)
	require.Contains(t, got.Drones, "1")
	assert.Equal(t, model.UnitReserved, got.Drones["1"].Status)
	assert.Equal(t, model.UnitAvailable, got.Drones["2"].Status)
}
