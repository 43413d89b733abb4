// Package drones exposes the fleet state.
package drones

import (
	"net/http"

	"github.com/kilianp07/voicedispatch/api/respond"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/model"
)

// Fleet is the read side of the unit registry.
type Fleet interface {
	List() []model.Unit
	AvailableCount() int
}

type fleetResponse struct {
	TotalDrones int                `json:"total_drones"`
	Available   int                `json:"available"`
	Drones      map[int]model.Unit `json:"drones"`
}

// NewHandler serves GET /drones.
func NewHandler(f Fleet, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		units := f.List()
		byID := make(map[int]model.Unit, len(units))
		for _, u := range units {
			byID[u.ID] = u
		}
		respond.JSON(w, r, log, http.StatusOK, fleetResponse{
			TotalDrones: len(units),
			Available:   f.AvailableCount(),
			Drones:      byID,
		})
	})
}
