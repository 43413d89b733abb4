// Package health exposes the liveness summary served at the root path.
package health

import (
	"net/http"

	"github.com/kilianp07/voicedispatch/api/respond"
	"github.com/kilianp07/voicedispatch/core/logger"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Medical Drone Voice Agent"

// Counter reports a size.
type Counter interface {
	Count() int
}

// CounterFunc adapts a function to Counter.
type CounterFunc func() int

func (f CounterFunc) Count() int { return f() }

type status struct {
	Status          string `json:"status"`
	Service         string `json:"service"`
	ActiveOrders    int    `json:"active_orders"`
	AvailableDrones int    `json:"available_drones"`
}

// NewHandler serves GET /. orders counts recorded orders and available counts
// idle units.
func NewHandler(orders, available Counter, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, log, http.StatusOK, status{
			Status:          "online",
			Service:         ServiceName,
			ActiveOrders:    orders.Count(),
			AvailableDrones: available.Count(),
		})
	})
}
