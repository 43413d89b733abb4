// Package orders exposes the dispatch ledger and the manual dispatch trigger.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/voicedispatch/api/respond"
	"github.com/kilianp07/voicedispatch/core/dispatch"
	"github.com/kilianp07/voicedispatch/core/ledger"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/model"
)

// Reader is the read side of the ledger.
type Reader interface {
	List() []model.Order
	Get(id string) (model.Order, error)
}

// Dispatcher runs a dispatch for a manual order.
type Dispatcher interface {
	Dispatch(ctx context.Context, req model.OrderRequest) (dispatch.Result, error)
}

type listResponse struct {
	TotalOrders int           `json:"total_orders"`
	Orders      []model.Order `json:"orders"`
}

type simulateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	dispatch.Result
}

// NewListHandler serves GET /orders in creation order.
func NewListHandler(store Reader, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all := store.List()
		if all == nil {
			all = []model.Order{}
		}
		respond.JSON(w, r, log, http.StatusOK, listResponse{TotalOrders: len(all), Orders: all})
	})
}

// NewGetHandler serves GET /orders/{id}.
func NewGetHandler(store Reader, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o, err := store.Get(chi.URLParam(r, "id"))
		if errors.Is(err, ledger.ErrNotFound) {
			respond.Error(w, r, log, http.StatusNotFound, "Order not found")
			return
		}
		if err != nil {
			respond.Error(w, r, log, http.StatusInternalServerError, err.Error())
			return
		}
		respond.JSON(w, r, log, http.StatusOK, o)
	})
}

// NewSimulateHandler serves POST /simulate-order, which dispatches an order
// without a voice call.
func NewSimulateHandler(d Dispatcher, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, r, log, http.StatusBadRequest, "invalid order payload: "+err.Error())
			return
		}
		res, err := d.Dispatch(r.Context(), req)
		switch {
		case errors.Is(err, dispatch.ErrInvalidOrder):
			respond.Error(w, r, log, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, dispatch.ErrDispatchFailed):
			respond.Error(w, r, log, http.StatusServiceUnavailable, err.Error())
			return
		case err != nil:
			respond.Error(w, r, log, http.StatusInternalServerError, err.Error())
			return
		}
		log.Infof("manual order %s dispatched to unit %d", res.OrderID, res.DroneID)
		respond.JSON(w, r, log, http.StatusOK, simulateResponse{Status: "success", Message: "Order dispatched", Result: res})
	})
}
