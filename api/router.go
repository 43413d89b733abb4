// Package api wires the HTTP surface of the service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kilianp07/voicedispatch/api/drones"
	"github.com/kilianp07/voicedispatch/api/health"
	"github.com/kilianp07/voicedispatch/api/live"
	"github.com/kilianp07/voicedispatch/api/orders"
	"github.com/kilianp07/voicedispatch/api/vapi"
	"github.com/kilianp07/voicedispatch/core/logger"
)

// OrderStore is the read side of the ledger.
type OrderStore interface {
	orders.Reader
	Count() int
}

// Deps are the collaborators served by the router.
type Deps struct {
	Webhook        vapi.Processor
	Orders         OrderStore
	Dispatcher     orders.Dispatcher
	Fleet          drones.Fleet
	Transcript     live.Source
	AllowedOrigins []string
	Heartbeat      time.Duration
	Log            logger.Logger
}

// NewRouter returns the service handler.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors(d.AllowedOrigins))

	var streamOpts []live.Option
	if d.Heartbeat != 0 {
		streamOpts = append(streamOpts, live.WithHeartbeat(d.Heartbeat))
	}

	r.Method(http.MethodPost, "/vapi-webhook", vapi.NewWebhookHandler(d.Webhook, log))
	r.Method(http.MethodGet, "/", health.NewHandler(d.Orders, health.CounterFunc(d.Fleet.AvailableCount), log))
	r.Method(http.MethodGet, "/orders", orders.NewListHandler(d.Orders, log))
	r.Method(http.MethodGet, "/orders/{id}", orders.NewGetHandler(d.Orders, log))
	r.Method(http.MethodPost, "/simulate-order", orders.NewSimulateHandler(d.Dispatcher, log))
	r.Method(http.MethodGet, "/drones", drones.NewHandler(d.Fleet, log))
	r.Method(http.MethodGet, "/live-transcript", live.NewStreamHandler(d.Transcript, log, streamOpts...))
	r.Method(http.MethodGet, "/transcript-history", live.NewHistoryHandler(d.Transcript, log))
	return r
}
