package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kilianp07/voicedispatch/api"
	"github.com/kilianp07/voicedispatch/app/plugins"
	"github.com/kilianp07/voicedispatch/config"
	"github.com/kilianp07/voicedispatch/core/broadcast"
	"github.com/kilianp07/voicedispatch/core/callevent"
	"github.com/kilianp07/voicedispatch/core/dispatch"
	"github.com/kilianp07/voicedispatch/core/events"
	"github.com/kilianp07/voicedispatch/core/fleet"
	"github.com/kilianp07/voicedispatch/core/ledger"
	coremetrics "github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/core/mission"
	"github.com/kilianp07/voicedispatch/core/transcript"
	"github.com/kilianp07/voicedispatch/core/webhook"
	"github.com/kilianp07/voicedispatch/infra/logger"
	"github.com/kilianp07/voicedispatch/infra/metrics"
	"github.com/kilianp07/voicedispatch/infra/mqtt"
	"github.com/kilianp07/voicedispatch/internal/eventbus"
)

// Service wires the fleet, the ledger, the transcript hub and the HTTP surface.
type Service struct {
	Fleet       *fleet.Registry
	Orders      *ledger.MemoryStore
	Hub         *broadcast.Hub
	Coordinator *dispatch.Coordinator

	cfg       *config.Config
	bus       *eventbus.TypedBus[events.Event]
	sink      coremetrics.MetricsSink
	forwarder *mission.Forwarder
	mqtt      *mqtt.PahoClient
	handler   http.Handler
	log       logger.Logger
}

// New creates a Service from the configuration. The MQTT client is only
// connected when mqtt.enabled is set.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	reg := fleet.NewRegistry(cfg.Fleet)
	store := ledger.NewMemoryStore()
	bus := eventbus.NewTyped[events.Event]()
	hub := broadcast.NewHub(cfg.Transcript.Hub(), logger.New("transcript_hub"), sink)

	coord, err := dispatch.NewCoordinator(reg, store, logger.New("dispatch"),
		dispatch.WithBus(bus),
		dispatch.WithMetrics(sink),
	)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	agg := transcript.NewAggregator(hub, logger.New("transcript"),
		transcript.WithTimeFormat(cfg.Transcript.TimeFormat),
		transcript.WithMetrics(sink),
	)
	wh := webhook.NewHandler(coord, store, agg, logger.New("webhook"),
		webhook.WithBus(bus),
		webhook.WithMatchWindow(cfg.Dispatch.CallMatchWindow()),
	)
	classifier := callevent.NewClassifier(wh, logger.New("webhook"), sink)

	svc := &Service{
		Fleet:       reg,
		Orders:      store,
		Hub:         hub,
		Coordinator: coord,
		cfg:         cfg,
		bus:         bus,
		sink:        sink,
		log:         logg,
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT, logger.New("mqtt_client"))
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		svc.forwarder = mission.NewForwarder(client, cfg.Dispatch.MissionAckTimeout(), logger.New("mission"), sink)
	}

	svc.handler = api.NewRouter(api.Deps{
		Webhook:        classifier,
		Orders:         store,
		Dispatcher:     coord,
		Fleet:          reg,
		Transcript:     hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            logger.New("http"),
	})
	return svc, nil
}

func buildSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	sinks, err := plugins.BuildMetrics(cfg, exporterNames(cfg)...)
	if err != nil {
		return nil, err
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

// Handler returns the HTTP handler of the service.
func (s *Service) Handler() http.Handler { return s.handler }

// Run listens on the configured address and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the background workers and serves HTTP on ln until the
// context is cancelled.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	go s.audit(ctx)
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.forwarder != nil {
		go s.forwarder.Run(ctx, s.bus)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, nil, logger.New("prom")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	// No write timeout: live transcript streams stay open.
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()

	s.log.Infow("service started", map[string]any{
		"address":   ln.Addr().String(),
		"units":     s.Fleet.Size(),
		"mqtt":      s.mqtt != nil,
		"exporters": exporterNames(s.cfg.Metrics),
	})
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// audit logs every domain event published on the bus.
func (s *Service) audit(ctx context.Context) {
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.log.Debugw("domain event", map[string]any{"event": ev.EventName()})
		}
	}
}

func exporterNames(cfg coremetrics.Config) []string {
	var out []string
	if cfg.PrometheusEnabled {
		out = append(out, "prometheus")
	}
	if cfg.InfluxEnabled {
		out = append(out, "influx")
	}
	return out
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	s.Hub.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
