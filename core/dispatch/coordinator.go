// Package dispatch validates incoming orders, assigns a unit and records the
// resulting order.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/voicedispatch/core/events"
	"github.com/kilianp07/voicedispatch/core/ledger"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/core/model"
	"github.com/kilianp07/voicedispatch/internal/eventbus"
)

// UnitPool is the part of the fleet registry used by the coordinator.
type UnitPool interface {
	Claim(urgency model.Urgency) (model.Unit, error)
	Release(id int) error
	AvailableCount() int
}

// Result is returned to the caller of Dispatch.
type Result struct {
	OrderID          string `json:"order_id"`
	DroneID          int    `json:"drone_id"`
	ETAMinutes       int    `json:"eta_minutes"`
	ConfirmationCode string `json:"confirmation_code"`
	Status           string `json:"status"`
}

// Coordinator runs a dispatch end to end.
type Coordinator struct {
	pool    UnitPool
	store   ledger.Store
	bus     eventbus.EventBus[events.Event]
	metrics metrics.MetricsSink
	logger  logger.Logger

	now     func() time.Time
	newID   func() string
	newCode func() string
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithBus publishes an events.UnitDispatched after every successful dispatch.
func WithBus(bus eventbus.EventBus[events.Event]) Option {
	return func(c *Coordinator) { c.bus = bus }
}

func WithMetrics(sink metrics.MetricsSink) Option {
	return func(c *Coordinator) {
		if sink != nil {
			c.metrics = sink
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator replaces the order identity and tracking suffix sources.
func WithIDGenerator(id, code func() string) Option {
	return func(c *Coordinator) {
		if id != nil {
			c.newID = id
		}
		if code != nil {
			c.newCode = code
		}
	}
}

// NewCoordinator creates a coordinator assigning units from pool and
// recording orders in store.
func NewCoordinator(pool UnitPool, store ledger.Store, log logger.Logger, opts ...Option) (*Coordinator, error) {
	if pool == nil || store == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewCoordinator")
	}
	c := &Coordinator{
		pool:    pool,
		store:   store,
		metrics: metrics.NopSink{},
		logger:  log,
		now:     time.Now,
		newID:   uuid.NewString,
		newCode: randomHex,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Dispatch validates req, claims a unit and records a new order. Validation
// failures match ErrInvalidOrder; capacity and ledger failures match
// ErrDispatchFailed.
func (c *Coordinator) Dispatch(ctx context.Context, req model.OrderRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := Validate(req); err != nil {
		c.logger.Warnf("order validation failed: %v", err)
		c.record(metrics.DispatchEvent{Urgency: string(req.Urgency), Reason: err.Error(), Time: c.now()})
		return Result{}, err
	}

	unit, err := c.pool.Claim(req.Urgency)
	if err != nil {
		c.logger.Errorf("no unit for %s order from %s: %v", req.Urgency, req.Facility, err)
		c.record(metrics.DispatchEvent{Urgency: string(req.Urgency), Reason: err.Error(), Time: c.now()})
		return Result{}, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	eta := ETAMinutes(req.Urgency)
	now := c.now()
	order := model.Order{
		OrderID:          c.newID(),
		DroneID:          unit.ID,
		ConfirmationCode: TrackingCode(req.Facility, c.newCode()),
		Timestamp:        now,
		ETA:              now.Add(time.Duration(eta) * time.Minute),
		Status:           model.OrderStatusDispatched,
		OrderRequest:     req,
	}
	if err := c.store.Create(order); err != nil {
		if rerr := c.pool.Release(unit.ID); rerr != nil {
			c.logger.Errorf("release unit %d: %v", unit.ID, rerr)
		}
		c.logger.Errorf("record order for unit %d: %v", unit.ID, err)
		c.record(metrics.DispatchEvent{OrderID: order.OrderID, UnitID: unit.ID, Urgency: string(req.Urgency), Reason: err.Error(), Time: now})
		return Result{}, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	c.logger.Infow("unit dispatched", map[string]any{
		"order_id":    order.OrderID,
		"drone_id":    unit.ID,
		"urgency":     string(req.Urgency),
		"medications": len(req.Medications),
		"facility":    req.Facility,
		"department":  req.Department,
		"eta_minutes": eta,
		"tracking":    order.ConfirmationCode,
	})
	c.record(metrics.DispatchEvent{
		OrderID:    order.OrderID,
		UnitID:     unit.ID,
		Urgency:    string(req.Urgency),
		ETAMinutes: eta,
		Success:    true,
		Time:       now,
	})
	if c.bus != nil {
		c.bus.Publish(events.UnitDispatched{Order: order, ETAMinutes: eta})
	}

	return Result{
		OrderID:          order.OrderID,
		DroneID:          unit.ID,
		ETAMinutes:       eta,
		ConfirmationCode: order.ConfirmationCode,
		Status:           model.OrderStatusDispatched,
	}, nil
}

func (c *Coordinator) record(ev metrics.DispatchEvent) {
	if err := c.metrics.RecordDispatch(ev); err != nil {
		c.logger.Errorf("metrics error: %v", err)
	}
	if fr, ok := c.metrics.(metrics.FleetRecorder); ok {
		if err := fr.RecordAvailableUnits(c.pool.AvailableCount()); err != nil {
			c.logger.Errorf("fleet metrics error: %v", err)
		}
	}
}
