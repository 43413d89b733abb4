// Package mission hands dispatched orders over to the units that were
// assigned to them.
package mission

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/voicedispatch/core/events"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/core/mqtt"
	"github.com/kilianp07/voicedispatch/internal/eventbus"
)

// Forwarder sends a mission for every events.UnitDispatched seen on the bus
// and records whether the unit acknowledged it.
type Forwarder struct {
	sender     mqtt.Sender
	ackTimeout time.Duration
	log        logger.Logger
	metrics    metrics.MetricsSink
	now        func() time.Time
}

// NewForwarder creates a Forwarder. If ackTimeout is zero, a default of five
// seconds is used.
func NewForwarder(sender mqtt.Sender, ackTimeout time.Duration, log logger.Logger, sink metrics.MetricsSink) *Forwarder {
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Forwarder{sender: sender, ackTimeout: ackTimeout, log: log, metrics: sink, now: time.Now}
}

// Run consumes bus events until ctx is cancelled or the bus is closed. Each
// mission is forwarded on its own goroutine; Run returns once in-flight
// missions are settled.
func (f *Forwarder) Run(ctx context.Context, bus eventbus.EventBus[events.Event]) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ud, ok := ev.(events.UnitDispatched); ok {
				wg.Add(1)
				go func() {
					defer wg.Done()
					f.Forward(ud)
				}()
			}
		}
	}
}

// Forward sends the mission for ud and waits for the acknowledgment.
func (f *Forwarder) Forward(ud events.UnitDispatched) metrics.MissionAckEvent {
	o := ud.Order
	m := mqtt.Mission{
		OrderID:    o.OrderID,
		UnitID:     o.DroneID,
		Urgency:    string(o.Urgency),
		Facility:   o.Facility,
		Department: o.Department,
		ETAMinutes: ud.ETAMinutes,
		Timestamp:  f.now().UnixMilli(),
	}
	if loc := o.DeliveryLocation; loc != nil {
		m.Building = loc.Building
		m.Floor = loc.Floor
		m.Area = loc.SpecificArea
		m.AccessInstructions = loc.AccessInstructions
	}

	start := f.now()
	ev := metrics.MissionAckEvent{OrderID: o.OrderID, UnitID: o.DroneID, Time: start}
	id, err := f.sender.SendMission(m)
	if err == nil {
		ev.Acknowledged, err = f.sender.WaitForAck(id, f.ackTimeout)
	}
	ev.Latency = f.now().Sub(start)
	if err != nil {
		ev.Error = err.Error()
		f.log.Warnf("mission for order %s to unit %d: %v", o.OrderID, o.DroneID, err)
	} else {
		f.log.Infof("unit %d acknowledged mission %s in %s", o.DroneID, id, ev.Latency)
	}
	if rec, ok := f.metrics.(metrics.MissionAckRecorder); ok {
		if rerr := rec.RecordMissionAck(ev); rerr != nil {
			f.log.Errorf("mission metrics error: %v", rerr)
		}
	}
	return ev
}
