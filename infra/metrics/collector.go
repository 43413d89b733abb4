package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/voicedispatch/core/events"
	coremetrics "github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records call
// completions on sink. It stops when the context is canceled or the bus is
// closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.CallRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if cc, ok := ev.(events.CallCompleted); ok {
					_ = rec.RecordCallCompleted(coremetrics.CallEvent{
						CallID:   cc.CallID,
						OrderID:  cc.OrderID,
						Status:   cc.Status,
						Duration: cc.Duration,
						Cost:     cc.Cost,
						Time:     time.Now(),
					})
				}
			}
		}
	}()
}
