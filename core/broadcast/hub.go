// Package broadcast fans live transcript entries out to every connected
// viewer and replays the recent window to new subscribers.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/core/model"
	"github.com/kilianp07/voicedispatch/core/transcript"
)

// Subscription is one viewer's queue. History holds the entries that were
// in the window when the subscription was registered; C yields every entry
// published afterwards, in publication order.
type Subscription struct {
	history []model.TranscriptEntry
	ch      chan model.TranscriptEntry
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func (s *Subscription) History() []model.TranscriptEntry { return s.history }

// C returns the live entry channel. It is never closed; watch Done instead.
func (s *Subscription) C() <-chan model.TranscriptEntry { return s.ch }

// Done is closed when the subscription is removed from the hub.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Dropped reports how many entries were discarded because the viewer fell
// behind.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Hub owns the shared history window and the set of live subscribers.
type Hub struct {
	// mu guards window, subs and closed. Appending to the window and
	// registering a subscriber are mutually exclusive, so every entry is
	// either in a subscriber's history or delivered on its channel.
	mu     sync.Mutex
	window *transcript.Window[model.TranscriptEntry]
	subs   map[*Subscription]struct{}
	closed bool

	// pubMu serialises fan-out so all subscribers see the same order.
	pubMu sync.Mutex

	buffer  int
	log     logger.Logger
	metrics metrics.MetricsSink
}

func NewHub(cfg Config, log logger.Logger, sink metrics.MetricsSink) *Hub {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Hub{
		window:  transcript.NewWindow[model.TranscriptEntry](cfg.HistorySize),
		subs:    make(map[*Subscription]struct{}),
		buffer:  cfg.SubscriberBuffer,
		log:     log,
		metrics: sink,
	}
}

// Publish appends e to the window and delivers it to every subscriber.
// It never blocks on a slow viewer: when a queue is full the oldest queued
// entry is discarded to make room.
func (h *Hub) Publish(e model.TranscriptEntry) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.window.Append(e)
	targets := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		h.deliver(s, e)
	}
}

func (h *Hub) deliver(s *Subscription, e model.TranscriptEntry) {
	for {
		select {
		case <-s.done:
			return
		case s.ch <- e:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
			h.recordDrop()
		default:
		}
	}
}

// Subscribe registers a new viewer and returns it together with a snapshot
// of the current window.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		ch:   make(chan model.TranscriptEntry, h.buffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	s.history = h.window.Entries()
	if h.closed {
		h.mu.Unlock()
		s.once.Do(func() { close(s.done) })
		return s
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Infof("transcript subscriber connected (total %d)", n)
	h.recordSubscribers(n)
	return s
}

// Unsubscribe removes s. Calling it more than once is a no-op.
func (h *Hub) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	s.once.Do(func() { close(s.done) })
	if !ok {
		return
	}
	h.log.Infof("transcript subscriber disconnected (total %d)", n)
	h.recordSubscribers(n)
}

// History returns the current window, oldest first.
func (h *Hub) History() []model.TranscriptEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.window.Entries()
}

// Subscribers returns the number of registered viewers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()
	for s := range subs {
		s.once.Do(func() { close(s.done) })
	}
	h.recordSubscribers(0)
}

func (h *Hub) recordSubscribers(n int) {
	if rec, ok := h.metrics.(metrics.SubscriberRecorder); ok {
		if err := rec.RecordSubscribers(n); err != nil {
			h.log.Errorf("subscriber metrics error: %v", err)
		}
	}
}

func (h *Hub) recordDrop() {
	if rec, ok := h.metrics.(metrics.SubscriberRecorder); ok {
		if err := rec.RecordDroppedFrame(); err != nil {
			h.log.Errorf("subscriber metrics error: %v", err)
		}
	}
}
