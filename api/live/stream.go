// Package live streams the transcript to dashboard viewers over
// server-sent events.
package live

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/voicedispatch/api/respond"
	"github.com/kilianp07/voicedispatch/core/broadcast"
	"github.com/kilianp07/voicedispatch/core/logger"
	"github.com/kilianp07/voicedispatch/core/model"
)

// DefaultHeartbeat is the interval between keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

// Source is the transcript hub.
type Source interface {
	Subscribe() *broadcast.Subscription
	Unsubscribe(*broadcast.Subscription)
	History() []model.TranscriptEntry
}

// Option customises the stream handler.
type Option func(*streamHandler)

// WithHeartbeat sets the keep-alive interval. Non-positive values disable it.
func WithHeartbeat(d time.Duration) Option {
	return func(h *streamHandler) { h.heartbeat = d }
}

type streamHandler struct {
	src       Source
	log       logger.Logger
	heartbeat time.Duration
}

// NewStreamHandler serves GET /live-transcript. Every viewer first receives
// the current window, then each new entry as a "data:" frame.
func NewStreamHandler(src Source, log logger.Logger, opts ...Option) http.Handler {
	h := &streamHandler{src: src, log: log, heartbeat: DefaultHeartbeat}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, r, h.log, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub := h.src.Subscribe()
	defer h.src.Unsubscribe(sub)
	h.log.Debugf("live viewer connected from %s", r.RemoteAddr)

	for _, e := range sub.History() {
		if err := writeFrame(w, e); err != nil {
			return
		}
	}
	flusher.Flush()

	var tick <-chan time.Time
	if h.heartbeat > 0 {
		t := time.NewTicker(h.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			h.log.Debugf("live viewer %s disconnected", r.RemoteAddr)
			return
		case <-sub.Done():
			return
		case e := <-sub.C():
			if err := writeFrame(w, e); err != nil {
				h.log.Debugf("live viewer %s: %v", r.RemoteAddr, err)
				return
			}
			flusher.Flush()
		case <-tick:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w io.Writer, e model.TranscriptEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

type historyResponse struct {
	Transcript []model.TranscriptEntry `json:"transcript"`
}

// NewHistoryHandler serves GET /transcript-history.
func NewHistoryHandler(src Source, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := src.History()
		if entries == nil {
			entries = []model.TranscriptEntry{}
		}
		respond.JSON(w, r, log, http.StatusOK, historyResponse{Transcript: entries})
	})
}
