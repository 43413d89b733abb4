package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/voicedispatch/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) expect(t *testing.T, p *write.Point) {
	t.Helper()
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.bodies) != 1 || l.bodies[0] != exp {
		t.Errorf("unexpected bodies: %#v, want %s", l.bodies, exp)
	}
}

func TestInfluxSink_RecordDispatch(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.DispatchEvent{OrderID: "o1", UnitID: 1, Urgency: "STAT", ETAMinutes: 2, Success: true, Time: now}
	if err := sink.RecordDispatch(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	rec.expect(t, write.NewPointWithMeasurement("dispatch_event").
		AddTag("urgency", "STAT").
		AddTag("success", "true").
		AddTag("component", "dispatch_coordinator").
		AddField("order_id", "o1").
		AddField("unit_id", 1).
		AddField("eta_minutes", 2).
		SetTime(now))
}

func TestInfluxSink_RecordDispatchFailureReason(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordDispatch(coremetrics.DispatchEvent{Urgency: "routine", Reason: "no drones available", Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	rec.expect(t, write.NewPointWithMeasurement("dispatch_event").
		AddTag("urgency", "routine").
		AddTag("success", "false").
		AddTag("component", "dispatch_coordinator").
		AddField("order_id", "").
		AddField("unit_id", 0).
		AddField("eta_minutes", 0).
		AddField("reason", "no drones available").
		SetTime(now))
}

func TestInfluxSink_RecordMissionAck(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.MissionAckEvent{OrderID: "o1", UnitID: 2, Acknowledged: true, Latency: time.Second, Time: now}
	if err := sink.RecordMissionAck(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.expect(t, write.NewPointWithMeasurement("mission_ack").
		AddTag("unit_id", "2").
		AddTag("acknowledged", "true").
		AddTag("component", "mission_forwarder").
		AddField("order_id", "o1").
		AddField("latency_ms", 1000.0).
		AddField("errors", "").
		SetTime(now))
}

func TestInfluxSink_RecordCallCompleted(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.CallEvent{CallID: "c1", OrderID: "o1", Status: "ended", Duration: 87.5, Cost: 0.1234, Time: now}
	if err := sink.RecordCallCompleted(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.expect(t, write.NewPointWithMeasurement("call_completed").
		AddTag("status", "ended").
		AddTag("matched", "true").
		AddField("call_id", "c1").
		AddField("duration_s", 87.5).
		AddField("cost", 0.123).
		SetTime(now))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	var mu sync.Mutex
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			mu.Lock()
			called = true
			mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	cfg := coremetrics.Config{
		InfluxURL:    srv.URL + "/api/v2/write",
		InfluxToken:  "tok",
		InfluxOrg:    "org",
		InfluxBucket: "bucket",
	}
	sink := NewInfluxSinkWithFallback(cfg)
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
