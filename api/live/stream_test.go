package live

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/voicedispatch/core/broadcast"
	"github.com/kilianp07/voicedispatch/core/model"
	"github.com/kilianp07/voicedispatch/infra/logger"
)

func entry(text string) model.TranscriptEntry {
	return model.TranscriptEntry{Speaker: model.SpeakerAgent, Text: text, Time: "01:40 AM", Role: model.RoleAssistant}
}

// openStream connects to the stream and returns a channel of non-empty lines.
func openStream(t *testing.T, url string) (<-chan string, *http.Response, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if l := sc.Text(); l != "" {
				lines <- l
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		_ = resp.Body.Close()
	})
	return lines, resp, cancel
}

func next(t *testing.T, lines <-chan string) string {
	t.Helper()
	select {
	case l, ok := <-lines:
		require.True(t, ok, "stream closed")
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for frame")
		return ""
	}
}

func decodeFrame(t *testing.T, line string) model.TranscriptEntry {
	t.Helper()
	require.True(t, strings.HasPrefix(line, "data: "), line)
	var e model.TranscriptEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
	return e
}

func TestStreamReplaysHistoryThenLive(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Config{}, logger.NopLogger{}, nil)
	hub.Publish(entry("E1"))
	hub.Publish(entry("E2"))
	srv := httptest.NewServer(NewStreamHandler(hub, logger.NopLogger{}, WithHeartbeat(0)))
	t.Cleanup(srv.Close)

	lines, resp, _ := openStream(t, srv.URL)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	assert.Equal(t, "E1", decodeFrame(t, next(t, lines)).Text)
	assert.Equal(t, "E2", decodeFrame(t, next(t, lines)).Text)

	hub.Publish(entry("E3"))
	got := decodeFrame(t, next(t, lines))
	assert.Equal(t, entry("E3"), got)
}

func TestStreamUnsubscribesOnDisconnect(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Config{}, logger.NopLogger{}, nil)
	srv := httptest.NewServer(NewStreamHandler(hub, logger.NopLogger{}, WithHeartbeat(0)))
	t.Cleanup(srv.Close)

	_, _, cancel := openStream(t, srv.URL)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHeartbeat(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Config{}, logger.NopLogger{}, nil)
	srv := httptest.NewServer(NewStreamHandler(hub, logger.NopLogger{}, WithHeartbeat(20*time.Millisecond)))
	t.Cleanup(srv.Close)

	lines, _, _ := openStream(t, srv.URL)
	assert.Equal(t, ": keep-alive", next(t, lines))
}

func TestStreamEndsWhenHubCloses(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Config{}, logger.NopLogger{}, nil)
	srv := httptest.NewServer(NewStreamHandler(hub, logger.NopLogger{}, WithHeartbeat(0)))
	t.Cleanup(srv.Close)

	lines, _, _ := openStream(t, srv.URL)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Close()
	select {
	case _, ok := <-lines:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open")
	}
}

func TestHistoryEndpoint(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Config{}, logger.NopLogger{}, nil)
	h := NewHistoryHandler(hub, logger.NopLogger{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transcript-history", nil))
	assert.JSONEq(t, `{"transcript":[]}`, rr.Body.String())

	hub.Publish(entry("hello"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transcript-history", nil))
	assert.JSONEq(t, `{"transcript":[{"speaker":"VAPI Agent","text":"hello","time":"01:40 AM","role":"assistant"}]}`, rr.Body.String())
}
