package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/voicedispatch/infra/logger"
)

type published struct {
	topic   string
	payload string
}

type fakeBroker struct {
	mu        sync.Mutex
	handlers  map[string]paho.MessageHandler
	published []published
	subErr    error
}

func newFakeBroker() *fakeBroker { return &fakeBroker{handlers: map[string]paho.MessageHandler{}} }

func (b *fakeBroker) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, _ := payload.([]byte)
	b.published = append(b.published, published{topic, string(p)})
	return token{}
}

func (b *fakeBroker) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return token{err: b.subErr}
	}
	b.handlers[topic] = cb
	return token{}
}

func (b *fakeBroker) Disconnect(uint) {}

func (b *fakeBroker) deliver(topic, payload string) bool {
	b.mu.Lock()
	h := b.handlers[topic]
	b.mu.Unlock()
	if h == nil {
		return false
	}
	h(nil, message(payload))
	return true
}

func (b *fakeBroker) sent() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.published...)
}

type token struct{ err error }

func (t token) Wait() bool                     { return true }
func (t token) WaitTimeout(time.Duration) bool { return true }
func (t token) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (t token) Error() error                   { return t.err }

type message string

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 1 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return "" }
func (m message) MessageID() uint16 { return 0 }
func (m message) Payload() []byte   { return []byte(m) }
func (m message) Ack()              {}

func withFakeBroker(t *testing.T, b *fakeBroker) {
	t.Helper()
	prev := connect
	connect = func(string, string) (Publisher, error) { return b, nil }
	t.Cleanup(func() { connect = prev })
}

func TestUnitAcknowledgesMission(t *testing.T) {
	b := newFakeBroker()
	withFakeBroker(t, b)
	u := NewSimulatedUnit(2, Config{Broker: "tcp://fake"}, AutoAck{}, logger.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx) }()

	require.Eventually(t, func() bool {
		return b.deliver("fleet/unit/2/mission", `{"mission_id":"m-1","order_id":"o-1"}`)
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return u.Acked() == 1 }, time.Second, 5*time.Millisecond)

	got := b.sent()
	require.Len(t, got, 1)
	assert.Equal(t, "fleet/unit/2/ack", got[0].topic)
	assert.JSONEq(t, `{"mission_id":"m-1"}`, got[0].payload)

	b.deliver("fleet/unit/2/mission", `not json`)
	assert.Equal(t, uint64(1), u.Handled())

	cancel()
	require.NoError(t, <-done)
}

func TestRandomAckDropsEverything(t *testing.T) {
	b := newFakeBroker()
	ok := RandomAck{DropRate: 1}.Ack(context.Background(), b, "fleet/unit/1/ack", "m-1", logger.NopLogger{})
	assert.False(t, ok)
	assert.Empty(t, b.sent())
}

func TestAutoAckHonoursCancellation(t *testing.T) {
	b := newFakeBroker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := AutoAck{Delay: time.Minute}.Ack(ctx, b, "fleet/unit/1/ack", "m-1", logger.NopLogger{})
	assert.False(t, ok)
	assert.Empty(t, b.sent())
}

func TestRunFleetSubscribeError(t *testing.T) {
	b := newFakeBroker()
	b.subErr = errors.New("not authorized")
	withFakeBroker(t, b)

	err := RunFleet(context.Background(), Config{Broker: "tcp://fake", UnitIDs: []int{1, 2}}, logger.NopLogger{})
	assert.ErrorContains(t, err, "not authorized")
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Error(t, c.Validate())

	c = Config{Broker: "tcp://b", UnitIDs: []int{1}}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, DefaultWorkers, c.Workers)
	assert.IsType(t, AutoAck{}, c.Strategy())

	c.DropRate = 0.5
	assert.IsType(t, RandomAck{}, c.Strategy())
	c.DropRate = 2
	assert.Error(t, c.Validate())

	c = Config{Broker: "tcp://b", UnitIDs: []int{1}, MissionTopic: "fleet/mission"}
	c.SetDefaults()
	assert.Error(t, c.Validate())
}
