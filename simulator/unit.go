package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/voicedispatch/core/logger"
)

// Publisher is the subset of paho.Client used by a simulated unit.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Disconnect(quiesce uint)
}

var connect = func(broker, clientID string) (Publisher, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

// SimulatedUnit listens on its mission topic and acknowledges what it receives.
type SimulatedUnit struct {
	ID       int
	cfg      Config
	strategy AckStrategy
	log      logger.Logger

	client  Publisher
	queue   chan string
	handled atomic.Uint64
	acked   atomic.Uint64
}

// NewSimulatedUnit creates a unit. cfg defaults are applied.
func NewSimulatedUnit(id int, cfg Config, strat AckStrategy, log logger.Logger) *SimulatedUnit {
	cfg.SetDefaults()
	return &SimulatedUnit{
		ID:       id,
		cfg:      cfg,
		strategy: strat,
		log:      log,
		queue:    make(chan string, 50),
	}
}

// Handled returns the number of missions received.
func (u *SimulatedUnit) Handled() uint64 { return u.handled.Load() }

// Acked returns the number of acknowledgments published.
func (u *SimulatedUnit) Acked() uint64 { return u.acked.Load() }

// Run connects to the broker and serves missions until ctx is done.
func (u *SimulatedUnit) Run(ctx context.Context) error {
	cli, err := connect(u.cfg.Broker, fmt.Sprintf("sim-unit-%d", u.ID))
	if err != nil {
		return fmt.Errorf("unit %d: %w", u.ID, err)
	}
	u.client = cli
	defer cli.Disconnect(250)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < u.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.worker(ctx)
		}()
	}
	topic := fmt.Sprintf(u.cfg.MissionTopic, u.ID)
	if token := cli.Subscribe(topic, 1, u.onMission); token.Wait() && token.Error() != nil {
		return fmt.Errorf("unit %d subscribe: %w", u.ID, token.Error())
	}
	u.log.Infof("unit %d waiting for missions on %s", u.ID, topic)
	<-ctx.Done()
	wg.Wait()
	return nil
}

func (u *SimulatedUnit) onMission(_ paho.Client, msg paho.Message) {
	var m struct {
		MissionID string `json:"mission_id"`
		OrderID   string `json:"order_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil || m.MissionID == "" {
		u.log.Warnf("unit %d: undecodable mission: %v", u.ID, err)
		return
	}
	u.handled.Add(1)
	u.log.Infof("unit %d received mission %s for order %s", u.ID, m.MissionID, m.OrderID)
	select {
	case u.queue <- m.MissionID:
	default:
		u.log.Warnf("unit %d: ack queue full, dropping mission %s", u.ID, m.MissionID)
	}
}

func (u *SimulatedUnit) worker(ctx context.Context) {
	topic := fmt.Sprintf(u.cfg.AckTopic, u.ID)
	for {
		select {
		case id := <-u.queue:
			if u.strategy.Ack(ctx, u.client, topic, id, u.log) {
				u.acked.Add(1)
			}
		case <-ctx.Done():
			return
		}
	}
}
