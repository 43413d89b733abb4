package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremqtt "github.com/kilianp07/voicedispatch/core/mqtt"
	"github.com/kilianp07/voicedispatch/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements coremqtt.Sender using Eclipse Paho.
type PahoClient struct {
	cli          pahoClient
	missionTopic string
	ackTopic     string
	qos          map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the broker and subscribes to the ack topic on
// every (re)connection.
func NewPahoClient(cfg Config, log logger.Logger) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_client")
	}
	pc := &PahoClient{
		missionTopic: cfg.MissionTopic,
		ackTopic:     cfg.AckTopic,
		ackChans:     make(map[string]chan struct{}),
		logger:       log,
		qos:          cfg.QoS,
		maxRetries:   cfg.MaxRetries,
		backoff:      time.Duration(cfg.BackoffMS) * time.Millisecond,
		now:          time.Now,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		if token := c.Subscribe(pc.ackTopic, pc.qosFor("ack"), pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MissionID string `json:"mission_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.ackChans[m.MissionID]
	if !ok {
		p.logger.Debugf("ack for unknown mission %s", m.MissionID)
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	p.logger.Infof("received ack %s", m.MissionID)
}

// SendMission publishes m on the unit's mission topic, retrying with
// exponential backoff, and returns the mission identifier.
func (p *PahoClient) SendMission(m coremqtt.Mission) (string, error) {
	if m.MissionID == "" {
		m.MissionID = uuid.NewString()
	}
	if m.Timestamp == 0 {
		m.Timestamp = p.now().UnixMilli()
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return "", err
	}

	// register before publishing so a fast ack is not lost
	p.mu.Lock()
	p.ackChans[m.MissionID] = make(chan struct{}, 1)
	p.mu.Unlock()

	topic := fmt.Sprintf(p.missionTopic, m.UnitID)
	qos := p.qosFor("mission")
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("sent mission %s to %s", m.MissionID, topic)
			break
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	if publishErr != nil {
		p.forget(m.MissionID)
		return "", publishErr
	}
	return m.MissionID, nil
}

// WaitForAck blocks until an ack for missionID is received or timeout.
func (p *PahoClient) WaitForAck(missionID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[missionID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("%w: %s", coremqtt.ErrUnknownMission, missionID)
	}
	defer p.forget(missionID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, fmt.Errorf("%w", coremqtt.ErrAckTimeout)
	}
}

func (p *PahoClient) forget(missionID string) {
	p.mu.Lock()
	delete(p.ackChans, missionID)
	p.mu.Unlock()
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
