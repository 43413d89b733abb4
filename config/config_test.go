package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `server:
  address: ":9000"
  allowed_origins: ["https://ops.example.com"]
fleet:
  min_capacity: 40
  units:
    - id: 7
      battery: 80
      location: "roof"
    - id: 8
      battery: 60
      location: "depot"
dispatch:
  call_match_window_seconds: 120
transcript:
  history_size: 10
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  qos:
    mission: 1
metrics:
  prometheus_enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.address", cfg.Server.Address, ":9000"},
		{"server.allowed_origins", cfg.Server.AllowedOrigins[0], "https://ops.example.com"},
		{"fleet.min_capacity", cfg.Fleet.MinCapacity, 40},
		{"fleet.units", len(cfg.Fleet.Units), 2},
		{"fleet.units[0].id", cfg.Fleet.Units[0].ID, 7},
		{"fleet.units[0].location", cfg.Fleet.Units[0].Location, "roof"},
		{"dispatch.call_match_window_seconds", cfg.Dispatch.CallMatchWindowSeconds, 120},
		{"dispatch.mission_ack_timeout_seconds", cfg.Dispatch.MissionAckTimeoutSeconds, 5},
		{"transcript.history_size", cfg.Transcript.HistorySize, 10},
		{"transcript.subscriber_buffer", cfg.Transcript.SubscriberBuffer, 64},
		{"transcript.time_format", cfg.Transcript.TimeFormat, "03:04 PM"},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"mqtt.qos.mission", cfg.MQTT.QoS["mission"], byte(1)},
		{"mqtt.mission_topic", cfg.MQTT.MissionTopic, "fleet/unit/%d/mission"},
		{"metrics.prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"metrics.prometheus_port", cfg.Metrics.PrometheusPort, ":2112"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Address != ":8000" {
		t.Errorf("address: %s", cfg.Server.Address)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("origins: %v", cfg.Server.AllowedOrigins)
	}
	if len(cfg.Fleet.Units) != 3 || cfg.Fleet.Units[0].Battery != 95 {
		t.Errorf("fleet: %+v", cfg.Fleet.Units)
	}
	if cfg.Fleet.MinCapacity != 30 {
		t.Errorf("min capacity: %d", cfg.Fleet.MinCapacity)
	}
	if cfg.MQTT.Enabled {
		t.Errorf("mqtt should be disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VD_SERVER__ADDRESS", ":7000")
	t.Setenv("VD_DISPATCH__CALL_MATCH_WINDOW_SECONDS", "30")
	path := writeConfig(t, "config.json", `{"server":{"address":":9000"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Address != ":7000" {
		t.Errorf("env override not applied: %s", cfg.Server.Address)
	}
	if cfg.Dispatch.CallMatchWindowSeconds != 30 {
		t.Errorf("env override not applied: %d", cfg.Dispatch.CallMatchWindowSeconds)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"mqtt without broker": "mqtt:\n  enabled: true\n",
		"duplicate units":     "fleet:\n  units:\n    - id: 1\n      battery: 50\n    - id: 1\n      battery: 60\n",
		"bad origin":          "server:\n  allowed_origins: [\"localhost\"]\n",
		"negative history":    "transcript:\n  history_size: -1\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.yaml", data)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
