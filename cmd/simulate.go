package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/voicedispatch/config"
	"github.com/kilianp07/voicedispatch/infra/logger"
	"github.com/kilianp07/voicedispatch/simulator"
)

var (
	simAckLatency time.Duration
	simDropRate   float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated units that acknowledge missions over MQTT",
	RunE:  runSimulator,
}

func init() {
	simulateCmd.Flags().DurationVar(&simAckLatency, "ack-latency", 0, "delay before each acknowledgment")
	simulateCmd.Flags().Float64Var(&simDropRate, "drop-rate", 0, "probability of dropping an acknowledgment")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulator(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ids := make([]int, 0, len(cfg.Fleet.Units))
	for _, u := range cfg.Fleet.Units {
		ids = append(ids, u.ID)
	}
	return simulator.RunFleet(ctx, simulator.Config{
		Broker:       cfg.MQTT.Broker,
		UnitIDs:      ids,
		MissionTopic: cfg.MQTT.MissionTopic,
		AckTopic:     ackPublishTopic(cfg.MQTT.AckTopic),
		AckLatency:   simAckLatency,
		DropRate:     simDropRate,
	}, logger.New("simulator"))
}

// ackPublishTopic turns the dispatcher's ack subscription filter into the
// per-unit topic a unit publishes on.
func ackPublishTopic(filter string) string {
	return strings.Replace(filter, "+", "%d", 1)
}
