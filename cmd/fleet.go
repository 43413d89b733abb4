package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/voicedispatch/config"
	"github.com/kilianp07/voicedispatch/core/model"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the configured fleet, or the units of a running service with --server",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

type fleetStatus struct {
	TotalDrones int                   `json:"total_drones"`
	Available   int                   `json:"available"`
	Drones      map[string]model.Unit `json:"drones"`
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("server") {
		return printSeedFleet(cmd)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL + "/drones")
	if err != nil {
		return fmt.Errorf("fleet status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fleet status: unexpected status %s", resp.Status)
	}
	var st fleetStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode fleet status: %w", err)
	}

	units := make([]model.Unit, 0, len(st.Drones))
	for _, u := range st.Drones {
		units = append(units, u)
	}
	printUnits(cmd, units)
	fmt.Fprintf(cmd.OutOrStdout(), "%d/%d available\n", st.Available, st.TotalDrones)
	return nil
}

func printSeedFleet(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	units := make([]model.Unit, 0, len(cfg.Fleet.Units))
	for _, u := range cfg.Fleet.Units {
		units = append(units, model.Unit{ID: u.ID, Status: model.UnitAvailable, Battery: u.Battery, Location: u.Location})
	}
	printUnits(cmd, units)
	return nil
}

func printUnits(cmd *cobra.Command, units []model.Unit) {
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	out := cmd.OutOrStdout()
	for _, u := range units {
		fmt.Fprintf(out, "%-4s %-10s %3d%%  %s\n", strconv.Itoa(u.ID), u.Status, u.Battery, u.Location)
	}
}
