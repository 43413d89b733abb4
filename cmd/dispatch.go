package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var orderFile string

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Submit a manual order to a running service",
	RunE:  submitOrder,
}

func init() {
	dispatchCmd.Flags().StringVarP(&orderFile, "file", "f", "", "JSON order file (stdin when empty)")
	rootCmd.AddCommand(dispatchCmd)
}

func submitOrder(cmd *cobra.Command, args []string) error {
	var (
		body []byte
		err  error
	)
	if orderFile == "" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(orderFile)
	}
	if err != nil {
		return fmt.Errorf("read order: %w", err)
	}
	if !json.Valid(body) {
		return fmt.Errorf("order is not valid JSON")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(serverURL+"/simulate-order", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dispatch rejected (%s): %v", resp.Status, out["detail"])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "order %v: unit %v, eta %v min, tracking %v\n",
		out["order_id"], out["drone_id"], out["eta_minutes"], out["confirmation_code"])
	return nil
}
