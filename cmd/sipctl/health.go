package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health and readiness",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client := newClient()

	var healthResp map[string]any
	if err := client.getJSON("/healthz", &healthResp); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	var readyResp map[string]any
	if err := client.getJSON("/readyz", &readyResp); err != nil {
		// A not-ready server answers 503 with the component breakdown.
		var apiErr *apiError
		readyResp = map[string]any{"status": "not_ready", "error": err.Error()}
		if !errors.As(err, &apiErr) {
			readyResp["status"] = "unknown"
		}
	}

	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, map[string]any{
			"health":    healthResp,
			"readiness": readyResp,
		})
	}

	status, _ := healthResp["status"].(string)
	uptime, _ := healthResp["uptime"].(string)
	ready, _ := readyResp["status"].(string)

	rows := [][]string{
		{"Liveness", status},
		{"Uptime", uptime},
		{"Readiness", ready},
	}
	if components, ok := readyResp["components"].(map[string]any); ok {
		for _, name := range []string{"database", "storage", "redis"} {
			if c, ok := components[name].(map[string]any); ok {
				s, _ := c["status"].(string)
				rows = append(rows, []string{"  " + name, s})
			}
		}
	}
	printTable(out, []string{"Check", "Status"}, rows)
	return nil
}
