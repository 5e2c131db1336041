package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	tokenFlag string
)

var rootCmd = &cobra.Command{
	Use:   "sipctl",
	Short: "CLI for the SIP reporting server",
	Long: `sipctl talks to a running sip-server.

Run "sipctl login" once; the access token is kept in the user config
directory and sent with every later command. --token or SIPCTL_TOKEN
override the stored token.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SIPCTL_SERVER", "http://localhost:8000"), "SIP server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Access token (default: SIPCTL_TOKEN or the stored login)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(slipCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(aopCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(healthCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sessionPath is where login stores the session.
func sessionPath() (string, error) {
	if p := os.Getenv("SIPCTL_SESSION"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sipctl", "session.json"), nil
}

// resolvedToken returns the access token to send.
// Priority: --token flag > SIPCTL_TOKEN env var > stored session.
func resolvedToken() string {
	if tokenFlag != "" {
		return tokenFlag
	}
	if t := os.Getenv("SIPCTL_TOKEN"); t != "" {
		return t
	}
	s, err := loadSession()
	if err != nil || s == nil {
		return ""
	}
	return s.Access
}

func baseURL() string {
	return strings.TrimRight(serverURL, "/")
}
