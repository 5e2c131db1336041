// Package main provides a minimal probe binary for container health checks
// against sip-server. It exits 0 when the probed endpoint answers 2xx and 1
// otherwise.
//
// Usage: healthcheck [--url http://localhost:8000/readyz] [--timeout 5s]
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
)

const defaultURL = "http://localhost:8000/readyz"

func main() {
	url := pflag.String("url", envOr("SIP_HEALTHCHECK_URL", defaultURL), "endpoint to probe")
	timeout := pflag.Duration("timeout", 5*time.Second, "request timeout")
	pflag.Parse()

	if err := probe(*url, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
}

func probe(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
