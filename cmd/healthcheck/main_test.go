package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	ready := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, probe(srv.URL+"/readyz", time.Second))

	ready = false
	err := probe(srv.URL+"/readyz", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEnvOr(t *testing.T) {
	t.Setenv("SIP_HEALTHCHECK_URL", "")
	assert.Equal(t, defaultURL, envOr("SIP_HEALTHCHECK_URL", defaultURL))

	t.Setenv("SIP_HEALTHCHECK_URL", "http://sip:9000/livez")
	assert.Equal(t, "http://sip:9000/livez", envOr("SIP_HEALTHCHECK_URL", defaultURL))
}
