package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and serves canned responses.
type fakeAPI struct {
	t        *testing.T
	lastAuth string
	lastBody map[string]any
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid employee id or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"tok-1","refresh":"ref-1","user":{"employee_id":"1","name":"Asha","role":"DM","region":"East"}}`))
	})
	mux.HandleFunc("/api/raw-data/", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[{"Emp ID":"7","Emp Name":"Ravi","Region":"East","Revenue":800,"GP":100,"SIP Payout Amount":250,"Approval":"Done","SIP Paid":"Yes","Role":"Seller"}],"totals":{"Revenue":800,"GP":100,"SIP Payout Amount":250}}`))
	})
	mux.HandleFunc("/api/summary/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "West", r.URL.Query().Get("region"))
		_, _ = w.Write([]byte(`{"paid_total":1500.5,"pending_approvals":2,"success_rate":66.67}`))
	})
	mux.HandleFunc("/api/aop/12/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodPatch, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		_, _ = w.Write([]byte(`{"id":12,"target":1150,"growth_percent":15}`))
	})
	mux.HandleFunc("/api/pdf/7/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.3 fake"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"alive","uptime":"5s"}`))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not_ready"}`))
	})
	return mux
}

func setup(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	t.Setenv("SIPCTL_SESSION", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("SIPCTL_TOKEN", "")
	tokenFlag = ""
	return api, srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoginStoresSessionAndSendsToken(t *testing.T) {
	api, url := setup(t)

	out, err := run(t, "--server", url, "login", "--id", "1", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Asha (1, DM)")

	s, err := loadSession()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ref-1", s.Refresh)

	out, err = run(t, "--server", url, "-o", "table", "records")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", api.lastAuth)
	assert.Contains(t, out, "Ravi")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "250.00")
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	_, url := setup(t)
	_, err := run(t, "--server", url, "login", "--id", "1", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid employee id or password")
}

func TestSummaryJSON(t *testing.T) {
	_, url := setup(t)
	out, err := run(t, "--server", url, "--token", "x", "-o", "json", "summary", "--region", "West")
	require.NoError(t, err)

	var s summaryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.PendingApprovals)
	assert.InDelta(t, 66.67, s.SuccessRate, 0.001)
}

func TestAOPUpdateSendsOnlyChangedFields(t *testing.T) {
	api, url := setup(t)
	out, err := run(t, "--server", url, "--token", "x", "-o", "table", "aop", "update", "12", "--growth", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "Target 12 updated: 1150.00")
	assert.Equal(t, map[string]any{"growth_percent": "15"}, api.lastBody)
}

func TestSlipWritesFile(t *testing.T) {
	_, url := setup(t)
	path := filepath.Join(t.TempDir(), "slip.pdf")
	_, err := run(t, "--server", url, "--token", "x", "slip", "7", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 fake", string(data))
}

func TestHealthReportsNotReady(t *testing.T) {
	_, url := setup(t)
	out, err := run(t, "--server", url, "-o", "yaml", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "status: alive")
	assert.Contains(t, out, "status: not_ready")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", errorMessage([]byte(`{"error":"bad"}`)))
	assert.Equal(t, "details", errorMessage([]byte(`{"error":"forbidden","message":"details"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text\n")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
