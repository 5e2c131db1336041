package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipcass/sipcass/pkg/authz"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func serveAs(t *testing.T, h http.Handler, method, path string, p *authz.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if p != nil {
		req = req.WithContext(authz.WithPrincipal(req.Context(), *p))
	}
	rr := httptest.NewRecorder()
	middleware.RequestID(h).ServeHTTP(rr, req)
	return rr
}

func listAll(t *testing.T, store *AuditStore) []AuditEvent {
	t.Helper()
	events, _, _, err := store.ListFiltered(context.Background(), ListFilter{}, 100, "")
	require.NoError(t, err)
	return events
}

func TestAuditMiddlewareRecordsMutations(t *testing.T) {
	store, _ := setupStore(t)
	mw := AuditMiddleware(store, DefaultAuditConfig(), nil)
	dm := &authz.Principal{EmployeeID: "1", Role: authz.RoleDM, Region: "East"}

	rr := serveAs(t, mw(statusHandler(http.StatusOK)), http.MethodPatch, "/api/aop/7/", dm)
	assert.Equal(t, http.StatusOK, rr.Code)

	events := listAll(t, store)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "1", e.Actor)
	assert.Equal(t, "DM", e.ActorRole)
	assert.Equal(t, "aop", e.Resource)
	assert.Equal(t, "update", e.Action)
	assert.Equal(t, []string{"7"}, []string(e.ResourceIDs))
	assert.Equal(t, OutcomeSuccess, e.Outcome)
	assert.NotEmpty(t, e.RequestID)
	assert.Equal(t, e.RequestID, e.CorrelationID)
	assert.Equal(t, "PATCH", e.Metadata["method"])
}

func TestAuditMiddlewareSkipsReads(t *testing.T) {
	store, _ := setupStore(t)
	mw := AuditMiddleware(store, DefaultAuditConfig(), nil)

	serveAs(t, mw(statusHandler(http.StatusOK)), http.MethodGet, "/api/raw-data/", nil)
	assert.Empty(t, listAll(t, store))
}

func TestAuditMiddlewareOutcomes(t *testing.T) {
	store, _ := setupStore(t)
	seller := &authz.Principal{EmployeeID: "9", Role: authz.RoleSeller}

	cfg := DefaultAuditConfig()
	mw := AuditMiddleware(store, cfg, nil)
	serveAs(t, mw(statusHandler(http.StatusForbidden)), http.MethodPost, "/api/upload/", seller)
	serveAs(t, mw(statusHandler(http.StatusBadRequest)), http.MethodPost, "/api/upload/", seller)

	events := listAll(t, store)
	require.Len(t, events, 2)
	outcomes := []string{events[0].Outcome, events[1].Outcome}
	assert.ElementsMatch(t, []string{OutcomeDenied, OutcomeFailure}, outcomes)

	cfg.LogDenied = false
	serveAs(t, mw(statusHandler(http.StatusForbidden)), http.MethodPost, "/api/upload/", seller)
	assert.Len(t, listAll(t, store), 2)
}

func TestAuditMiddlewareDisabled(t *testing.T) {
	store, _ := setupStore(t)
	cfg := DefaultAuditConfig()
	cfg.Enabled = false

	rr := serveAs(t, AuditMiddleware(store, cfg, nil)(statusHandler(http.StatusCreated)), http.MethodPost, "/api/upload/", nil)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, listAll(t, store))
}

func TestAuditMiddlewareCorrelationHeader(t *testing.T) {
	store, _ := setupStore(t)
	mw := AuditMiddleware(store, DefaultAuditConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/aop/upload/", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	mw(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), req)

	events := listAll(t, store)
	require.Len(t, events, 1)
	assert.Equal(t, "corr-1", events[0].CorrelationID)
	assert.Equal(t, "anonymous", events[0].Actor)
}

func TestOutcomeFromStatus(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcomeFromStatus(201))
	assert.Equal(t, OutcomeDenied, outcomeFromStatus(401))
	assert.Equal(t, OutcomeDenied, outcomeFromStatus(403))
	assert.Equal(t, OutcomeFailure, outcomeFromStatus(404))
	assert.Equal(t, OutcomeFailure, outcomeFromStatus(500))
}
