package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipcass/sipcass/internal/testutil"
	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/cache"
	"github.com/sipcass/sipcass/pkg/sheet"
	"github.com/sipcass/sipcass/pkg/uploads"
)

type staticRoles map[string]authz.Role

func (s staticRoles) RoleMap(context.Context) (map[string]authz.Role, error) { return s, nil }

type fakeRenderer struct{ last Slip }

func (f *fakeRenderer) RenderSlip(s Slip) ([]byte, error) {
	f.last = s
	return []byte("%PDF-fake " + s.EmployeeID), nil
}

type testEnv struct {
	svc      *Service
	store    *uploads.UploadStore
	files    *uploads.FileStorage
	renderer *fakeRenderer
}

func newTestEnv(t *testing.T, roles staticRoles) *testEnv {
	t.Helper()
	db := testutil.NewDB(t, &uploads.UploadedTable{})
	files, err := uploads.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	store := uploads.NewUploadStore(db)
	renderer := &fakeRenderer{}
	return &testEnv{
		svc:      NewService(store, files, roles, renderer, nil),
		store:    store,
		files:    files,
		renderer: renderer,
	}
}

func scenarioWorkbook(t *testing.T) []byte {
	return testutil.Workbook(t, testutil.PayoutHeader,
		[]any{1, "Asha", "East", 1000, 300, 500, "Done", "Yes"},
		[]any{2, "Ravi", "East", 800, 100, 0, "Not yet", "No"},
	)
}

var scenarioRoles = staticRoles{"1": authz.RoleDM, "2": authz.RoleSeller}

func TestIngestRejectsBadUploadsWithoutPersisting(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	ctx := context.Background()

	_, err := env.svc.Ingest(ctx, "payout.csv", scenarioWorkbook(t), "1")
	assert.ErrorIs(t, err, sheet.ErrUnsupportedFileType)

	partial := testutil.Workbook(t, []any{"Emp ID", "Emp Name", "Region"}, []any{1, "Asha", "East"})
	_, err = env.svc.Ingest(ctx, "payout.xlsx", partial, "1")
	var missing *sheet.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Missing, ColPayout)

	active, err := env.store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	entries, err := os.ReadDir(env.files.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestReplacesSameName(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	ctx := context.Background()
	dm := authz.Principal{EmployeeID: "1", Role: authz.RoleDM, Region: "East"}

	_, err := env.svc.Ingest(ctx, "payout.xlsx", scenarioWorkbook(t), "1")
	require.NoError(t, err)

	updated := testutil.Workbook(t, testutil.PayoutHeader,
		[]any{2, "Ravi", "East", 800, 100, 250, "Done", "Yes"},
	)
	_, err = env.svc.Ingest(ctx, "payout.xlsx", updated, "1")
	require.NoError(t, err)

	rows, err := env.svc.VisibleTo(ctx, dm, "")
	require.NoError(t, err)
	require.Len(t, rows, 1, "the earlier same-name upload is no longer active")
	assert.Equal(t, "250", rows[0].PayoutAmount.String())
}

func TestConsolidatedAcrossFilesNewestWins(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	ctx := context.Background()

	_, err := env.svc.Ingest(ctx, "january.xlsx", scenarioWorkbook(t), "1")
	require.NoError(t, err)
	_, err = env.svc.Ingest(ctx, "february.xlsx", testutil.Workbook(t, testutil.PayoutHeader,
		[]any{"2.0", "Ravi K", "East", 900, 100, 75, "Done", "Yes"},
		[]any{3, "Mina", "West", 10, 1, 5, "Done", "No"},
	), "1")
	require.NoError(t, err)

	view, err := env.svc.Consolidated(ctx)
	require.NoError(t, err)
	require.Len(t, view, 3)

	byID := map[string]EmployeeRecord{}
	for _, r := range view {
		byID[r.EmployeeID] = r
	}
	assert.Equal(t, "Ravi K", byID["2"].Name)
	assert.Equal(t, "Asha", byID["1"].Name)
}

func TestConsolidatedSkipsMissingFiles(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	ctx := context.Background()

	rec, err := env.svc.Ingest(ctx, "gone.xlsx", scenarioWorkbook(t), "1")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(env.files.Root(), rec.Path)))

	view, err := env.svc.Consolidated(ctx)
	require.NoError(t, err)
	assert.Empty(t, view)
}

func TestConsolidatedUsesTableCache(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	env.svc.UseTableCache(cache.NewLRU[string, SourceTable](8, time.Hour))
	ctx := context.Background()

	rec, err := env.svc.Ingest(ctx, "cached.xlsx", scenarioWorkbook(t), "1")
	require.NoError(t, err)

	first, err := env.svc.Consolidated(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Once parsed, the table is served from the cache even if the file goes away.
	require.NoError(t, os.Remove(filepath.Join(env.files.Root(), rec.Path)))
	second, err := env.svc.Consolidated(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderSlipScopedToCaller(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	ctx := context.Background()
	_, err := env.svc.Ingest(ctx, "payout.xlsx", scenarioWorkbook(t), "1")
	require.NoError(t, err)

	seller := authz.Principal{EmployeeID: "2", Role: authz.RoleSeller, Region: "East"}
	_, err = env.svc.RenderSlip(ctx, seller, "1")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	doc, err := env.svc.RenderSlip(ctx, seller, "2.0")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
	assert.Equal(t, "Ravi", env.renderer.last.Name)
	assert.Equal(t, "Seller", env.renderer.last.Role)
}

// withPrincipal injects p the way the Authenticate middleware does.
func withPrincipal(p authz.Principal, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), p)))
	})
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func serve(t *testing.T, env *testEnv, p authz.Principal, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	withPrincipal(p, Router(env.svc)).ServeHTTP(rr, req)
	return rr
}

func upload(t *testing.T, env *testEnv, p authz.Principal, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", ct)
	return serve(t, env, p, req)
}

func TestEndToEndSummaries(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	dm := authz.Principal{EmployeeID: "1", Role: authz.RoleDM, Region: "East"}
	seller := authz.Principal{EmployeeID: "2", Role: authz.RoleSeller, Region: "East"}

	rr := upload(t, env, dm, "payout.xlsx", scenarioWorkbook(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var up map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&up))
	assert.Equal(t, true, up["success"])
	assert.Equal(t, float64(2), up["employee_count"])

	tests := []struct {
		name    string
		p       authz.Principal
		paid    float64
		pending int
		rate    float64
	}{
		{"dm in east", dm, 500, 1, 50.0},
		{"seller sees own row", seller, 0, 1, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, env, tt.p, httptest.NewRequest(http.MethodGet, "/summary/", nil))
			require.Equal(t, http.StatusOK, rr.Code)

			var got summaryResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, tt.paid, got.PaidTotal)
			assert.Equal(t, tt.pending, got.PendingApprovals)
			assert.Equal(t, tt.rate, got.SuccessRate)
		})
	}
}

func TestUploadForbiddenForSeller(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	seller := authz.Principal{EmployeeID: "2", Role: authz.RoleSeller, Region: "East"}

	rr := upload(t, env, seller, "payout.xlsx", scenarioWorkbook(t))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUploadValidationErrors(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	dm := authz.Principal{EmployeeID: "1", Role: authz.RoleDM}

	rr := upload(t, env, dm, "payout.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "only .xlsx allowed")

	rr = upload(t, env, dm, "payout.xlsx", testutil.Workbook(t, []any{"Emp ID"}, []any{1}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "missing columns")

	req := httptest.NewRequest(http.MethodPost, "/upload/", nil)
	rr = serve(t, env, dm, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no file uploaded")
}

func TestRawDataHandler(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	dm := authz.Principal{EmployeeID: "1", Role: authz.RoleDM}

	rr := serve(t, env, dm, httptest.NewRequest(http.MethodGet, "/raw-data/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.Equal(t, http.StatusOK, upload(t, env, dm, "payout.xlsx", scenarioWorkbook(t)).Code)

	rr = serve(t, env, dm, httptest.NewRequest(http.MethodGet, "/raw-data/?region=EAST", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Data   []rowResponse      `json:"data"`
		Totals map[string]float64 `json:"totals"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got.Data, 2)
	assert.Equal(t, 1800.0, got.Totals["Revenue"])
	assert.Equal(t, 400.0, got.Totals["GP"])
	assert.Equal(t, 500.0, got.Totals["SIP Payout Amount"])

	rr = serve(t, env, dm, httptest.NewRequest(http.MethodGet, "/raw-data/?region=West", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSlipHandler(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	dm := authz.Principal{EmployeeID: "1", Role: authz.RoleDM, Region: "East"}
	seller := authz.Principal{EmployeeID: "2", Role: authz.RoleSeller, Region: "East"}
	require.Equal(t, http.StatusOK, upload(t, env, dm, "payout.xlsx", scenarioWorkbook(t)).Code)

	rr := serve(t, env, seller, httptest.NewRequest(http.MethodGet, "/pdf/2/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "sip_slip_2.pdf")

	rr = serve(t, env, seller, httptest.NewRequest(http.MethodGet, "/pdf/1/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLatestFileHandler(t *testing.T) {
	env := newTestEnv(t, scenarioRoles)
	dm := authz.Principal{EmployeeID: "1", Role: authz.RoleDM}

	rr := serve(t, env, dm, httptest.NewRequest(http.MethodGet, "/latest-file/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.Equal(t, http.StatusOK, upload(t, env, dm, "payout.xlsx", scenarioWorkbook(t)).Code)

	rr = serve(t, env, dm, httptest.NewRequest(http.MethodGet, "/latest-file/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "payout.xlsx", got["filename"])
	assert.NotEmpty(t, got["uploaded_at"])
}

