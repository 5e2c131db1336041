package payout

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/sheet"
	"github.com/sipcass/sipcass/pkg/uploads"
)

// UploadHandler handles POST /api/upload/
func UploadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := authz.PrincipalFromContext(r.Context())

		filename, data, err := uploads.ReadMultipart(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := svc.Ingest(r.Context(), filename, data, p.EmployeeID)
		if err != nil {
			if sheet.IsValidationError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to process upload: %v", err))
			return
		}

		rows, err := svc.VisibleTo(r.Context(), p, "")
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load data: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"message":        "File processed successfully",
			"upload_id":      rec.ID,
			"employee_count": len(rows),
		})
	}
}

// RawDataHandler handles GET /api/raw-data/
// Query params: region
func RawDataHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, ok := visibleRows(w, r, svc)
		if !ok {
			return
		}

		data := make([]rowResponse, len(rows))
		for i := range rows {
			data[i] = rowToResponse(rows[i])
		}
		totals := ComputeTotals(rows)

		writeJSON(w, http.StatusOK, map[string]any{
			"data": data,
			"totals": map[string]float64{
				ColRevenue: totals.Revenue.InexactFloat64(),
				ColGP:      totals.GrossProfit.InexactFloat64(),
				ColPayout:  totals.PayoutAmount.InexactFloat64(),
			},
		})
	}
}

// SummaryHandler handles GET /api/summary/
// Query params: region
func SummaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, ok := visibleRows(w, r, svc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, summaryToResponse(Summarize(rows)))
	}
}

// SlipHandler handles GET /api/pdf/{empID}/
func SlipHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := authz.PrincipalFromContext(r.Context())
		empID := authz.NormalizeID(chi.URLParam(r, "empID"))
		if empID == "" {
			writeError(w, http.StatusBadRequest, "missing employee ID")
			return
		}

		doc, err := svc.RenderSlip(r.Context(), p, empID)
		if errors.Is(err, ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "employee not found or access denied")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render slip: %v", err))
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sip_slip_"+empID+".pdf"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}

// LatestFileHandler handles GET /api/latest-file/
func LatestFileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := svc.Latest(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get latest file: %v", err))
			return
		}
		if latest == nil {
			writeError(w, http.StatusNotFound, "no files uploaded yet")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"filename":    latest.OriginalName,
			"uploaded_at": latest.UploadedAt.Format(time.RFC3339),
		})
	}
}

func visibleRows(w http.ResponseWriter, r *http.Request, svc *Service) ([]Row, bool) {
	p, _ := authz.PrincipalFromContext(r.Context())
	rows, err := svc.VisibleTo(r.Context(), p, r.URL.Query().Get("region"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load data: %v", err))
		return nil, false
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, ErrNoData.Error())
		return nil, false
	}
	return rows, true
}

// rowResponse keeps the workbook column names as JSON keys.
type rowResponse struct {
	EmployeeID   string  `json:"Emp ID"`
	Name         string  `json:"Emp Name"`
	Region       string  `json:"Region"`
	Revenue      float64 `json:"Revenue"`
	GrossProfit  float64 `json:"GP"`
	PayoutAmount float64 `json:"SIP Payout Amount"`
	Approval     string  `json:"Approval"`
	Paid         string  `json:"SIP Paid"`
	Role         string  `json:"Role"`
}

func rowToResponse(r Row) rowResponse {
	return rowResponse{
		EmployeeID:   r.EmployeeID,
		Name:         r.Name,
		Region:       r.Region,
		Revenue:      r.Revenue.InexactFloat64(),
		GrossProfit:  r.GrossProfit.InexactFloat64(),
		PayoutAmount: r.PayoutAmount.InexactFloat64(),
		Approval:     r.Approval,
		Paid:         r.Paid,
		Role:         string(r.Role),
	}
}

type summaryResponse struct {
	PaidTotal        float64 `json:"paid_total"`
	PendingApprovals int     `json:"pending_approvals"`
	SuccessRate      float64 `json:"success_rate"`
}

func summaryToResponse(s Summary) summaryResponse {
	return summaryResponse{
		PaidTotal:        s.PaidTotal.InexactFloat64(),
		PendingApprovals: s.PendingApprovals,
		SuccessRate:      s.SuccessRate.Round(2).InexactFloat64(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
