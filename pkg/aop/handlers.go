package aop

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/sheet"
	"github.com/sipcass/sipcass/pkg/uploads"
)

// UploadHandler handles POST /api/aop/upload/
func UploadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := authz.PrincipalFromContext(r.Context())

		filename, data, err := uploads.ReadMultipart(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		n, err := svc.Ingest(r.Context(), filename, data, p.EmployeeID)
		if err != nil {
			if sheet.IsValidationError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to process upload: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"message":      "AOP targets replaced",
			"target_count": n,
		})
	}
}

// ListHandler handles GET /api/aop/
func ListHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := authz.PrincipalFromContext(r.Context())

		targets, err := svc.VisibleTo(r.Context(), p)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list targets: %v", err))
			return
		}

		resp := make([]targetResponse, len(targets))
		for i := range targets {
			resp[i] = targetToResponse(&targets[i])
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// UpdateHandler handles PATCH /api/aop/{id}/
func UpdateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := authz.PrincipalFromContext(r.Context())

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target ID")
			return
		}

		var patch Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		t, err := svc.Update(r.Context(), p, uint(id), patch)
		switch {
		case errors.Is(err, ErrTargetNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("target %d not found", id))
			return
		case errors.Is(err, ErrOutOfScope):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update target: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, targetToResponse(t))
	}
}

// targetResponse is the API response for an AOP target.
type targetResponse struct {
	ID            uint     `json:"id"`
	ShipTo        string   `json:"ship_to"`
	PYActuals     float64  `json:"py_actuals"`
	GrowthPercent *float64 `json:"growth_percent"`
	Target        float64  `json:"target"`
	EmployeeID    string   `json:"employee_id"`
	Region        string   `json:"region"`
	Comments      string   `json:"comments"`
	UploadedAt    string   `json:"uploaded_at"`
}

func targetToResponse(t *Target) targetResponse {
	resp := targetResponse{
		ID:         t.ID,
		ShipTo:     t.ShipTo,
		PYActuals:  t.PYActuals.InexactFloat64(),
		Target:     t.Target.InexactFloat64(),
		EmployeeID: t.EmployeeID,
		Region:     t.Region,
		Comments:   t.Comments,
		UploadedAt: t.UploadedAt.Format(time.RFC3339),
	}
	if t.GrowthPercent.Valid {
		g := t.GrowthPercent.Decimal.InexactFloat64()
		resp.GrowthPercent = &g
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
