package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/sheet"
	"github.com/sipcass/sipcass/pkg/uploads"
)

type loginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// LoginHandler handles POST /api/auth/login
func LoginHandler(auth *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.EmployeeID == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "employee_id and password are required")
			return
		}

		session, err := auth.Login(r.Context(), req.EmployeeID, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("login failed: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// RefreshHandler handles POST /api/auth/refresh
func RefreshHandler(auth *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
			writeError(w, http.StatusBadRequest, "refresh token is required")
			return
		}

		session, err := auth.Refresh(r.Context(), req.Refresh)
		if errors.Is(err, authz.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("refresh failed: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// LogoutHandler handles POST /api/auth/logout
func LogoutHandler(auth *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
			writeError(w, http.StatusBadRequest, "refresh token is required")
			return
		}

		err := auth.Logout(r.Context(), req.Refresh)
		if errors.Is(err, authz.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("logout failed: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
	}
}

// MeHandler handles GET /api/auth/me
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authz.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// RosterUploadHandler handles POST /api/accounts/upload/
func RosterUploadHandler(importer *RosterImporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename, data, err := uploads.ReadMultipart(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := importer.Ingest(r.Context(), filename, data)
		if err != nil {
			if sheet.IsValidationError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to import roster: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Roster imported successfully",
			"result":  res,
		})
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
