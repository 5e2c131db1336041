package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sipcass/sipcass/pkg/authz"
)

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// AuditMiddleware creates middleware that records an AuditEvent for every
// mutating request once the handler completes. It must run after
// authz.Authenticate so the actor is known.
func AuditMiddleware(store *AuditStore, cfg *AuditConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !isAuditedRequest(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()
			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(capture, r)

			statusCode := capture.statusCode
			outcome := outcomeFromStatus(statusCode)
			if outcome == OutcomeDenied && !cfg.LogDenied {
				return
			}

			ctx := r.Context()
			actor, role := "anonymous", ""
			if p, ok := authz.PrincipalFromContext(ctx); ok {
				actor, role = p.EmployeeID, string(p.Role)
			}

			requestID := middleware.GetReqID(ctx)
			correlationID := r.Header.Get("X-Correlation-ID")
			if correlationID == "" {
				correlationID = requestID
			}

			event := &AuditEvent{
				ID:            uuid.New().String(),
				CorrelationID: correlationID,
				RequestID:     requestID,
				Actor:         actor,
				ActorRole:     role,
				Resource:      extractResource(r.URL.Path),
				ResourceIDs:   datatypes.JSONSlice[string](extractResourceIDs(r.URL.Path)),
				Action:        extractAction(r.Method, r.URL.Path),
				Outcome:       outcome,
				StatusCode:    statusCode,
				CreatedAt:     startTime,
				Metadata: datatypes.JSONMap{
					"method":   r.Method,
					"path":     r.URL.Path,
					"duration": time.Since(startTime).String(),
				},
			}

			// Best-effort write: don't fail the request if audit write fails.
			if err := store.Append(ctx, event); err != nil {
				logger.Error("failed to write audit event", "error", err, "requestID", requestID)
			}
		})
	}
}

// outcomeFromStatus maps HTTP status codes to audit outcomes.
func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return OutcomeSuccess
	case code == http.StatusForbidden || code == http.StatusUnauthorized:
		return OutcomeDenied
	default:
		return OutcomeFailure
	}
}
