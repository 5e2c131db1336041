package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// ListEventsHandler handles GET /api/audit/v1/events
// Query params: actor, resource, action, outcome, pageSize, pageToken
func ListEventsHandler(store *AuditStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{
			Actor:    q.Get("actor"),
			Resource: q.Get("resource"),
			Action:   q.Get("action"),
			Outcome:  q.Get("outcome"),
		}

		pageSize := 20
		if ps := q.Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		pageToken := q.Get("pageToken")
		if pageToken != "" {
			if _, err := time.Parse(time.RFC3339Nano, pageToken); err != nil {
				writeError(w, http.StatusBadRequest, "invalid pageToken")
				return
			}
		}

		records, nextToken, total, err := store.ListFiltered(r.Context(), filter, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}

		events := make([]auditEventResponse, len(records))
		for i, rec := range records {
			events[i] = recordToResponse(rec)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"events":        events,
			"nextPageToken": nextToken,
			"totalSize":     total,
		})
	}
}

// GetEventHandler handles GET /api/audit/v1/events/{eventId}
func GetEventHandler(store *AuditStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventId")
		if eventID == "" {
			writeError(w, http.StatusBadRequest, "missing event ID")
			return
		}

		record, err := store.GetByID(r.Context(), eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit event: %v", err))
			return
		}
		if record == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("audit event %q not found", eventID))
			return
		}

		writeJSON(w, http.StatusOK, recordToResponse(*record))
	}
}

type auditEventResponse struct {
	ID            string         `json:"id"`
	CorrelationID string         `json:"correlationId,omitempty"`
	RequestID     string         `json:"requestId,omitempty"`
	Actor         string         `json:"actor"`
	ActorRole     string         `json:"actorRole,omitempty"`
	Resource      string         `json:"resource,omitempty"`
	ResourceIDs   []string       `json:"resourceIds,omitempty"`
	Action        string         `json:"action,omitempty"`
	Outcome       string         `json:"outcome"`
	StatusCode    int            `json:"statusCode,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"createdAt"`
}

func recordToResponse(rec AuditEvent) auditEventResponse {
	return auditEventResponse{
		ID:            rec.ID,
		CorrelationID: rec.CorrelationID,
		RequestID:     rec.RequestID,
		Actor:         rec.Actor,
		ActorRole:     rec.ActorRole,
		Resource:      rec.Resource,
		ResourceIDs:   []string(rec.ResourceIDs),
		Action:        rec.Action,
		Outcome:       rec.Outcome,
		StatusCode:    rec.StatusCode,
		Metadata:      map[string]any(rec.Metadata),
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
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
