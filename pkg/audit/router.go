package audit

import (
	"github.com/go-chi/chi/v5"

	"github.com/sipcass/sipcass/pkg/authz"
)

// Router creates a chi.Router for the audit API. The trail is readable by
// DMs only; requests must already be authenticated.
func Router(store *AuditStore) chi.Router {
	r := chi.NewRouter()
	r.Use(authz.RequireRole(authz.RoleDM))

	r.Get("/events", ListEventsHandler(store))
	r.Get("/events/{eventId}", GetEventHandler(store))

	return r
}
