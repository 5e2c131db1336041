package payout

import (
	"github.com/go-chi/chi/v5"

	"github.com/sipcass/sipcass/pkg/authz"
)

// Router creates a chi.Router for the payout API. Every route expects the
// Authenticate middleware to have attached a principal; uploads are further
// limited to DM and AM.
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()

	r.With(authz.RequireRole(authz.RoleDM, authz.RoleAM)).Post("/upload/", UploadHandler(svc))
	r.Get("/raw-data/", RawDataHandler(svc))
	r.Get("/summary/", SummaryHandler(svc))
	r.Get("/pdf/{empID}/", SlipHandler(svc))
	r.Get("/latest-file/", LatestFileHandler(svc))

	return r
}
