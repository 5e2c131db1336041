package aop

import (
	"github.com/go-chi/chi/v5"

	"github.com/sipcass/sipcass/pkg/authz"
)

// Router creates a chi.Router for the AOP API. It expects an authenticated
// principal; uploads are limited to DM and AM.
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()

	r.Get("/", ListHandler(svc))
	r.With(authz.RequireRole(authz.RoleDM, authz.RoleAM)).Post("/upload/", UploadHandler(svc))
	r.Patch("/{id}/", UpdateHandler(svc))

	return r
}
