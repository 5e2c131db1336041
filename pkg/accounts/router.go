package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sipcass/sipcass/pkg/authz"
)

// AuthRouter creates a chi.Router for the session API. Login, refresh and
// logout are public; /me runs behind authenticate.
func AuthRouter(auth *Authenticator, authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", LoginHandler(auth))
	r.Post("/refresh", RefreshHandler(auth))
	r.Post("/logout", LogoutHandler(auth))
	r.With(authenticate).Get("/me", MeHandler())

	return r
}

// Router creates a chi.Router for account administration. It expects an
// authenticated principal; roster uploads are limited to DM.
func Router(importer *RosterImporter) chi.Router {
	r := chi.NewRouter()

	r.With(authz.RequireRole(authz.RoleDM)).Post("/upload/", RosterUploadHandler(importer))

	return r
}
