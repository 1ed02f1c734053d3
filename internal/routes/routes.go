package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/winter-backend/internal/handlers"
	"github.com/AnshRaj112/winter-backend/internal/middleware"
)

// SetupRoutes mounts the auth endpoints under the configured URL prefix,
// e.g. /api/v1/auth/signup.
func SetupRoutes(r *chi.Mux, apiURL string, auth *handlers.AuthHandler, guard *middleware.AuthGuard) {
	r.Route("/"+apiURL+"/auth", func(r chi.Router) {
		r.Post("/signup", auth.SignUp)
		r.Post("/signin", auth.SignIn)
		r.Get("/signout", auth.SignOut)
		r.Post("/forgot-password", auth.ForgotPassword)
		r.Post("/reset-password/{token}", auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(guard.Authenticate)
			r.Use(guard.Authorize)
			r.Get("/currentuser", auth.CurrentUser)
		})
	})
}
