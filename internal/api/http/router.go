// Package http exposes the back-office REST API: session lifecycle,
// profile/permission reads and image uploads.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/service"
)

// NewRouter wires all endpoints under the /api prefix.
func NewRouter(auth *service.Auth, uploads *service.Upload, maxUploadFiles int, l *logger.Logger) http.Handler {
	validate := validator.New()
	authHandler := NewAuthHandler(auth, validate, l)
	uploadHandler := NewUploadHandler(uploads, maxUploadFiles, l)

	r := chi.NewRouter()
	r.Use(requestLogger(l))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/verify-otp", authHandler.VerifyOTP)
			r.Post("/refresh-token", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate(auth.TokenService()))

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", authHandler.Profile)
				r.Get("/profile/permissions", authHandler.Permissions)
			})

			r.Route("/upload", func(r chi.Router) {
				r.Post("/single", uploadHandler.Single)
				r.Post("/multiple", uploadHandler.Multiple)
			})
		})
	})

	return r
}
