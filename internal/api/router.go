/**
 * @description
 * This file sets up the HTTP router for the bank-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the bank service.
func Routes(h *BankHandlers, jwtSecret, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require admin authentication.
	r.Group(func(r chi.Router) {
		r.Use(AdminAuthMiddleware(jwtSecret, internalAPIKey))

		// Admin directory endpoints
		r.Get("/admins", h.ListAdminsHandler)
		r.Post("/admins", h.CreateAdminHandler)
		r.Get("/admins/{id}", h.FindAdminHandler)
		r.Post("/admins/actions", h.AdminActionsHandler)

		// User management endpoints
		r.Get("/users", h.ListUsersHandler)
		r.Post("/users", h.RegisterUserHandler)
		r.Get("/users/{id}", h.FindUserHandler)
		r.Put("/users/{id}", h.UpdateUserHandler)
		r.Post("/users/{id}/actions", h.UserActionsHandler)
		r.Delete("/users/{id}", h.DeleteUserHandler)

		// Money movement action dispatcher
		r.Post("/transactions/actions", h.TransactionActionsHandler)
	})

	return r
}
