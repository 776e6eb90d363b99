// internal/features/routes.go

package features

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers feature access routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/features-access").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("", handler.ListAccess).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetAccess).Methods("GET")

	admin := api.NewRoute().Subrouter()
	admin.Use(authMiddleware.RequireAdmin)
	admin.HandleFunc("", handler.CreateAccess).Methods("POST")
	admin.HandleFunc("/{id:[0-9]+}", handler.UpdateAccess).Methods("PATCH")
	admin.HandleFunc("/{id:[0-9]+}", handler.DeleteAccess).Methods("DELETE")
}
