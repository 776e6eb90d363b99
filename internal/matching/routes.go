// internal/matching/routes.go

package matching

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers match routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matches").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.ListMatches).Methods("GET")
	api.HandleFunc("", handler.CreateMatch).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}", handler.GetMatch).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.UpdateMatch).Methods("PATCH")
	api.HandleFunc("/{id:[0-9]+}", handler.DeleteMatch).Methods("DELETE")
}
