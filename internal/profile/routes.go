// internal/profile/routes.go

package profile

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers all profile routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/user-profiles").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.ListProfiles).Methods("GET")
	api.HandleFunc("", handler.CreateProfile).Methods("POST")
	api.HandleFunc("/me", handler.GetMyProfile).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetProfile).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.UpdateProfile).Methods("PATCH")
	api.HandleFunc("/{id:[0-9]+}", handler.DeleteProfile).Methods("DELETE")
}
