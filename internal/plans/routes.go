// internal/plans/routes.go

package plans

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers plan routes. Reads need a login, writes need admin.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/plans").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("", handler.ListPlans).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetPlan).Methods("GET")

	admin := api.NewRoute().Subrouter()
	admin.Use(authMiddleware.RequireAdmin)
	admin.HandleFunc("", handler.CreatePlan).Methods("POST")
	admin.HandleFunc("/{id:[0-9]+}", handler.UpdatePlan).Methods("PATCH")
	admin.HandleFunc("/{id:[0-9]+}", handler.DeletePlan).Methods("DELETE")
}
