// internal/subscriptions/routes.go

package subscriptions

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers subscription routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/subscriptions").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("", handler.ListSubscriptions).Methods("GET")
	api.HandleFunc("/me", handler.GetMySubscription).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetSubscription).Methods("GET")

	admin := api.NewRoute().Subrouter()
	admin.Use(authMiddleware.RequireAdmin)
	admin.HandleFunc("", handler.CreateSubscription).Methods("POST")
	admin.HandleFunc("/{id:[0-9]+}", handler.UpdateSubscription).Methods("PATCH")
	admin.HandleFunc("/{id:[0-9]+}", handler.DeleteSubscription).Methods("DELETE")
}
