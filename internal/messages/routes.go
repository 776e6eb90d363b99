// internal/messages/routes.go

package messages

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers message routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/messages").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.ListMessages).Methods("GET")
	api.HandleFunc("", handler.SendMessage).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}", handler.GetMessage).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.UpdateMessage).Methods("PATCH")
	api.HandleFunc("/{id:[0-9]+}", handler.DeleteMessage).Methods("DELETE")
}
