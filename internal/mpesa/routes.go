// internal/mpesa/routes.go

package mpesa

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers payment routes. The webhook is public and
// checked by token.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	router.HandleFunc("/api/v1/mpesa/callback", handler.Callback).Methods("POST")

	requests := router.PathPrefix("/api/v1/mpesa-requests").Subrouter()
	requests.Use(authMiddleware.Authenticate)
	requests.HandleFunc("", handler.PayForPlan).Methods("POST")
	requests.HandleFunc("/me", handler.MyRequests).Methods("GET")

	adminRequests := requests.NewRoute().Subrouter()
	adminRequests.Use(authMiddleware.RequireAdmin)
	adminRequests.HandleFunc("", handler.ListRequests).Methods("GET")

	payments := router.PathPrefix("/api/v1/mpesa-payments").Subrouter()
	payments.Use(authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	payments.HandleFunc("", handler.ListPayments).Methods("GET")
	payments.HandleFunc("", handler.CreatePayment).Methods("POST")
	payments.HandleFunc("/{id:[0-9]+}", handler.GetPayment).Methods("GET")
	payments.HandleFunc("/{id:[0-9]+}", handler.UpdatePayment).Methods("PATCH")
	payments.HandleFunc("/{id:[0-9]+}", handler.DeletePayment).Methods("DELETE")
}
