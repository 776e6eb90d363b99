// internal/superlikes/routes.go

package superlikes

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers superlike ledger routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/superlikes").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/send", handler.Send).Methods("POST")
	api.HandleFunc("/buy", handler.Buy).Methods("POST")
	api.HandleFunc("/buy/{checkout_request_id}", handler.TopUpStatus).Methods("GET")
	api.HandleFunc("/count", handler.Count).Methods("GET")
	api.HandleFunc("/withdraw", handler.Withdraw).Methods("POST")
	api.HandleFunc("/withdrawals/me", handler.MyWithdrawals).Methods("GET")

	admin := api.NewRoute().Subrouter()
	admin.Use(authMiddleware.RequireAdmin)
	admin.HandleFunc("/withdrawals", handler.ListWithdrawals).Methods("GET")
	admin.HandleFunc("/withdrawals/complete", handler.CompleteWithdrawals).Methods("POST")
}
