// internal/auth/routes.go

package auth

import (
    "net/http"

    "github.com/gorilla/mux"
)

// RegisterRoutes registers all auth and user routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *Middleware) {
    public := router.PathPrefix("/api/auth").Subrouter()
    public.HandleFunc("/register", handler.Register).Methods("POST")
    public.HandleFunc("/login", handler.Login).Methods("POST")
    public.HandleFunc("/google", handler.GoogleAuth).Methods("POST")
    public.HandleFunc("/token", handler.RefreshToken).Methods("POST")
    public.HandleFunc("/reset-password", handler.RequestPasswordReset).Methods("POST")
    public.HandleFunc("/reset-password/{token}", handler.ResetPassword).Methods("POST")
    public.Handle("/logout", authMiddleware.Authenticate(http.HandlerFunc(handler.Logout))).Methods("POST")

    users := router.PathPrefix("/api/v1/users").Subrouter()
    users.Use(authMiddleware.Authenticate)
    users.HandleFunc("/me", handler.Me).Methods("GET")
    users.HandleFunc("/{id:[0-9]+}", handler.UpdateUser).Methods("PATCH")

    admin := users.NewRoute().Subrouter()
    admin.Use(authMiddleware.RequireAdmin)
    admin.HandleFunc("", handler.ListUsers).Methods("GET")
    admin.HandleFunc("/toggle-status", handler.ToggleStatus).Methods("POST")
}
