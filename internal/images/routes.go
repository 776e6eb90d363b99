// internal/images/routes.go

package images

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
)

// RegisterRoutes registers image CRUD and upload routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/user-images").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("", handler.ListImages).Methods("GET")
	api.HandleFunc("", handler.CreateImage).Methods("POST")
	api.HandleFunc("/user/{user_id:[0-9]+}", handler.ListUserImages).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetImage).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.UpdateImage).Methods("PATCH")
	api.HandleFunc("/{id:[0-9]+}", handler.DeleteImage).Methods("DELETE")

	uploads := router.PathPrefix("/api/v1/uploads").Subrouter()
	uploads.Use(authMiddleware.Authenticate)
	uploads.HandleFunc("/photos", handler.UploadPhotos).Methods("POST")
	uploads.HandleFunc("/photo", handler.UploadPhoto).Methods("POST")
}
