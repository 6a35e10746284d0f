package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func SetupRoutes(handler *Handler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", handler.Root).Methods("GET")
	router.HandleFunc("/formats", handler.GetFormats).Methods("GET")
	router.HandleFunc("/download", handler.Download).Methods("GET")
	router.HandleFunc("/files/{name}", handler.ServeFile).Methods("GET")
	router.HandleFunc("/file/{name}", handler.ServeFile).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/request", handler.SubmitRequest).Methods("POST")
	api.HandleFunc("/requests/{id}", handler.GetRequest).Methods("GET")
	api.HandleFunc("/requests/{id}", handler.CancelRequest).Methods("DELETE")
	api.HandleFunc("/requests/{id}/events", handler.Events).Methods("GET")
	api.HandleFunc("/versions", handler.GetVersions).Methods("GET")
	api.HandleFunc("/yt-dlp/version", handler.GetUpdateInfo).Methods("GET")
	api.HandleFunc("/yt-dlp/update", handler.UpdateYtDlp).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})
	return c.Handler(router)
}
