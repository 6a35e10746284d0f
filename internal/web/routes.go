package web

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
)

func SetupRoutes(handler *Handler, assetsFS fs.FS) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", handler.ServeIndex).Methods("GET")
	router.HandleFunc("/", handler.Submit).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/detect", handler.Detect).Methods("GET")

	// Assets (embedded)
	assetsSubFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		assetsSubFS = assetsFS
	}
	router.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.FS(assetsSubFS))))

	return router
}
