package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recpanel/logger"
	"recpanel/web/controller"
)

func InitRouter(controller *controller.Controller, logger *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(logger.LogRequest)

	router.HandleFunc("/", controller.Index).Methods(http.MethodGet)
	router.HandleFunc("/ws", controller.LiveUpdates).Methods(http.MethodGet)
	router.HandleFunc("/download/{name}", controller.Download).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	panelrouter := router.PathPrefix("/panel").Subrouter()
	panelrouter.HandleFunc("", controller.Fragment).Methods(http.MethodGet)
	panelrouter.HandleFunc("/start", controller.SubmitStart).Methods(http.MethodPost)
	panelrouter.HandleFunc("/stop", controller.SubmitStop).Methods(http.MethodPost)

	apirouter := router.PathPrefix("/api").Subrouter()
	apirouter.HandleFunc("/panel", controller.PanelState).Methods(http.MethodGet)
	apirouter.HandleFunc("/start", controller.StartRecording).Methods(http.MethodPost)
	apirouter.HandleFunc("/stop", controller.StopRecording).Methods(http.MethodPost)
	apirouter.HandleFunc("/videos/refresh", controller.RefreshVideos).Methods(http.MethodPost)
	apirouter.HandleFunc("/archive", controller.ArchiveStatus).Methods(http.MethodGet)
	apirouter.HandleFunc("/archive", controller.ArchiveRecordings).Methods(http.MethodPost)
	apirouter.HandleFunc("/archive/{name}", controller.ArchiveRecording).Methods(http.MethodPost)

	return router
}
