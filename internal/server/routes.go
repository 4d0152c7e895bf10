// Package server wires HTTP handlers into a gorilla/mux router for the paint
// application.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes returns a router serving the health check, the WebSocket
// endpoint backed by hub, the stats endpoint and the test page.
func SetupRoutes(hub *Hub) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler)
	r.HandleFunc("/ws", hub.ServeWS)
	r.HandleFunc("/healthz/stats", hub.StatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/test", TestPageHandler).Methods(http.MethodGet)
	return r
}
