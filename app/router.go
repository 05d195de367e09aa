package app

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func buildRouter(reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/token", authTokenHandler).Methods("POST")
	r.HandleFunc("/highlight.css", highlightCSSHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	// REST API endpoints
	r.HandleFunc("/courses/{course:[0-9]+}/preview", previewHandler).Methods("POST")
	r.HandleFunc("/courses/{course:[0-9]+}/conversations/{conversation:[0-9]+}/messages/{message:[0-9]+}", messageHandler).Methods("GET")

	return r
}
