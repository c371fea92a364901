// Package httpapi exposes the monitoring pipeline's read-only JSON surface:
// health, Prometheus metrics, latest score and score history per asset.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/protocolchecker/riskframe/internal/persistence"
)

// Server serves the read-only monitoring API.
type Server struct {
	router *mux.Router
	repo   persistence.ScoreRepo
}

// NewServer builds the router. The Prometheus gatherer backs /metrics.
func NewServer(repo persistence.ScoreRepo, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		router: mux.NewRouter(),
		repo:   repo,
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/assets/{symbol}/score", s.handleLatestScore).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/assets/{symbol}/history", s.handleHistory).Methods(http.MethodGet)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLatestScore(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	rec, err := s.repo.Latest(r.Context(), symbol)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Latest score lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no score recorded for " + symbol})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.ResultJSON)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	to := time.Now().UTC()
	from := to.Add(-30 * 24 * time.Hour)

	records, err := s.repo.History(r.Context(), symbol, from, to, limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Score history lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	if records == nil {
		records = []persistence.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Response encoding failed")
	}
}
