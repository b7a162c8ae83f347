// Package health exposes the HTTP surface: webhook, container probe, and the
// read-only status counters.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/logging"
	"tg_store_bot/internal/store"
)

const (
	mongoPingTimeout  = 2 * time.Second
	readHeaderTimeout = 2 * time.Second
)

// MongoChecker defines the subset of store behavior required for health.
type MongoChecker interface {
	Ping(ctx context.Context) error
}

// StatsSource supplies the aggregate counters for /status.
type StatsSource interface {
	Snapshot(ctx context.Context, now time.Time) (store.Stats, error)
}

// Server hosts the HTTP endpoints and owns the underlying http.Server.
type Server struct {
	server       *http.Server
	logger       *logrus.Entry
	mongoChecker MongoChecker
	stats        StatsSource
	now          func() time.Time
}

type healthResponse struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo,omitempty"`
}

type statusResponse struct {
	Users         int    `json:"users"`
	Stock         int    `json:"stock"`
	Transactions  int64  `json:"transactions"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Uptime        string `json:"uptime"`
}

// NewServer constructs the HTTP server exposing GET /healthz, GET /status,
// and, when webhook is non-nil, POST /webhook.
func NewServer(port int, mongoChecker MongoChecker, stats StatsSource, webhook http.HandlerFunc, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:       logger,
		mongoChecker: mongoChecker,
		stats:        stats,
		now:          time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/status", srv.handleStatus)
	if webhook != nil {
		mux.HandleFunc("/webhook", webhook)
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "http_listen",
		"addr":  s.server.Addr,
	}).Info("starting http server")

	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("event", "http_stopped").Info("http server stopped")
			return nil
		}

		return fmt.Errorf("http server listen: %w", err)
	}

	s.logger.WithField("event", "http_stopped").Info("http server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	ctx := r.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mongoStatus := "ok"
	if s.mongoChecker == nil {
		mongoStatus = "error"
		s.logger.WithField("event", "health_mongo_missing").Warn("mongo checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, mongoPingTimeout)
		err := s.mongoChecker.Ping(pingCtx)
		cancel()

		if err != nil {
			mongoStatus = "error"
			s.logger.WithField("event", "health_mongo_error").WithError(err).Warn("mongo ping failed during health check")
		}
	}

	if mongoStatus != "ok" {
		resp.Status = "degraded"
		resp.Mongo = "error"
	}

	writeJSON(w, s.logger, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.Error(w, "status unavailable", http.StatusServiceUnavailable)
		return
	}

	snapshot, err := s.stats.Snapshot(r.Context(), s.now())
	if err != nil {
		s.logger.WithField("event", "status_error").WithError(err).Error("failed to collect status counters")
		http.Error(w, "status unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, s.logger, statusResponse{
		Users:         snapshot.Users,
		Stock:         snapshot.Stock,
		Transactions:  snapshot.Transactions,
		UptimeSeconds: int64(snapshot.Uptime.Seconds()),
		Uptime:        snapshot.Uptime.Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, logger *logrus.Entry, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithField("event", "http_write_error").WithError(err).Error("failed to encode response")
	}
}
