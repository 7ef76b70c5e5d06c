package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	rankingengine "bountyboard/contexts/community-experience/ranking-engine"
	_ "bountyboard/internal/platform/httpserver/docs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	ranking  rankingengine.Module
	gatherer prometheus.Gatherer
	srv      *http.Server
}

// New builds the HTTP surface. A nil gatherer exposes the default registry on /metrics.
func New(
	ranking rankingengine.Module,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		ranking:  ranking,
		gatherer: gatherer,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled and then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("POST /api/v1/ranking/events", s.handleRankingApplyEvent)
	s.mux.HandleFunc("GET /api/v1/ranking/leaderboard", s.handleRankingLeaderboard)
	s.mux.HandleFunc("GET /api/v1/ranking/tiers", s.handleRankingTiers)
	s.mux.HandleFunc("GET /api/v1/ranking/users/{user_id}", s.handleRankingGetUser)
	s.mux.HandleFunc("GET /api/v1/ranking/users/{user_id}/transactions", s.handleRankingTransactions)
	s.mux.HandleFunc("GET /api/v1/ranking/users/{user_id}/achievements", s.handleRankingAchievements)
	s.mux.HandleFunc("GET /api/v1/ranking/users/{user_id}/rewards", s.handleRankingRewards)
	s.mux.HandleFunc("POST /api/v1/ranking/users/{user_id}/redemptions", s.handleRankingRedeem)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
