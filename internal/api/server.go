package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/limbo/discipline/internal/service"
)

type Server struct {
	mx               *chi.Mux
	mu               sync.Mutex
	srv              *http.Server
	analyticsService service.HabitAnalyticsServiceI
	metricsHandler   http.Handler
}

type ServicesList struct {
	AnalyticsService service.HabitAnalyticsServiceI
	// MetricsHandler is mounted on /metrics when set
	MetricsHandler http.Handler
}

func New(servicesOptions *ServicesList) *Server {
	if servicesOptions == nil || servicesOptions.AnalyticsService == nil {
		log.Fatal("on api server provided nil services")
	}
	s := &Server{
		mx:               chi.NewMux(),
		analyticsService: servicesOptions.AnalyticsService,
		metricsHandler:   servicesOptions.MetricsHandler,
	}
	s.mountHandlers()
	return s
}

func (s *Server) mountHandlers() {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware, s.AccessLogMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Route("/habits/{id}", func(r chi.Router) {
			r.Get("/analytics", s.GetAnalytics)
			r.Get("/insights", s.GetInsights)
			r.Post("/checkins", s.MutateCheckIn)
			r.Post("/checkins/{date}", s.MutateCheckIn)
		})
		r.Post("/sync", s.Sync)
	})
	if s.metricsHandler != nil {
		s.mx.Handle("/metrics", s.metricsHandler)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// Run blocks until the server stops. A stop caused by Shutdown is not an error.
func (s *Server) Run(address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.mx,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
