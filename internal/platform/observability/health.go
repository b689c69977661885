package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	banner        = "Media Relay Bot - Health: /health"
	statusOK      = "ok"
	startingLabel = "Starting..."
)

// HealthReport is the body of GET /health.
type HealthReport struct {
	Status    string       `json:"status"`
	Bot       string       `json:"bot"`
	Uptime    float64      `json:"uptime"`
	Memory    MemoryReport `json:"memory"`
	Ready     bool         `json:"ready"`
	Timestamp string       `json:"timestamp"`
}

// MemoryReport is a subset of runtime.MemStats, in bytes.
type MemoryReport struct {
	Alloc     uint64 `json:"alloc"`
	HeapInuse uint64 `json:"heap_inuse"`
	Sys       uint64 `json:"sys"`
}

type Server struct {
	port    int
	started time.Time
	now     func() time.Time
	logger  *zerolog.Logger

	mu      sync.RWMutex
	botName string
	ready   bool
}

func NewServer(port int, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Server{
		port:    port,
		started: time.Now(),
		now:     time.Now,
		logger:  logger,
	}
}

// SetReady marks the bot as connected under the given name.
func (s *Server) SetReady(botName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.botName = botName
	s.ready = true
}

// Report builds the current health report.
func (s *Server) Report() HealthReport {
	s.mu.RLock()
	name, ready := s.botName, s.ready
	s.mu.RUnlock()

	if name == "" {
		name = startingLabel
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	now := s.now()

	return HealthReport{
		Status:    statusOK,
		Bot:       name,
		Uptime:    now.Sub(s.started).Seconds(),
		Memory:    MemoryReport{Alloc: ms.Alloc, HeapInuse: ms.HeapInuse, Sys: ms.Sys},
		Ready:     ready,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

// Handler returns the router serving the health and metrics endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, banner)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Report())
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("Health check server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
