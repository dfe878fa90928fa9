package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/wsentry/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/wsentry/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Command endpoints that reset state are limited per client.
const (
	commandLimit  = 10
	commandWindow = time.Minute
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr           string
	Service        ports.Monitor
	WSManager      *websocket.WSManager
	MonitorHandler *handlers.MonitorHandler
	ReportHandler  *handlers.ReportHandler

	commandLimiter *middleware.RateLimiter
	srv            *http.Server
}

// NewServer creates a new web server and subscribes its websocket manager to
// monitor updates.
func NewServer(addr string, service ports.Monitor, renderer handlers.ReportRenderer, allowedOrigins []string) *Server {
	s := &Server{
		Addr:           addr,
		Service:        service,
		WSManager:      websocket.NewWSManager(service, allowedOrigins),
		MonitorHandler: handlers.NewMonitorHandler(service),
		ReportHandler:  handlers.NewReportHandler(service, renderer),
		commandLimiter: middleware.NewRateLimiter(commandLimit, commandWindow),
	}
	service.AddObserver(s.WSManager)
	return s
}

// Run starts the server and the broadcaster.
func (s *Server) Run(ctx context.Context) error {
	s.WSManager.Start(ctx)
	s.commandLimiter.Start(ctx)

	// "wsentry-server" is the name of the operation (span)
	instrumentedHandler := otelhttp.NewHandler(SetupRoutes(s), "wsentry-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		slog.Info("Web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Web server shutdown error", "error", err)
		}
	}()

	slog.Info("Web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
