package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"stormrag/internal/config"
	"stormrag/internal/handlers"
	"stormrag/internal/middleware"
	"stormrag/pkg/applog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	server  *http.Server
	_logger *applog.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	// WaitForPollers blocks until in-flight ingestion pollers finish.
	WaitForPollers func()
	CloseServices  context.CancelFunc
}

func NewRouter(h *handlers.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Post("/ingest", middleware.Wrap(h.Ingest))
	r.Get("/ingest/status/{id}", middleware.Wrap(h.Status))
	r.Post("/query", middleware.Wrap(h.Query))
	r.Get("/documents", middleware.Wrap(h.Documents))
	r.Get("/healthz", h.Health)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// CreateServer builds the HTTP server and stores it for ShutDownHandler.
// Must be called before either Serve or ShutDownHandler is spawned.
func CreateServer(listenAddr string, h *handlers.Handler) {
	_logger = applog.New("server")

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      NewRouter(h),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
}

// Serve blocks on the listener until shutdown.
func Serve() {
	_logger.Info("Server is listening", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", server.Addr)
	}
}

func ShutDownHandler(params ShutdownParams) {
	<-params.GracefulShutdown
	_logger.Info("Server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("could not shutdown gracefully", "error", err)
		}

		params.CloseServices()
		params.WaitForPollers()
		close(params.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Graceful shutdown complete")
	case <-ctx.Done():
		_logger.Info("Forced shutdown")
		os.Exit(1)
	}
}
