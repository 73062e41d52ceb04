package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	logger   *slog.Logger
	handlers *handlers
}

func New(logger *slog.Logger, controller sessionController, renderer pageRenderer, socketPort string) *Server {
	logger = logger.With("component", "rest")

	return &Server{
		logger: logger,
		handlers: &handlers{
			logger:     logger,
			controller: controller,
			renderer:   renderer,
			socketPort: socketPort,
		},
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", that.handlers.PageHandler)
	mux.HandleFunc("GET /ping", that.handlers.PingHandler)
	mux.HandleFunc("GET /api/state", that.handlers.StateHandler)
	mux.HandleFunc("GET /api/stats", that.handlers.StatsHandler)
	mux.HandleFunc("POST /api/session", that.handlers.StartHandler)
	mux.HandleFunc("DELETE /api/session", that.handlers.ResetHandler)

	return that.withRequestLog(mux)
}

// Start - serves HTTP on port until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// withRequestLog - tags every request with an ID and logs it once served.
func (that *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		that.logger.Debug("request served",
			"requestID", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"elapsed", time.Since(started),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (that *statusRecorder) WriteHeader(status int) {
	that.status = status
	that.ResponseWriter.WriteHeader(status)
}
