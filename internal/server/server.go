// Пакет server — HTTP-сервер хранилища отчётов с TLS и graceful shutdown.
// Маршруты регистрируются вручную через chi.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CarlosAHP/AppLaBackend/internal/api/handlers"
	"github.com/CarlosAHP/AppLaBackend/internal/api/middleware"
	"github.com/CarlosAHP/AppLaBackend/internal/config"
)

// Handlers — набор обработчиков, монтируемых на роутер.
type Handlers struct {
	Documents   *handlers.DocumentsHandler
	Maintenance *handlers.MaintenanceHandler
	Health      *handlers.HealthHandler
}

// Server — HTTP-сервер хранилища отчётов.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// auth — JWT middleware; nil означает работу без аутентификации
// (RS_JWKS_URL не задан).
func New(cfg *config.Config, logger *slog.Logger, h Handlers, auth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Публичные endpoints: probes и метрики
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API: при настроенном JWKS все маршруты под аутентификацией
	router.Route("/api/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware())
		}

		r.Route("/documents", func(r chi.Router) {
			if auth != nil {
				// Чтения — documents:read, мутации — documents:write
				r.Use(middleware.RequireDocumentAccess())
			}
			r.Post("/", h.Documents.Upload)
			r.Get("/", h.Documents.List)
			r.Get("/search", h.Documents.Search)
			r.Get("/modified", h.Documents.Modified)
			r.Get("/status/{status}", h.Documents.ByStatus)
			r.Get("/stats/status", h.Documents.StatusStats)
			r.Get("/stats/edits", h.Documents.EditStats)

			r.Route("/{year}/{month}/{name}", func(r chi.Router) {
				r.Get("/", h.Documents.GetContent)
				r.Put("/", h.Documents.Update)
				r.Delete("/", h.Documents.Delete)
				r.Get("/metadata", h.Documents.GetMetadata)
				r.Post("/status", h.Documents.ChangeStatus)
				r.Post("/modified", h.Documents.MarkModified)
				r.Get("/edits", h.Documents.EditHistory)
				r.Post("/edits/reset", h.Documents.ResetEdits)
			})
		})

		r.Route("/maintenance", func(r chi.Router) {
			if auth != nil {
				// Обслуживание требует отдельного scope
				r.Use(middleware.RequireScope(middleware.ScopeMaintenance))
			}
			r.Post("/backup", h.Maintenance.BackupNow)
			r.Post("/backup/cleanup", h.Maintenance.CleanupBackups)
			r.Get("/permissions", h.Maintenance.Permissions)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Настройка TLS
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом
// из конфигурации.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.Bool("tls", s.cfg.TLSCert != ""),
		)

		var err error
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
