// metrics.go — Prometheus HTTP метрики хранилища отчётов.
// Регистрирует метрики: rs_http_requests_total, rs_http_request_duration_seconds.
// Бизнес-метрики (rs_documents_total, rs_document_operations_total и др.)
// регистрируются в соответствующих пакетах и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rs_http_requests_total",
			Help: "Общее количество HTTP-запросов к хранилищу отчётов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rs_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к хранилищу отчётов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (ссылка на документ заменяется на {ref} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

const docsPrefix = "/api/v1/documents/"

// normalizePath заменяет переменные сегменты пути на плейсхолдеры
// для предотвращения взрывного роста кардинальности метрик.
// /api/v1/documents/2026/08/frontend_x.html/status → /api/v1/documents/{ref}/status
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/documents", "/api/v1/documents/search", "/api/v1/documents/modified",
		"/api/v1/documents/stats/status", "/api/v1/documents/stats/edits",
		"/api/v1/maintenance/backup", "/api/v1/maintenance/backup/cleanup",
		"/api/v1/maintenance/permissions":
		return path
	}

	if strings.HasPrefix(path, "/api/v1/documents/status/") {
		return "/api/v1/documents/status/{status}"
	}

	if strings.HasPrefix(path, docsPrefix) {
		// Ссылка на документ: {год}/{месяц}/{имя}[/действие]
		rest := path[len(docsPrefix):]
		parts := strings.SplitN(rest, "/", 4)
		if len(parts) >= 3 {
			if len(parts) == 4 && parts[3] != "" {
				return docsPrefix + "{ref}/" + parts[3]
			}
			return docsPrefix + "{ref}"
		}
	}

	return path
}
