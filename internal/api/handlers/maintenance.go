// maintenance.go — обработчики обслуживания хранилища:
// резервное копирование, ротация архивов, проверка файловой системы.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/CarlosAHP/AppLaBackend/internal/api/errors"
	"github.com/CarlosAHP/AppLaBackend/internal/service"
)

// MaintenanceHandler — обработчики /api/v1/maintenance.
type MaintenanceHandler struct {
	backup        *service.BackupService
	permissions   *service.PermissionsService
	retentionDays int
	logger        *slog.Logger
}

// NewMaintenanceHandler создаёт обработчик операций обслуживания.
// retentionDays — срок хранения архивов по умолчанию.
func NewMaintenanceHandler(
	backup *service.BackupService,
	permissions *service.PermissionsService,
	retentionDays int,
	logger *slog.Logger,
) *MaintenanceHandler {
	return &MaintenanceHandler{
		backup:        backup,
		permissions:   permissions,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "maintenance_handler")),
	}
}

// cleanupRequest — тело запроса очистки архивов.
type cleanupRequest struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

// BackupNow обрабатывает POST /api/v1/maintenance/backup.
// Снимает снимок хранилища синхронно и возвращает итог.
func (h *MaintenanceHandler) BackupNow(w http.ResponseWriter, _ *http.Request) {
	result, err := h.backup.Snapshot()
	if err != nil {
		h.logger.Error("Снимок не создан", slog.String("error", err.Error()))
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CleanupBackups обрабатывает POST /api/v1/maintenance/backup/cleanup.
// Удаляет архивы старше retention_days (по умолчанию из конфигурации).
func (h *MaintenanceHandler) CleanupBackups(w http.ResponseWriter, r *http.Request) {
	retention := h.retentionDays

	var req cleanupRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
			return
		}
		if req.RetentionDays < 0 {
			apierrors.ValidationError(w, "retention_days не может быть отрицательным")
			return
		}
		if req.RetentionDays > 0 {
			retention = req.RetentionDays
		}
	}

	result, err := h.backup.Cleanup(retention)
	if err != nil {
		h.logger.Error("Очистка архивов не удалась", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Очистка архивов не удалась")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Permissions обрабатывает GET /api/v1/maintenance/permissions.
// Возвращает итог проверки прав записи и ёмкости диска.
func (h *MaintenanceHandler) Permissions(w http.ResponseWriter, _ *http.Request) {
	report := h.permissions.Validate()

	statusCode := http.StatusOK
	if !report.Writable {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, report)
}
