// permissions.go — проверка готовности файловой системы хранилища.
//
// Проверяется возможность записи (пробный файл) и доступное место
// на диске. Функция получения ёмкости платформозависима и
// передаётся из main.
package service

import (
	"log/slog"
	"os"
	"path/filepath"
)

// DiskUsageFunc возвращает total, used, available в байтах для пути.
type DiskUsageFunc func(path string) (total, used, available int64, err error)

// PermissionsReport — итог проверки файловой системы.
type PermissionsReport struct {
	Path           string `json:"path"`
	Writable       bool   `json:"writable"`
	WriteError     string `json:"write_error,omitempty"`
	TotalBytes     int64  `json:"total_bytes,omitempty"`
	UsedBytes      int64  `json:"used_bytes,omitempty"`
	AvailableBytes int64  `json:"available_bytes,omitempty"`
	DiskError      string `json:"disk_error,omitempty"`
}

// PermissionsService — проверка прав и ёмкости хранилища.
type PermissionsService struct {
	root      string
	diskUsage DiskUsageFunc
	logger    *slog.Logger
}

// NewPermissionsService создаёт сервис проверки файловой системы.
func NewPermissionsService(root string, diskUsage DiskUsageFunc, logger *slog.Logger) *PermissionsService {
	return &PermissionsService{
		root:      root,
		diskUsage: diskUsage,
		logger:    logger.With(slog.String("component", "permissions")),
	}
}

// Validate выполняет пробную запись в корень хранилища и
// запрашивает ёмкость диска.
func (p *PermissionsService) Validate() *PermissionsReport {
	report := &PermissionsReport{Path: p.root}

	probe := filepath.Join(p.root, ".write-probe.tmp")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		report.WriteError = err.Error()
		p.logger.Warn("Хранилище недоступно для записи",
			slog.String("path", p.root), slog.String("error", err.Error()))
	} else {
		report.Writable = true
		os.Remove(probe)
	}

	if p.diskUsage != nil {
		total, used, avail, err := p.diskUsage(p.root)
		if err != nil {
			report.DiskError = err.Error()
		} else {
			report.TotalBytes = total
			report.UsedBytes = used
			report.AvailableBytes = avail
		}
	}

	return report
}
