// backup.go — резервное копирование хранилища документов.
//
// Снимок — zip-архив всех пар документ+sidecar, сложенный в поддиректорию
// backups/ корня хранилища. Имя архива содержит момент снятия:
// documents_backup_YYYYMMDD_HHMMSS.zip. Очистка удаляет архивы старше
// срока хранения, разбирая момент из имени; архивы с неразборным именем
// никогда не удаляются.
package service

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

const (
	// BackupDirName — поддиректория архивов в корне хранилища
	BackupDirName = "backups"

	archivePrefix = "documents_backup_"
	archiveExt    = ".zip"
	archiveLayout = "20060102_150405"
)

// SnapshotItemError — сбой архивирования одного файла.
type SnapshotItemError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// SnapshotResult — итог снятия снимка.
type SnapshotResult struct {
	ArchivePath string              `json:"archive_path"`
	Files       int                 `json:"files"`
	TotalBytes  int64               `json:"total_bytes"`
	Failed      []SnapshotItemError `json:"failed,omitempty"`
	Duration    time.Duration       `json:"duration"`
}

// CleanupResult — итог очистки старых архивов.
type CleanupResult struct {
	Deleted int                 `json:"deleted"`
	Skipped int                 `json:"skipped"`
	Failed  []SnapshotItemError `json:"failed,omitempty"`
}

// BackupService — снятие и ротация резервных копий.
type BackupService struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewBackupService создаёт сервис резервного копирования.
func NewBackupService(root string, logger *slog.Logger) *BackupService {
	return &BackupService{
		root:   root,
		logger: logger.With(slog.String("component", "backup")),
		now:    time.Now,
	}
}

// BackupDir возвращает директорию архивов.
func (b *BackupService) BackupDir() string {
	return filepath.Join(b.root, BackupDirName)
}

// Snapshot архивирует все файлы хранилища в новый zip-архив.
// Сбой отдельного файла не прерывает снимок, а попадает в Failed.
func (b *BackupService) Snapshot() (*SnapshotResult, error) {
	start := b.now()
	asOf := start.UTC()

	backupDir := b.BackupDir()
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: создание %s: %v",
			model.ErrStorageUnavailable, backupDir, err)
	}

	archiveName := archivePrefix + asOf.Format(archiveLayout) + archiveExt
	archivePath := filepath.Join(backupDir, archiveName)

	f, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("создание архива %s: %w", archivePath, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	result := &SnapshotResult{ArchivePath: archivePath}

	walkErr := filepath.WalkDir(b.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Failed = append(result.Failed, SnapshotItemError{
				Path: path, Error: err.Error(),
			})
			return nil
		}
		if d.IsDir() {
			// Архивы в снимок не попадают
			if d.Name() == BackupDirName && filepath.Dir(path) == b.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			result.Failed = append(result.Failed, SnapshotItemError{
				Path: path, Error: err.Error(),
			})
			return nil
		}

		n, err := addToArchive(zw, path, filepath.ToSlash(rel))
		if err != nil {
			b.logger.Warn("Файл не попал в архив",
				slog.String("path", rel), slog.String("error", err.Error()))
			result.Failed = append(result.Failed, SnapshotItemError{
				Path: rel, Error: err.Error(),
			})
			return nil
		}

		result.Files++
		result.TotalBytes += n
		return nil
	})

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("закрытие архива %s: %w", archivePath, err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("fsync архива %s: %w", archivePath, err)
	}
	if walkErr != nil {
		return nil, fmt.Errorf("обход хранилища: %w", walkErr)
	}

	result.Duration = b.now().Sub(start)
	b.logger.Info("Снимок создан",
		slog.String("archive", archiveName),
		slog.Int("files", result.Files),
		slog.Int64("bytes", result.TotalBytes),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func addToArchive(zw *zip.Writer, path, name string) (int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, src)
}

// Cleanup удаляет архивы старше retentionDays.
// Момент снятия разбирается из имени архива; архив с неразборным
// именем пропускается и не удаляется.
func (b *BackupService) Cleanup(retentionDays int) (*CleanupResult, error) {
	backupDir := b.BackupDir()
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &CleanupResult{}, nil
		}
		return nil, fmt.Errorf("чтение %s: %w", backupDir, err)
	}

	cutoff := b.now().UTC().AddDate(0, 0, -retentionDays)
	result := &CleanupResult{}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ts, ok := parseArchiveTime(name)
		if !ok {
			result.Skipped++
			b.logger.Warn("Имя архива не разобрано, пропускаем",
				slog.String("name", name))
			continue
		}
		if !ts.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(backupDir, name)); err != nil {
			result.Failed = append(result.Failed, SnapshotItemError{
				Path: name, Error: err.Error(),
			})
			continue
		}
		result.Deleted++
		b.logger.Info("Старый архив удалён", slog.String("name", name))
	}

	return result, nil
}

// parseArchiveTime извлекает момент снятия из имени архива.
func parseArchiveTime(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveExt) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveExt)
	ts, err := time.Parse(archiveLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
