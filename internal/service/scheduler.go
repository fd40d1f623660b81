// scheduler.go — фоновый планировщик резервного копирования.
//
// Периодически снимает снимок хранилища и чистит устаревшие архивы.
// Запускается как горутина с тикером (RS_BACKUP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики резервного копирования
var (
	// backupRunsTotal — количество запусков цикла резервного копирования.
	backupRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rs_backup_runs_total",
		Help: "Общее количество запусков резервного копирования",
	})

	// backupFilesTotal — количество заархивированных файлов.
	backupFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rs_backup_files_total",
		Help: "Общее количество файлов, попавших в архивы",
	})

	// backupDeletedTotal — количество удалённых устаревших архивов.
	backupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rs_backup_archives_deleted_total",
		Help: "Общее количество удалённых устаревших архивов",
	})

	// backupErrorsTotal — количество ошибок резервного копирования.
	backupErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rs_backup_errors_total",
		Help: "Общее количество ошибок резервного копирования",
	})

	// backupDurationSeconds — длительность цикла резервного копирования.
	backupDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rs_backup_duration_seconds",
		Help:    "Длительность цикла резервного копирования в секундах",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// SchedulerResult — итог одного цикла планировщика.
type SchedulerResult struct {
	Snapshot *SnapshotResult
	Cleanup  *CleanupResult
	Err      error
}

// BackupScheduler — фоновый запуск снимков и ротации архивов.
type BackupScheduler struct {
	backup        *BackupService
	interval      time.Duration
	retentionDays int
	logger        *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
}

// NewBackupScheduler создаёт планировщик резервного копирования.
func NewBackupScheduler(
	backup *BackupService,
	interval time.Duration,
	retentionDays int,
	logger *slog.Logger,
) *BackupScheduler {
	return &BackupScheduler{
		backup:        backup,
		interval:      interval,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "backup-scheduler")),
	}
}

// Start запускает фоновую горутину планировщика.
// Вызывается один раз при старте приложения.
func (bs *BackupScheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	bs.cancel = cancel

	go bs.run(runCtx)

	bs.logger.Info("Планировщик резервного копирования запущен",
		slog.String("interval", bs.interval.String()),
		slog.Int("retention_days", bs.retentionDays),
	)
}

// Stop останавливает фоновый процесс.
func (bs *BackupScheduler) Stop() {
	if bs.cancel != nil {
		bs.cancel()
	}
	bs.logger.Info("Планировщик резервного копирования остановлен")
}

// run — основной цикл фоновой горутины.
func (bs *BackupScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(bs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bs.RunOnce()
		}
	}
}

// RunOnce выполняет один цикл: снимок, затем очистка устаревших архивов.
// Потокобезопасен: mutex защищает от параллельного запуска.
func (bs *BackupScheduler) RunOnce() *SchedulerResult {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	start := time.Now()
	result := &SchedulerResult{}

	backupRunsTotal.Inc()

	snap, err := bs.backup.Snapshot()
	if err != nil {
		backupErrorsTotal.Inc()
		bs.logger.Error("Снимок не создан", slog.String("error", err.Error()))
		result.Err = err
		return result
	}
	result.Snapshot = snap
	backupFilesTotal.Add(float64(snap.Files))
	backupErrorsTotal.Add(float64(len(snap.Failed)))

	cleanup, err := bs.backup.Cleanup(bs.retentionDays)
	if err != nil {
		backupErrorsTotal.Inc()
		bs.logger.Error("Очистка архивов не удалась", slog.String("error", err.Error()))
		result.Err = err
		return result
	}
	result.Cleanup = cleanup
	backupDeletedTotal.Add(float64(cleanup.Deleted))

	backupDurationSeconds.Observe(time.Since(start).Seconds())

	bs.logger.Info("Цикл резервного копирования завершён",
		slog.Int("files", snap.Files),
		slog.Int("deleted_archives", cleanup.Deleted),
		slog.Duration("duration", time.Since(start)),
	)

	return result
}
