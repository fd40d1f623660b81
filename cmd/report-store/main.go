// Точка входа хранилища лабораторных отчётов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/CarlosAHP/AppLaBackend/internal/api/handlers"
	"github.com/CarlosAHP/AppLaBackend/internal/api/middleware"
	"github.com/CarlosAHP/AppLaBackend/internal/config"
	"github.com/CarlosAHP/AppLaBackend/internal/server"
	"github.com/CarlosAHP/AppLaBackend/internal/service"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/codec"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/docstore"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/index"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/partition"
)

func main() {
	// .env загружается до чтения окружения; отсутствие файла не ошибка
	_ = godotenv.Load()

	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Хранилище отчётов запускается",
		slog.String("instance_id", cfg.InstanceID),
		slog.String("version", config.Version),
		slog.String("data_dir", cfg.DataDir),
		slog.Int("port", cfg.Port),
	)

	// --- Инициализация компонентов ---

	// 1. Партиционирование по директориям год/месяц
	parts, err := partition.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Кодек содержимого документов
	docCodec := codec.New(cfg.MaxFileSize)

	// 3. In-memory индекс метаданных
	idx := index.New(logger)
	if err := idx.BuildFromRoot(cfg.DataDir); err != nil {
		logger.Error("Ошибка построения индекса", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Хранилище документов
	store := docstore.New(parts, docCodec, idx,
		cfg.CacheSize, cfg.CacheTTL, cfg.DefaultPrefix, logger)

	// 5. Сервисы
	querySvc := service.NewQueryService(idx, cfg.DataDir, logger)
	backupSvc := service.NewBackupService(cfg.DataDir, logger)
	permissionsSvc := service.NewPermissionsService(cfg.DataDir, getDiskUsage, logger)

	// 6. Фоновые процессы
	ctx := context.Background()

	// 6.1 Планировщик резервного копирования
	var scheduler *service.BackupScheduler
	if cfg.BackupEnabled {
		scheduler = service.NewBackupScheduler(
			backupSvc, cfg.BackupInterval, cfg.BackupRetentionDays, logger)
		scheduler.Start(ctx)
	} else {
		logger.Info("Фоновое резервное копирование выключено")
	}

	// 6.2 topologymetrics — мониторинг зависимостей (только при настроенном JWKS)
	var dephealthSvc *service.DephealthService
	if cfg.JWKSUrl != "" {
		var dephealthErr error
		dephealthSvc, dephealthErr = service.NewDephealthService(
			cfg.InstanceID,
			cfg.DephealthGroup,
			cfg.DephealthDepName,
			cfg.JWKSUrl,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("jwks_url", cfg.JWKSUrl),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 7. Handlers
	h := server.Handlers{
		Documents: handlers.NewDocumentsHandler(
			store, querySvc, cfg.DefaultLimit, cfg.RecentEdits, logger),
		Maintenance: handlers.NewMaintenanceHandler(
			backupSvc, permissionsSvc, cfg.BackupRetentionDays, logger),
		Health: handlers.NewHealthHandler(cfg.DataDir, idx),
	}

	// 8. JWT middleware (опционально: без RS_JWKS_URL — без аутентификации)
	var jwtAuth *middleware.JWTAuth
	if cfg.JWKSUrl != "" {
		jwtAuth, err = middleware.NewJWTAuth(middleware.JWTAuthConfig{
			JWKSURL:         cfg.JWKSUrl,
			CACertPath:      cfg.JWKSCACert,
			ClientTimeout:   10 * time.Second,
			RefreshInterval: time.Hour,
			JWTLeeway:       30 * time.Second,
		}, logger)
		if err != nil {
			// JWT недоступен — запускаем без аутентификации (для разработки)
			logger.Warn("JWT JWKS недоступен, запуск без аутентификации",
				slog.String("jwks_url", cfg.JWKSUrl),
				slog.String("error", err.Error()),
			)
			jwtAuth = nil
		} else {
			logger.Info("JWT аутентификация настроена",
				slog.String("jwks_url", cfg.JWKSUrl),
			)
		}
	} else {
		logger.Warn("RS_JWKS_URL не задан, запуск без аутентификации")
	}

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h, jwtAuth)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")

	if scheduler != nil {
		scheduler.Stop()
	}
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Хранилище отчётов остановлено")
}
