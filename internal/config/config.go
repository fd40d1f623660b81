// Пакет config — загрузка и валидация конфигурации хранилища отчётов
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации хранилища отчётов.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Уникальный идентификатор экземпляра (например, "report-store-01")
	InstanceID string
	// Путь к корню хранилища документов
	DataDir string
	// Максимальный размер документа в байтах
	MaxFileSize int64
	// Префикс имени файла по умолчанию
	DefaultPrefix string
	// Лимит выборок по умолчанию
	DefaultLimit int
	// Длина списка последних правок в сводке статистики
	RecentEdits int
	// Включено ли фоновое резервное копирование
	BackupEnabled bool
	// Срок хранения архивов в днях
	BackupRetentionDays int
	// Интервал фонового резервного копирования
	BackupInterval time.Duration
	// Размер LRU-кеша содержимого документов
	CacheSize int
	// TTL записей кеша содержимого
	CacheTTL time.Duration
	// URL JWKS endpoint сервиса аутентификации (пусто — аутентификация выключена)
	JWKSUrl string
	// Путь к CA-сертификату для проверки TLS JWKS endpoint (опционально)
	JWKSCACert string
	// Путь к TLS сертификату (опционально, пусто — HTTP)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (RS_DEPHEALTH_GROUP)
	DephealthGroup string
	// Имя зависимости (целевого сервиса) в метриках topologymetrics (RS_DEPHEALTH_DEP_NAME)
	DephealthDepName string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// RS_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("RS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("RS_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("RS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// RS_INSTANCE_ID — идентификатор экземпляра (по умолчанию "report-store")
	cfg.InstanceID = getEnvDefault("RS_INSTANCE_ID", "report-store")

	// RS_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("RS_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// RS_MAX_FILE_SIZE — максимальный размер документа (по умолчанию 10 MB)
	maxFileSize, err := getEnvInt64("RS_MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("RS_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("RS_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// RS_DEFAULT_PREFIX — префикс имени файла (по умолчанию "frontend")
	cfg.DefaultPrefix = getEnvDefault("RS_DEFAULT_PREFIX", "frontend")

	// RS_DEFAULT_LIMIT — лимит выборок (по умолчанию 50)
	cfg.DefaultLimit, err = getEnvInt("RS_DEFAULT_LIMIT", 50)
	if err != nil {
		return nil, fmt.Errorf("RS_DEFAULT_LIMIT: %w", err)
	}

	// RS_RECENT_EDITS — длина списка последних правок (по умолчанию 10)
	cfg.RecentEdits, err = getEnvInt("RS_RECENT_EDITS", 10)
	if err != nil {
		return nil, fmt.Errorf("RS_RECENT_EDITS: %w", err)
	}

	// RS_BACKUP_ENABLED — фоновое резервное копирование (по умолчанию true)
	backupEnabled := getEnvDefault("RS_BACKUP_ENABLED", "true")
	cfg.BackupEnabled, err = strconv.ParseBool(backupEnabled)
	if err != nil {
		return nil, fmt.Errorf("RS_BACKUP_ENABLED: некорректное булево значение %q", backupEnabled)
	}

	// RS_BACKUP_RETENTION_DAYS — срок хранения архивов (по умолчанию 30)
	cfg.BackupRetentionDays, err = getEnvInt("RS_BACKUP_RETENTION_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("RS_BACKUP_RETENTION_DAYS: %w", err)
	}
	if cfg.BackupRetentionDays < 1 {
		return nil, fmt.Errorf("RS_BACKUP_RETENTION_DAYS: значение должно быть положительным")
	}

	// RS_BACKUP_INTERVAL — интервал копирования (по умолчанию 24h)
	cfg.BackupInterval, err = getEnvDuration("RS_BACKUP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RS_BACKUP_INTERVAL: %w", err)
	}

	// RS_CACHE_SIZE — размер кеша содержимого (по умолчанию 256)
	cfg.CacheSize, err = getEnvInt("RS_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("RS_CACHE_SIZE: %w", err)
	}

	// RS_CACHE_TTL — TTL кеша содержимого (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("RS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RS_CACHE_TTL: %w", err)
	}

	// RS_JWKS_URL — опциональный: пусто — аутентификация выключена
	cfg.JWKSUrl = getEnvDefault("RS_JWKS_URL", "")

	// RS_JWKS_CA_CERT — путь к CA-сертификату для JWKS endpoint (опционально)
	cfg.JWKSCACert = getEnvDefault("RS_JWKS_CA_CERT", "")

	// RS_TLS_CERT / RS_TLS_KEY — опциональные, задаются парой
	cfg.TLSCert = getEnvDefault("RS_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("RS_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("RS_TLS_CERT и RS_TLS_KEY должны задаваться вместе")
	}

	// RS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RS_LOG_LEVEL: %w", err)
	}

	// RS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// RS_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("RS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// RS_DEPHEALTH_GROUP — имя группы в метриках topologymetrics (по умолчанию "report-store")
	cfg.DephealthGroup = getEnvDefault("RS_DEPHEALTH_GROUP", "report-store")

	// RS_DEPHEALTH_DEP_NAME — имя зависимости в метриках topologymetrics (по умолчанию "auth-jwks")
	cfg.DephealthDepName = getEnvDefault("RS_DEPHEALTH_DEP_NAME", "auth-jwks")

	// RS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("RS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 24h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
