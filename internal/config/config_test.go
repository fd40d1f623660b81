package config

import (
	"log/slog"
	"testing"
	"time"
)

// setRequired задаёт минимальный набор обязательных переменных.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RS_DATA_DIR", "/data/reports")
}

// TestLoadDefaults проверяет значения по умолчанию.
func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.DataDir != "/data/reports" {
		t.Errorf("DataDir: получено %q", cfg.DataDir)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize: ожидалось 10 MB, получено %d", cfg.MaxFileSize)
	}
	if cfg.DefaultPrefix != "frontend" {
		t.Errorf("DefaultPrefix: получено %q", cfg.DefaultPrefix)
	}
	if !cfg.BackupEnabled {
		t.Error("BackupEnabled: ожидалось true")
	}
	if cfg.BackupRetentionDays != 30 {
		t.Errorf("BackupRetentionDays: получено %d", cfg.BackupRetentionDays)
	}
	if cfg.BackupInterval != 24*time.Hour {
		t.Errorf("BackupInterval: получено %v", cfg.BackupInterval)
	}
	if cfg.CacheSize != 256 || cfg.CacheTTL != 5*time.Minute {
		t.Errorf("кеш: size %d, ttl %v", cfg.CacheSize, cfg.CacheTTL)
	}
	if cfg.RecentEdits != 10 {
		t.Errorf("RecentEdits: получено %d", cfg.RecentEdits)
	}
	if cfg.JWKSUrl != "" {
		t.Errorf("JWKSUrl: ожидалось пусто, получено %q", cfg.JWKSUrl)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "json" {
		t.Errorf("логирование: %v / %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: получено %v", cfg.ShutdownTimeout)
	}
}

// TestLoadRequiredMissing проверяет ошибку при отсутствии RS_DATA_DIR.
func TestLoadRequiredMissing(t *testing.T) {
	t.Setenv("RS_DATA_DIR", "")

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка при отсутствии RS_DATA_DIR")
	}
}

// TestLoadOverrides проверяет чтение переопределённых значений.
func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RS_PORT", "9090")
	t.Setenv("RS_MAX_FILE_SIZE", "1048576")
	t.Setenv("RS_BACKUP_ENABLED", "false")
	t.Setenv("RS_BACKUP_INTERVAL", "6h")
	t.Setenv("RS_LOG_LEVEL", "debug")
	t.Setenv("RS_LOG_FORMAT", "text")
	t.Setenv("RS_JWKS_URL", "https://auth.example.com/jwks")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port: получено %d", cfg.Port)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize: получено %d", cfg.MaxFileSize)
	}
	if cfg.BackupEnabled {
		t.Error("BackupEnabled: ожидалось false")
	}
	if cfg.BackupInterval != 6*time.Hour {
		t.Errorf("BackupInterval: получено %v", cfg.BackupInterval)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "text" {
		t.Errorf("логирование: %v / %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.JWKSUrl != "https://auth.example.com/jwks" {
		t.Errorf("JWKSUrl: получено %q", cfg.JWKSUrl)
	}
}

// TestLoadInvalidValues проверяет отказ на некорректных значениях.
func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"нечисловой порт", "RS_PORT", "abc"},
		{"порт вне диапазона", "RS_PORT", "70000"},
		{"отрицательный размер", "RS_MAX_FILE_SIZE", "-1"},
		{"некорректное булево", "RS_BACKUP_ENABLED", "возможно"},
		{"нулевой срок хранения", "RS_BACKUP_RETENTION_DAYS", "0"},
		{"некорректная длительность", "RS_BACKUP_INTERVAL", "сутки"},
		{"неизвестный уровень", "RS_LOG_LEVEL", "verbose"},
		{"неизвестный формат", "RS_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s: ожидалась ошибка", tt.key, tt.val)
			}
		})
	}
}

// TestLoadTLSPair проверяет, что сертификат и ключ задаются вместе.
func TestLoadTLSPair(t *testing.T) {
	setRequired(t)
	t.Setenv("RS_TLS_CERT", "/certs/tls.crt")

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка: RS_TLS_CERT без RS_TLS_KEY")
	}

	t.Setenv("RS_TLS_KEY", "/certs/tls.key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if cfg.TLSCert == "" || cfg.TLSKey == "" {
		t.Error("пара TLS не загружена")
	}
}
