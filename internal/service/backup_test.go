package service

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// prepareStorage создаёт корень хранилища с парой документ+sidecar.
func prepareStorage(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "2026", "08")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("ошибка создания партиции: %v", err)
	}
	files := map[string]string{
		"a.html":      "<html><body>a</body></html>",
		"a.html.meta": `{"file_name":"a.html"}`,
		"b.html":      "<html><body>b</body></html>",
		"b.html.meta": `{"file_name":"b.html"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("ошибка записи %s: %v", name, err)
		}
	}
	// Временный файл не должен попадать в снимок
	if err := os.WriteFile(filepath.Join(dir, ".doc-123.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("ошибка записи tmp: %v", err)
	}
	return root
}

// TestSnapshot проверяет создание zip-архива со всеми парами.
func TestSnapshot(t *testing.T) {
	root := prepareStorage(t)
	b := NewBackupService(root, testLogger())
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	result, err := b.Snapshot()
	if err != nil {
		t.Fatalf("ошибка снимка: %v", err)
	}

	wantName := "documents_backup_20260831_120000.zip"
	if filepath.Base(result.ArchivePath) != wantName {
		t.Errorf("имя архива: ожидалось %q, получено %q", wantName, filepath.Base(result.ArchivePath))
	}
	if result.Files != 4 {
		t.Errorf("файлов в архиве: ожидалось 4, получено %d", result.Files)
	}
	if len(result.Failed) != 0 {
		t.Errorf("неожиданные сбои: %+v", result.Failed)
	}

	// Архив читается и содержит ожидаемые пути
	zr, err := zip.OpenReader(result.ArchivePath)
	if err != nil {
		t.Fatalf("архив не читается: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"2026/08/a.html", "2026/08/a.html.meta", "2026/08/b.html", "2026/08/b.html.meta"} {
		if !names[want] {
			t.Errorf("в архиве нет %q, содержимое: %v", want, names)
		}
	}
	for name := range names {
		if filepath.Ext(name) == ".tmp" {
			t.Errorf("временный файл попал в архив: %q", name)
		}
	}
}

// TestSnapshotSkipsBackupDir проверяет, что прежние архивы не архивируются.
func TestSnapshotSkipsBackupDir(t *testing.T) {
	root := prepareStorage(t)
	b := NewBackupService(root, testLogger())

	// Первый снимок, затем второй: первый архив не должен попасть во второй
	if _, err := b.Snapshot(); err != nil {
		t.Fatalf("ошибка первого снимка: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // разные секунды в имени архива

	result, err := b.Snapshot()
	if err != nil {
		t.Fatalf("ошибка второго снимка: %v", err)
	}

	zr, err := zip.OpenReader(result.ArchivePath)
	if err != nil {
		t.Fatalf("архив не читается: %v", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if filepath.Ext(f.Name) == ".zip" {
			t.Errorf("архив попал в снимок: %q", f.Name)
		}
	}
}

// TestCleanup проверяет удаление старых архивов по сроку хранения.
func TestCleanup(t *testing.T) {
	root := t.TempDir()
	b := NewBackupService(root, testLogger())
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	backupDir := b.BackupDir()
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("ошибка создания backups: %v", err)
	}

	archives := []string{
		"documents_backup_20260801_120000.zip", // 30 дней — на границе, остаётся
		"documents_backup_20260601_120000.zip", // старый — удаляется
		"documents_backup_20260830_120000.zip", // свежий — остаётся
		"documents_backup_неразборное.zip",     // неразборное имя — пропускается
		"случайный_файл.zip",                   // чужой файл — пропускается
	}
	for _, name := range archives {
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("zip"), 0o644); err != nil {
			t.Fatalf("ошибка записи %s: %v", name, err)
		}
	}

	result, err := b.Cleanup(30)
	if err != nil {
		t.Fatalf("ошибка очистки: %v", err)
	}

	if result.Deleted != 1 {
		t.Errorf("удалено: ожидалось 1, получено %d", result.Deleted)
	}
	if result.Skipped != 2 {
		t.Errorf("пропущено: ожидалось 2, получено %d", result.Skipped)
	}

	// Неразборные имена не тронуты
	for _, name := range []string{
		"documents_backup_20260801_120000.zip",
		"documents_backup_20260830_120000.zip",
		"documents_backup_неразборное.zip",
		"случайный_файл.zip",
	} {
		if _, err := os.Stat(filepath.Join(backupDir, name)); err != nil {
			t.Errorf("файл %q не должен был удаляться: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(backupDir, "documents_backup_20260601_120000.zip")); !os.IsNotExist(err) {
		t.Error("старый архив не удалён")
	}
}

// TestCleanupNoBackupDir проверяет очистку при отсутствии директории архивов.
func TestCleanupNoBackupDir(t *testing.T) {
	b := NewBackupService(t.TempDir(), testLogger())
	result, err := b.Cleanup(30)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if result.Deleted != 0 {
		t.Errorf("нечего удалять: %+v", result)
	}
}

// TestParseArchiveTime проверяет разбор момента из имени архива.
func TestParseArchiveTime(t *testing.T) {
	ts, ok := parseArchiveTime("documents_backup_20260831_120000.zip")
	if !ok {
		t.Fatal("валидное имя не разобрано")
	}
	want := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("ожидалось %v, получено %v", want, ts)
	}

	invalid := []string{
		"documents_backup_2026.zip",
		"other_20260831_120000.zip",
		"documents_backup_20260831_120000.tar",
		"documents_backup_99999999_999999.zip",
	}
	for _, name := range invalid {
		if _, ok := parseArchiveTime(name); ok {
			t.Errorf("имя %q не должно разбираться", name)
		}
	}
}
