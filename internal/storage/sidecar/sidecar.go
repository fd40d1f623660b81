// Пакет sidecar — хранение метаданных документов в файлах-спутниках.
//
// Метаданные лежат рядом с документом в файле с тем же именем и
// суффиксом .meta, в формате JSON с отступами. Запись атомарная:
// временный файл, fsync, rename.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// Suffix — суффикс sidecar-файла метаданных.
const Suffix = ".meta"

// Path возвращает путь sidecar-файла для пути документа.
func Path(contentPath string) string {
	return contentPath + Suffix
}

// ContentPath возвращает путь документа для пути sidecar-файла.
func ContentPath(sidecarPath string) string {
	return strings.TrimSuffix(sidecarPath, Suffix)
}

// IsSidecar проверяет, является ли путь sidecar-файлом.
func IsSidecar(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

// Write атомарно записывает метаданные в sidecar-файл документа.
func Write(contentPath string, m *model.Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация метаданных: %w", err)
	}

	target := Path(contentPath)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("создание директории %s: %w", dir, err)
	}

	// Атомарная запись: временный файл -> fsync -> rename
	tmp, err := os.CreateTemp(dir, ".meta-*.tmp")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("запись метаданных: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fsync метаданных: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename метаданных: %w", err)
	}

	return nil
}

// Read читает метаданные из sidecar-файла документа.
// Отсутствующий sidecar — model.ErrNotFound.
func Read(contentPath string) (*model.Metadata, error) {
	data, err := os.ReadFile(Path(contentPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: метаданные %s", model.ErrNotFound, contentPath)
		}
		return nil, fmt.Errorf("чтение метаданных %s: %w", contentPath, err)
	}

	var m model.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("разбор метаданных %s: %w", contentPath, err)
	}

	return &m, nil
}

// Delete удаляет sidecar-файл документа.
// Отсутствие файла ошибкой не считается.
func Delete(contentPath string) error {
	if err := os.Remove(Path(contentPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("удаление метаданных %s: %w", contentPath, err)
	}
	return nil
}

// ScanDir возвращает пути всех sidecar-файлов в директории.
func ScanDir(dir string) ([]string, error) {
	pattern := filepath.Join(dir, "*"+Suffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("сканирование %s: %w", dir, err)
	}
	return matches, nil
}
