// Пакет index — in-memory индекс метаданных документов.
//
// Индекс строится при старте сканированием sidecar-файлов по партициям
// год/месяц и далее синхронно обновляется хранилищем документов.
// Источник истины — sidecar-файлы на диске; индекс хранит копии.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/sidecar"
)

// Index — потокобезопасный индекс метаданных, ключ — имя файла документа.
type Index struct {
	mu     sync.RWMutex
	docs   map[string]model.Metadata
	byPath map[string]string // относительный путь -> имя файла
	ready  bool
	logger *slog.Logger
}

// New создаёт пустой индекс.
func New(logger *slog.Logger) *Index {
	return &Index{
		docs:   make(map[string]model.Metadata),
		byPath: make(map[string]string),
		logger: logger.With(slog.String("component", "index")),
	}
}

// BuildFromRoot сканирует корень хранилища и перестраивает индекс.
// Ожидаемая структура: root/ГГГГ/ММ/*.meta. Директория backups и прочие
// не-партиции пропускаются. Повреждённые sidecar-ы логируются и пропускаются.
func (idx *Index) BuildFromRoot(root string) error {
	docs := make(map[string]model.Metadata)
	byPath := make(map[string]string)

	years, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("чтение корня %s: %w", root, err)
	}

	scanned := 0
	skipped := 0
	for _, year := range years {
		if !year.IsDir() || !isDigits(year.Name(), 4) {
			continue
		}
		yearDir := filepath.Join(root, year.Name())
		months, err := os.ReadDir(yearDir)
		if err != nil {
			idx.logger.Warn("Партиция недоступна, пропускаем",
				slog.String("dir", yearDir), slog.String("error", err.Error()))
			continue
		}
		for _, month := range months {
			if !month.IsDir() || !isDigits(month.Name(), 2) {
				continue
			}
			dir := filepath.Join(yearDir, month.Name())
			metas, err := sidecar.ScanDir(dir)
			if err != nil {
				idx.logger.Warn("Сканирование партиции не удалось",
					slog.String("dir", dir), slog.String("error", err.Error()))
				continue
			}
			for _, metaPath := range metas {
				contentPath := sidecar.ContentPath(metaPath)
				m, err := sidecar.Read(contentPath)
				if err != nil {
					skipped++
					idx.logger.Warn("Повреждённый sidecar, пропускаем",
						slog.String("path", metaPath), slog.String("error", err.Error()))
					continue
				}
				if _, err := os.Stat(contentPath); err != nil {
					skipped++
					idx.logger.Warn("Sidecar без документа, пропускаем",
						slog.String("path", metaPath))
					continue
				}
				docs[m.FileName] = *m
				byPath[m.StoragePath] = m.FileName
				scanned++
			}
		}
	}

	idx.mu.Lock()
	idx.docs = docs
	idx.byPath = byPath
	idx.ready = true
	idx.mu.Unlock()

	idx.logger.Info("Индекс построен",
		slog.Int("documents", scanned), slog.Int("skipped", skipped))
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsReady сообщает, завершено ли построение индекса.
func (idx *Index) IsReady() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}

// Add добавляет документ в индекс.
func (idx *Index) Add(m *model.Metadata) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs[m.FileName] = *m
	idx.byPath[m.StoragePath] = m.FileName
}

// Update заменяет метаданные документа в индексе.
func (idx *Index) Update(m *model.Metadata) {
	idx.Add(m)
}

// Remove удаляет документ из индекса.
func (idx *Index) Remove(fileName string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if m, ok := idx.docs[fileName]; ok {
		delete(idx.byPath, m.StoragePath)
		delete(idx.docs, fileName)
	}
}

// Get возвращает метаданные по имени файла.
func (idx *Index) Get(fileName string) (model.Metadata, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m, ok := idx.docs[fileName]
	return m, ok
}

// GetByPath возвращает метаданные по относительному пути документа.
func (idx *Index) GetByPath(rel string) (model.Metadata, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	name, ok := idx.byPath[rel]
	if !ok {
		return model.Metadata{}, false
	}
	m, ok := idx.docs[name]
	return m, ok
}

// All возвращает копии всех метаданных без определённого порядка.
func (idx *Index) All() []model.Metadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]model.Metadata, 0, len(idx.docs))
	for _, m := range idx.docs {
		out = append(out, m)
	}
	return out
}

// List возвращает страницу документов, отсортированных по UpdatedAt
// по убыванию (при равенстве — по имени файла), и общее количество.
func (idx *Index) List(limit, offset int) ([]model.Metadata, int) {
	all := idx.All()

	sort.Slice(all, func(i, j int) bool {
		if all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].FileName < all[j].FileName
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	total := len(all)
	if offset >= total {
		return []model.Metadata{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total
}

// Count возвращает количество документов в индексе.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// CountByStatus возвращает количество документов в каждом статусе.
func (idx *Index) CountByStatus() map[model.Status]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[model.Status]int)
	for _, m := range idx.docs {
		out[m.Status]++
	}
	return out
}
