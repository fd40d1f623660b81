// Пакет edit — журнал правок документов и сводная статистика.
//
// Журнал append-only: записи добавляются в конец EditHistory, счётчики
// EditCount/IsModified/LastEditDate выводятся из журнала и поддерживаются
// согласованными при каждом добавлении.
package edit

import (
	"math"
	"sort"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// Append добавляет запись в журнал правок и обновляет производные поля.
func Append(m *model.Metadata, entry model.EditEntry) {
	m.EditHistory = append(m.EditHistory, entry)
	m.EditCount = len(m.EditHistory)
	m.IsModified = true
	d := entry.EditDate
	m.LastEditDate = &d
	m.FileSize = entry.FileSizeAfter
	m.UpdatedAt = entry.EditDate
}

// Reset очищает журнал правок и сбрасывает производные поля.
// Содержимое документа и остальные метаданные не затрагиваются.
func Reset(m *model.Metadata, now time.Time) {
	m.EditHistory = nil
	m.EditCount = 0
	m.IsModified = false
	m.LastEditDate = nil
	m.UpdatedAt = now
}

// RecentEdit — элемент списка последних правок в сводке.
type RecentEdit struct {
	FileName     string    `json:"file_name"`
	StoragePath  string    `json:"storage_path"`
	LastEditDate time.Time `json:"last_edit_date"`
	EditCount    int       `json:"edit_count"`
}

// Stats — сводная статистика правок по набору документов.
type Stats struct {
	TotalDocuments int `json:"total_documents"`
	Modified       int `json:"modified"`
	Unmodified     int `json:"unmodified"`
	TotalEdits     int `json:"total_edits"`

	// AverageEdits — среднее число правок на документ,
	// округлено до двух знаков
	AverageEdits float64 `json:"average_edits"`

	// MostEdited — имя документа с наибольшим числом правок,
	// пустая строка если правок не было
	MostEdited string `json:"most_edited,omitempty"`

	// RecentEdits — последние правки, новые первыми
	RecentEdits []RecentEdit `json:"recent_edits"`
}

// Summarize строит сводку правок по набору документов.
// recentLimit ограничивает длину списка RecentEdits.
func Summarize(docs []model.Metadata, recentLimit int) Stats {
	stats := Stats{
		TotalDocuments: len(docs),
		RecentEdits:    []RecentEdit{},
	}

	maxEdits := 0
	for i := range docs {
		d := &docs[i]
		if d.IsModified {
			stats.Modified++
		} else {
			stats.Unmodified++
		}
		stats.TotalEdits += d.EditCount
		if d.EditCount > maxEdits {
			maxEdits = d.EditCount
			stats.MostEdited = d.FileName
		}
		if d.LastEditDate != nil {
			stats.RecentEdits = append(stats.RecentEdits, RecentEdit{
				FileName:     d.FileName,
				StoragePath:  d.StoragePath,
				LastEditDate: *d.LastEditDate,
				EditCount:    d.EditCount,
			})
		}
	}

	if stats.TotalDocuments > 0 {
		avg := float64(stats.TotalEdits) / float64(stats.TotalDocuments)
		stats.AverageEdits = math.Round(avg*100) / 100
	}

	sort.Slice(stats.RecentEdits, func(i, j int) bool {
		return stats.RecentEdits[i].LastEditDate.After(stats.RecentEdits[j].LastEditDate)
	})
	if recentLimit > 0 && len(stats.RecentEdits) > recentLimit {
		stats.RecentEdits = stats.RecentEdits[:recentLimit]
	}

	return stats
}
