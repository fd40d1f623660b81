package edit

import (
	"testing"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// TestAppend проверяет согласованность производных полей журнала.
func TestAppend(t *testing.T) {
	m := &model.Metadata{FileSize: 100}
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	Append(m, model.EditEntry{
		EditDate:       first,
		EditedBy:       "user-1",
		FileSizeBefore: 100,
		FileSizeAfter:  150,
	})

	if m.EditCount != 1 {
		t.Errorf("EditCount: ожидалось 1, получено %d", m.EditCount)
	}
	if !m.IsModified {
		t.Error("IsModified должен быть true после правки")
	}
	if m.LastEditDate == nil || !m.LastEditDate.Equal(first) {
		t.Errorf("LastEditDate: получено %v", m.LastEditDate)
	}
	if m.FileSize != 150 {
		t.Errorf("FileSize: ожидалось 150, получено %d", m.FileSize)
	}

	Append(m, model.EditEntry{
		EditDate:       second,
		EditedBy:       "user-2",
		FileSizeBefore: 150,
		FileSizeAfter:  120,
	})

	if m.EditCount != len(m.EditHistory) {
		t.Errorf("EditCount (%d) != len(EditHistory) (%d)", m.EditCount, len(m.EditHistory))
	}
	if !m.LastEditDate.Equal(second) {
		t.Errorf("LastEditDate не обновлён: %v", m.LastEditDate)
	}
	// Журнал append-only: первая запись на месте
	if m.EditHistory[0].EditedBy != "user-1" {
		t.Errorf("порядок журнала нарушен: %+v", m.EditHistory)
	}
}

// TestReset проверяет сброс журнала правок.
func TestReset(t *testing.T) {
	now := time.Now().UTC()
	m := &model.Metadata{}
	Append(m, model.EditEntry{EditDate: now, FileSizeAfter: 10})

	Reset(m, now.Add(time.Minute))

	if m.EditCount != 0 || m.IsModified || m.LastEditDate != nil || len(m.EditHistory) != 0 {
		t.Errorf("журнал не сброшен: %+v", m)
	}
}

// TestSummarize проверяет сводную статистику правок.
func TestSummarize(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	docs := []model.Metadata{
		{FileName: "a.html", EditCount: 3, IsModified: true, LastEditDate: &t1},
		{FileName: "b.html", EditCount: 1, IsModified: true, LastEditDate: &t3},
		{FileName: "c.html", EditCount: 0},
		{FileName: "d.html", EditCount: 1, IsModified: true, LastEditDate: &t2},
	}

	stats := Summarize(docs, 2)

	if stats.TotalDocuments != 4 {
		t.Errorf("TotalDocuments: ожидалось 4, получено %d", stats.TotalDocuments)
	}
	if stats.Modified != 3 || stats.Unmodified != 1 {
		t.Errorf("Modified/Unmodified: получено %d/%d", stats.Modified, stats.Unmodified)
	}
	if stats.TotalEdits != 5 {
		t.Errorf("TotalEdits: ожидалось 5, получено %d", stats.TotalEdits)
	}
	// 5/4 = 1.25
	if stats.AverageEdits != 1.25 {
		t.Errorf("AverageEdits: ожидалось 1.25, получено %v", stats.AverageEdits)
	}
	if stats.MostEdited != "a.html" {
		t.Errorf("MostEdited: ожидалось a.html, получено %q", stats.MostEdited)
	}

	// Последние правки: новые первыми, длина ограничена
	if len(stats.RecentEdits) != 2 {
		t.Fatalf("RecentEdits: ожидалось 2 записи, получено %d", len(stats.RecentEdits))
	}
	if stats.RecentEdits[0].FileName != "b.html" || stats.RecentEdits[1].FileName != "d.html" {
		t.Errorf("порядок RecentEdits: %+v", stats.RecentEdits)
	}
}

// TestSummarizeRounding проверяет округление среднего до двух знаков.
func TestSummarizeRounding(t *testing.T) {
	docs := []model.Metadata{
		{FileName: "a.html", EditCount: 1},
		{FileName: "b.html", EditCount: 1},
		{FileName: "c.html", EditCount: 0},
	}

	stats := Summarize(docs, 10)

	// 2/3 = 0.666... -> 0.67
	if stats.AverageEdits != 0.67 {
		t.Errorf("AverageEdits: ожидалось 0.67, получено %v", stats.AverageEdits)
	}
}

// TestSummarizeEmpty проверяет сводку по пустому набору.
func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, 10)
	if stats.TotalDocuments != 0 || stats.AverageEdits != 0 || stats.MostEdited != "" {
		t.Errorf("пустой набор: %+v", stats)
	}
}
