// query.go — сервис выборок по документам хранилища.
//
// Выборки обслуживаются из in-memory индекса, построенного при старте
// по sidecar-файлам. Rescan перестраивает индекс по требованию.
package service

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/edit"
	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/index"
)

// Filters — критерии поиска. Пустое поле не участвует в фильтрации,
// непустые поля объединяются по И.
type Filters struct {
	// Query ищется одновременно по имени пациента, номеру заказа,
	// врачу, имени файла и примечаниям
	Query       string
	PatientName string
	OrderNumber string
	DoctorName  string
	Status      model.Status
	// From и To ограничивают момент создания документа.
	// Нулевое время снимает соответствующую границу.
	From time.Time
	To   time.Time
}

// QueryService — выборки и агрегаты по документам.
type QueryService struct {
	idx    *index.Index
	root   string
	logger *slog.Logger
}

// NewQueryService создаёт сервис выборок.
func NewQueryService(idx *index.Index, root string, logger *slog.Logger) *QueryService {
	return &QueryService{
		idx:    idx,
		root:   root,
		logger: logger.With(slog.String("component", "query")),
	}
}

// List возвращает страницу документов, новые изменения первыми,
// и общее количество документов.
func (q *QueryService) List(limit, offset int) ([]model.Metadata, int) {
	return q.idx.List(limit, offset)
}

// Search возвращает документы, удовлетворяющие всем заданным фильтрам.
// Сравнение подстрочное, без учёта регистра. Результат отсортирован
// по UpdatedAt по убыванию и ограничен limit.
func (q *QueryService) Search(f Filters, limit int) []model.Metadata {
	all := q.idx.All()

	out := make([]model.Metadata, 0)
	for i := range all {
		if matches(&all[i], f) {
			out = append(out, all[i])
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matches(m *model.Metadata, f Filters) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.PatientName != "" && !containsFold(m.PatientName, f.PatientName) {
		return false
	}
	if f.OrderNumber != "" && !containsFold(m.OrderNumber, f.OrderNumber) {
		return false
	}
	if f.DoctorName != "" && !containsFold(m.DoctorName, f.DoctorName) {
		return false
	}
	if !f.From.IsZero() && m.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && m.CreatedAt.After(f.To) {
		return false
	}
	if f.Query != "" {
		if !containsFold(m.PatientName, f.Query) &&
			!containsFold(m.OrderNumber, f.Query) &&
			!containsFold(m.DoctorName, f.Query) &&
			!containsFold(m.FileName, f.Query) &&
			!containsFold(m.Notes, f.Query) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ByStatus возвращает документы в заданном статусе.
// Порядок зависит от статуса:
//   - pending — старые первыми (очередь обработки, по CreatedAt);
//   - completed — по CompletedAt по убыванию;
//   - остальные — по UpdatedAt по убыванию.
func (q *QueryService) ByStatus(st model.Status, limit int) []model.Metadata {
	all := q.idx.All()

	out := make([]model.Metadata, 0)
	for i := range all {
		if all[i].Status == st {
			out = append(out, all[i])
		}
	}

	switch st {
	case model.StatusPending:
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case model.StatusCompleted:
		sort.Slice(out, func(i, j int) bool {
			ti, tj := out[i].CompletedAt, out[j].CompletedAt
			if ti == nil {
				return false
			}
			if tj == nil {
				return true
			}
			return ti.After(*tj)
		})
	default:
		sort.Slice(out, func(i, j int) bool {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByDateRange возвращает документы, созданные в интервале [from, to].
// Нулевое время снимает соответствующую границу.
func (q *QueryService) ByDateRange(from, to time.Time) []model.Metadata {
	return q.Search(Filters{From: from, To: to}, 0)
}

// Modified возвращает документы с хотя бы одной правкой,
// последние правки первыми.
func (q *QueryService) Modified(limit int) []model.Metadata {
	all := q.idx.All()

	out := make([]model.Metadata, 0)
	for i := range all {
		if all[i].IsModified {
			out = append(out, all[i])
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].LastEditDate, out[j].LastEditDate
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// StatusStats возвращает количество документов в каждом статусе.
func (q *QueryService) StatusStats() map[model.Status]int {
	return q.idx.CountByStatus()
}

// EditStats возвращает сводную статистику правок по всем документам.
func (q *QueryService) EditStats(recentLimit int) edit.Stats {
	return edit.Summarize(q.idx.All(), recentLimit)
}

// Rescan перестраивает индекс по файлам на диске.
func (q *QueryService) Rescan() error {
	q.logger.Info("Пересканирование хранилища")
	return q.idx.BuildFromRoot(q.root)
}
