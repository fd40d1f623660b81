// Пакет docstore — хранилище документов поверх файловой системы.
//
// Документ — пара файлов в партиции год/месяц: содержимое (HTML с
// встроенным баннером метаданных) и sidecar *.meta. Содержимое пишется
// атомарно (временный файл, fsync, rename), sidecar — после содержимого.
// Все мутации синхронно обновляют in-memory индекс.
package docstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/edit"
	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
	"github.com/CarlosAHP/AppLaBackend/internal/domain/status"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/codec"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/index"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/partition"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/sidecar"
)

// maxNameAttempts — число попыток генерации уникального имени.
const maxNameAttempts = 5

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rs_document_operations_total",
			Help: "Количество операций с документами по типу и результату",
		},
		[]string{"operation", "result"},
	)

	documentsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rs_documents_total",
			Help: "Количество документов в хранилище по статусам",
		},
		[]string{"status"},
	)
)

// CreateRequest — параметры создания документа.
type CreateRequest struct {
	Content          string
	Kind             model.DocumentKind
	Prefix           string
	OriginalFilename string
	PatientName      string
	PatientAge       *int
	PatientGender    string
	OrderNumber      string
	DoctorName       string
	Notes            string
	ReceptionDate    string
	Tests            []string
	CreatedBy        string
	Source           string
}

// EditRequest — параметры правки документа.
type EditRequest struct {
	Content    string
	EditedBy   string
	EditReason string
	Summary    string
}

// Document — документ с метаданными и, опционально, содержимым.
type Document struct {
	Meta model.Metadata
	Body string
}

// Store — хранилище документов.
type Store struct {
	parts         *partition.Partitioner
	codec         *codec.Codec
	idx           *index.Index
	cache         *expirable.LRU[string, string]
	defaultPrefix string
	logger        *slog.Logger
	now           func() time.Time
}

// New создаёт хранилище документов.
// cacheSize и cacheTTL настраивают LRU-кеш содержимого для чтений.
func New(
	parts *partition.Partitioner,
	c *codec.Codec,
	idx *index.Index,
	cacheSize int,
	cacheTTL time.Duration,
	defaultPrefix string,
	logger *slog.Logger,
) *Store {
	return &Store{
		parts:         parts,
		codec:         c,
		idx:           idx,
		cache:         expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
		defaultPrefix: defaultPrefix,
		logger:        logger.With(slog.String("component", "docstore")),
		now:           time.Now,
	}
}

// Create создаёт новый документ: генерирует имя, кодирует содержимое,
// атомарно пишет файл и sidecar, обновляет индекс.
func (s *Store) Create(req CreateRequest) (*model.Metadata, error) {
	m, err := s.create(req)
	if err != nil {
		operationsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	operationsTotal.WithLabelValues("create", "success").Inc()
	s.syncStatusGauge()
	return m, nil
}

func (s *Store) create(req CreateRequest) (*model.Metadata, error) {
	if err := s.codec.Validate(req.Content); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	kind := req.Kind
	if kind == "" {
		kind = model.KindAdHoc
	}
	if kind != model.KindAdHoc && kind != model.KindReport {
		return nil, fmt.Errorf("%w: неизвестный вид документа %q",
			model.ErrInvalidStatus, kind)
	}

	prefix := req.Prefix
	if prefix == "" {
		prefix = s.defaultPrefix
	}
	source := req.Source
	if source == "" {
		source = "frontend"
	}

	dir, err := s.parts.Resolve(now)
	if err != nil {
		return nil, err
	}
	relDir := s.parts.Rel(now)

	// Генерация имени с повтором при коллизии
	var fileName, contentPath string
	for attempt := 0; ; attempt++ {
		fileName = generateName(prefix, req.OriginalFilename, now)
		contentPath = filepath.Join(dir, fileName)
		if _, err := os.Stat(contentPath); os.IsNotExist(err) {
			break
		}
		if attempt+1 >= maxNameAttempts {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateReference, fileName)
		}
	}

	m := &model.Metadata{
		FileName:         fileName,
		StoragePath:      filepath.Join(relDir, fileName),
		OriginalFilename: req.OriginalFilename,
		Prefix:           prefix,
		Kind:             kind,
		PatientName:      req.PatientName,
		PatientAge:       req.PatientAge,
		PatientGender:    req.PatientGender,
		OrderNumber:      req.OrderNumber,
		DoctorName:       req.DoctorName,
		Notes:            req.Notes,
		ReceptionDate:    req.ReceptionDate,
		Tests:            req.Tests,
		CreatedBy:        req.CreatedBy,
		Source:           source,
		Status:           status.Default(kind),
		UploadedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
		EditHistory:      []model.EditEntry{},
	}

	encoded, err := s.codec.Encode(req.Content, m)
	if err != nil {
		return nil, err
	}
	m.FileSize = int64(len(encoded))

	if err := writeFileAtomic(contentPath, []byte(encoded)); err != nil {
		return nil, fmt.Errorf("запись документа %s: %w", m.StoragePath, err)
	}

	if err := sidecar.Write(contentPath, m); err != nil {
		// Содержимое уже на диске; пара неполная, документ невидим для
		// чтений до пересканирования
		s.logger.Error("Sidecar не записан, пара неполная",
			slog.String("path", m.StoragePath), slog.String("error", err.Error()))
		return nil, fmt.Errorf("запись метаданных %s: %w", m.StoragePath, err)
	}

	s.idx.Add(m)
	s.logger.Info("Документ создан",
		slog.String("file_name", m.FileName),
		slog.String("kind", string(m.Kind)),
		slog.Int64("size", m.FileSize))
	return m, nil
}

// Read возвращает документ по относительному пути.
// При includeBody содержимое читается через LRU-кеш, баннер вырезается.
// Неполная пара (файл без sidecar или наоборот) — ErrNotFound.
func (s *Store) Read(rel string, includeBody bool) (*Document, error) {
	contentPath := s.parts.FullPath(rel)

	m, err := sidecar.Read(contentPath)
	if err != nil {
		if _, statErr := os.Stat(contentPath); statErr == nil {
			s.logger.Warn("Документ без sidecar-а",
				slog.String("path", rel))
		}
		return nil, err
	}
	if _, err := os.Stat(contentPath); err != nil {
		s.logger.Warn("Sidecar без документа",
			slog.String("path", rel))
		return nil, fmt.Errorf("%w: содержимое %s", model.ErrNotFound, rel)
	}

	doc := &Document{Meta: *m}
	if includeBody {
		body, err := s.readBody(rel, contentPath)
		if err != nil {
			return nil, err
		}
		doc.Body = body
	}
	return doc, nil
}

// readBody читает содержимое документа через кеш.
func (s *Store) readBody(rel, contentPath string) (string, error) {
	if body, ok := s.cache.Get(rel); ok {
		return body, nil
	}
	data, err := os.ReadFile(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: содержимое %s", model.ErrNotFound, rel)
		}
		return "", fmt.Errorf("чтение документа %s: %w", rel, err)
	}
	body := s.codec.Decode(string(data))
	s.cache.Add(rel, body)
	return body, nil
}

// Update заменяет содержимое документа и добавляет запись в журнал правок.
// Разрешён только для редактируемых статусов (pending, draft).
func (s *Store) Update(rel string, req EditRequest) (*model.Metadata, error) {
	m, err := s.update(rel, req)
	if err != nil {
		operationsTotal.WithLabelValues("update", "error").Inc()
		return nil, err
	}
	operationsTotal.WithLabelValues("update", "success").Inc()
	return m, nil
}

func (s *Store) update(rel string, req EditRequest) (*model.Metadata, error) {
	contentPath := s.parts.FullPath(rel)

	m, err := sidecar.Read(contentPath)
	if err != nil {
		return nil, err
	}
	if !m.IsEditable() {
		return nil, fmt.Errorf("%w: статус %q", model.ErrNotEditable, m.Status)
	}
	if err := s.codec.Validate(req.Content); err != nil {
		return nil, err
	}

	sizeBefore := m.FileSize
	now := s.now().UTC()

	encoded, err := s.codec.Encode(req.Content, m)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(contentPath, []byte(encoded)); err != nil {
		return nil, fmt.Errorf("запись документа %s: %w", rel, err)
	}

	edit.Append(m, model.EditEntry{
		EditDate:       now,
		EditedBy:       req.EditedBy,
		EditReason:     req.EditReason,
		FileSizeBefore: sizeBefore,
		FileSizeAfter:  int64(len(encoded)),
		ChangesSummary: req.Summary,
	})

	if err := sidecar.Write(contentPath, m); err != nil {
		return nil, fmt.Errorf("запись метаданных %s: %w", rel, err)
	}

	s.idx.Update(m)
	s.cache.Remove(rel)
	s.logger.Info("Документ обновлён",
		slog.String("path", rel),
		slog.Int("edit_count", m.EditCount))
	return m, nil
}

// MarkModified добавляет запись в журнал правок без изменения содержимого.
// Используется, когда документ правится внешним инструментом.
func (s *Store) MarkModified(rel, editedBy, reason string) (*model.Metadata, error) {
	contentPath := s.parts.FullPath(rel)

	m, err := sidecar.Read(contentPath)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	edit.Append(m, model.EditEntry{
		EditDate:       now,
		EditedBy:       editedBy,
		EditReason:     reason,
		FileSizeBefore: m.FileSize,
		FileSizeAfter:  m.FileSize,
		ChangesSummary: "отмечен как изменённый",
	})

	if err := sidecar.Write(contentPath, m); err != nil {
		return nil, fmt.Errorf("запись метаданных %s: %w", rel, err)
	}

	s.idx.Update(m)
	s.cache.Remove(rel)
	return m, nil
}

// ResetEditTracking очищает журнал правок документа.
func (s *Store) ResetEditTracking(rel string) (*model.Metadata, error) {
	contentPath := s.parts.FullPath(rel)

	m, err := sidecar.Read(contentPath)
	if err != nil {
		return nil, err
	}

	edit.Reset(m, s.now().UTC())

	if err := sidecar.Write(contentPath, m); err != nil {
		return nil, fmt.Errorf("запись метаданных %s: %w", rel, err)
	}

	s.idx.Update(m)
	return m, nil
}

// ChangeStatus применяет переход статуса и сохраняет метаданные.
func (s *Store) ChangeStatus(rel string, target model.Status) (*model.Metadata, error) {
	contentPath := s.parts.FullPath(rel)

	m, err := sidecar.Read(contentPath)
	if err != nil {
		operationsTotal.WithLabelValues("status", "error").Inc()
		return nil, err
	}

	if err := status.Transition(m, target, s.now().UTC()); err != nil {
		operationsTotal.WithLabelValues("status", "error").Inc()
		return nil, err
	}

	if err := sidecar.Write(contentPath, m); err != nil {
		operationsTotal.WithLabelValues("status", "error").Inc()
		return nil, fmt.Errorf("запись метаданных %s: %w", rel, err)
	}

	s.idx.Update(m)
	operationsTotal.WithLabelValues("status", "success").Inc()
	s.syncStatusGauge()
	s.logger.Info("Статус изменён",
		slog.String("path", rel),
		slog.String("status", string(target)))
	return m, nil
}

// Delete удаляет документ и его sidecar.
// Разрешено только для редактируемых статусов.
func (s *Store) Delete(rel string) error {
	if err := s.delete(rel); err != nil {
		operationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	operationsTotal.WithLabelValues("delete", "success").Inc()
	s.syncStatusGauge()
	return nil
}

func (s *Store) delete(rel string) error {
	contentPath := s.parts.FullPath(rel)

	m, err := sidecar.Read(contentPath)
	if err != nil {
		return err
	}
	if !m.IsEditable() {
		return fmt.Errorf("%w: статус %q", model.ErrNotEditable, m.Status)
	}

	if err := os.Remove(contentPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("удаление документа %s: %w", rel, err)
	}
	if err := sidecar.Delete(contentPath); err != nil {
		return err
	}

	s.idx.Remove(m.FileName)
	s.cache.Remove(rel)
	s.logger.Info("Документ удалён", slog.String("path", rel))
	return nil
}

// syncStatusGauge обновляет gauge количества документов по статусам.
func (s *Store) syncStatusGauge() {
	documentsTotal.Reset()
	for st, n := range s.idx.CountByStatus() {
		documentsTotal.WithLabelValues(string(st)).Set(float64(n))
	}
}

// writeFileAtomic записывает данные атомарно: временный файл, fsync, rename.
func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".doc-*.tmp")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("запись: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("закрытие: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// generateName строит имя файла документа:
// {prefix}_{очищенное имя}_{YYYYMMDD_HHMMSS}_{uuid8}{ext}.
// Расширение берётся из исходного имени, по умолчанию .html.
func generateName(prefix, original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".html"
	}
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	name := sanitizeName(base)

	ts := now.Format("20060102_150405")
	suffix := uuid.New().String()[:8]

	return fmt.Sprintf("%s_%s_%s_%s%s", prefix, name, ts, suffix, ext)
}

// sanitizeName оставляет в имени буквы (латиница с диакритикой,
// кириллица), цифры, дефис и подчёркивание. Остальное заменяется
// на подчёркивание, пустой результат — "document".
func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_',
			r >= 0x00C0 && r <= 0x00FF && r != 0x00D7 && r != 0x00F7,
			r >= 0x0400 && r <= 0x04FF:
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return "document"
	}
	return out
}
