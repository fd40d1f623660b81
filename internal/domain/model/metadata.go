// Пакет model — доменные модели хранилища лабораторных документов.
// Metadata — единое представление метаданных документа: используется
// в памяти (индекс) и как формат sidecar-файла (*.meta) на диске.
package model

import (
	"time"
)

// DocumentKind — вид документа. Для каждого вида действует
// собственный словарь статусов.
type DocumentKind string

const (
	// KindAdHoc — произвольный HTML из фронтенда (pending/completed/cancelled)
	KindAdHoc DocumentKind = "adhoc"
	// KindReport — формальный лабораторный отчёт (draft/final/printed)
	KindReport DocumentKind = "report"
)

// Status — статус документа.
type Status string

const (
	// StatusPending — документ ожидает обработки (adhoc, начальный)
	StatusPending Status = "pending"
	// StatusCompleted — обработка завершена (adhoc, терминальный)
	StatusCompleted Status = "completed"
	// StatusCancelled — обработка отменена (adhoc, терминальный)
	StatusCancelled Status = "cancelled"
	// StatusDraft — черновик отчёта (report, начальный)
	StatusDraft Status = "draft"
	// StatusFinal — отчёт утверждён (report)
	StatusFinal Status = "final"
	// StatusPrinted — отчёт распечатан (report, терминальный)
	StatusPrinted Status = "printed"
)

// EditEntry — одна запись журнала правок документа.
// Записи неизменяемы после добавления в журнал.
type EditEntry struct {
	// EditDate — дата и время правки (UTC)
	EditDate time.Time `json:"edit_date"`

	// EditedBy — идентификатор автора правки (subject из JWT)
	EditedBy string `json:"edited_by"`

	// EditReason — причина правки в свободной форме
	EditReason string `json:"edit_reason"`

	// FileSizeBefore — размер документа до правки в байтах
	FileSizeBefore int64 `json:"file_size_before"`

	// FileSizeAfter — размер документа после правки в байтах
	FileSizeAfter int64 `json:"file_size_after"`

	// ChangesSummary — краткое описание изменений
	ChangesSummary string `json:"changes_summary"`
}

// Metadata — метаданные документа. Сериализуется в sidecar *.meta.
type Metadata struct {
	// FileName — сгенерированное имя файла, уникальное в пределах хранилища.
	// Формат: {prefix}_{name}_{YYYYMMDD_HHMMSS}_{uuid8}.{ext}
	FileName string `json:"file_name"`

	// StoragePath — относительный путь файла от корня хранилища,
	// включая партицию год/месяц: "2026/08/frontend_..._a1b2c3d4.html".
	// Служит внешней ссылкой на документ.
	StoragePath string `json:"storage_path"`

	// OriginalFilename — имя, переданное клиентом при загрузке
	OriginalFilename string `json:"original_filename,omitempty"`

	// Prefix — префикс, использованный при генерации имени
	Prefix string `json:"prefix,omitempty"`

	// Kind — вид документа (adhoc или report)
	Kind DocumentKind `json:"kind"`

	// PatientName — имя пациента
	PatientName string `json:"patient_name,omitempty"`

	// PatientAge — возраст пациента
	PatientAge *int `json:"patient_age,omitempty"`

	// PatientGender — пол пациента
	PatientGender string `json:"patient_gender,omitempty"`

	// OrderNumber — номер заказа
	OrderNumber string `json:"order_number,omitempty"`

	// DoctorName — лечащий врач
	DoctorName string `json:"doctor_name,omitempty"`

	// Notes — примечания
	Notes string `json:"notes,omitempty"`

	// ReceptionDate — дата приёма материала, как передана клиентом
	ReceptionDate string `json:"reception_date,omitempty"`

	// Tests — упорядоченный список исследований
	Tests []string `json:"tests,omitempty"`

	// CreatedBy — идентификатор создателя документа (subject из JWT)
	CreatedBy string `json:"created_by,omitempty"`

	// Source — источник документа ("frontend" по умолчанию)
	Source string `json:"source,omitempty"`

	// Status — текущий статус документа
	Status Status `json:"status"`

	// UploadedAt — время загрузки (UTC)
	UploadedAt time.Time `json:"uploaded_at"`

	// CreatedAt — время создания (UTC)
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения документа или метаданных (UTC)
	UpdatedAt time.Time `json:"updated_at"`

	// CompletedAt — время перехода в completed. Ставится ровно один раз.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// CancelledAt — время перехода в cancelled. Ставится ровно один раз.
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// FinalizedAt — время перехода в final. Ставится ровно один раз.
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`

	// PrintedAt — время перехода в printed. Ставится ровно один раз.
	PrintedAt *time.Time `json:"printed_at,omitempty"`

	// FileSize — размер файла документа в байтах.
	// Инвариант: совпадает с фактическим размером после каждой записи.
	FileSize int64 `json:"file_size"`

	// EditCount — количество правок.
	// Инвариант: EditCount == len(EditHistory).
	EditCount int `json:"edit_count"`

	// IsModified — документ правился хотя бы один раз.
	// Инвариант: IsModified == (EditCount > 0).
	IsModified bool `json:"is_modified"`

	// LastEditDate — время последней правки, nil пока правок не было
	LastEditDate *time.Time `json:"last_edit_date,omitempty"`

	// EditHistory — append-only журнал правок в хронологическом порядке
	EditHistory []EditEntry `json:"edit_history"`
}

// IsEditable сообщает, допускает ли текущий статус изменение содержимого.
// Редактируемы только pending и draft.
func (m *Metadata) IsEditable() bool {
	return m.Status == StatusPending || m.Status == StatusDraft
}

// IsTerminal сообщает, является ли текущий статус терминальным.
func (m *Metadata) IsTerminal() bool {
	switch m.Status {
	case StatusCompleted, StatusCancelled, StatusPrinted:
		return true
	default:
		return false
	}
}
