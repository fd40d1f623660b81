// Пакет codec — кодирование документов в самоописывающий HTML.
//
// При записи в содержимое документа встраивается баннер — HTML-комментарий
// с JSON-копией ключевых метаданных. Файл остаётся валидным HTML и читаем
// без sidecar-а. При чтении баннер вырезается.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

const (
	bannerOpen  = "<!-- report-store:metadata"
	bannerClose = "-->"
)

// Codec — кодек содержимого документов с валидацией размера.
type Codec struct {
	maxSize int64
}

// New создаёт Codec. maxSize — максимальный размер содержимого в байтах.
func New(maxSize int64) *Codec {
	return &Codec{maxSize: maxSize}
}

// MaxSize возвращает настроенный максимальный размер содержимого.
func (c *Codec) MaxSize() int64 {
	return c.maxSize
}

// bannerMeta — подмножество метаданных, встраиваемое в баннер.
type bannerMeta struct {
	FileName    string             `json:"file_name"`
	Kind        model.DocumentKind `json:"kind"`
	PatientName string             `json:"patient_name,omitempty"`
	OrderNumber string             `json:"order_number,omitempty"`
	DoctorName  string             `json:"doctor_name,omitempty"`
	Status      model.Status       `json:"status"`
	UploadedAt  string             `json:"uploaded_at"`
	Source      string             `json:"source,omitempty"`
}

// Validate проверяет содержимое документа до записи.
// Пустое содержимое и содержимое без единого тега разметки —
// ErrInvalidContent, превышение размера — ErrContentTooLarge.
func (c *Codec) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: пустое содержимое", model.ErrInvalidContent)
	}
	if int64(len(content)) > c.maxSize {
		return fmt.Errorf("%w: %d байт при лимите %d",
			model.ErrContentTooLarge, len(content), c.maxSize)
	}
	if !containsMarkup(content) {
		return fmt.Errorf("%w: разметка не обнаружена", model.ErrInvalidContent)
	}
	return nil
}

// containsMarkup ищет хотя бы один токен тега: '<' за которым следует
// буква, '!' или '/'.
func containsMarkup(content string) bool {
	for i := 0; i+1 < len(content); i++ {
		if content[i] != '<' {
			continue
		}
		next := content[i+1]
		if next == '!' || next == '/' ||
			(next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
			return true
		}
	}
	return false
}

// Encode встраивает баннер метаданных в содержимое документа.
// Баннер вставляется после строки <!DOCTYPE ...>, если она есть;
// иначе перед корневым <html; если корня нет — содержимое оборачивается
// в минимальный HTML-конверт.
func (c *Codec) Encode(content string, m *model.Metadata) (string, error) {
	if err := c.Validate(content); err != nil {
		return "", err
	}

	banner, err := renderBanner(m)
	if err != nil {
		return "", fmt.Errorf("сериализация баннера: %w", err)
	}

	lower := strings.ToLower(content)

	if idx := strings.Index(lower, "<!doctype"); idx >= 0 {
		// После строки с DOCTYPE
		end := strings.IndexByte(content[idx:], '>')
		if end >= 0 {
			pos := idx + end + 1
			return content[:pos] + "\n" + banner + content[pos:], nil
		}
	}

	if idx := strings.Index(lower, "<html"); idx >= 0 {
		return content[:idx] + banner + "\n" + content[idx:], nil
	}

	// Фрагмент без корневого элемента — оборачиваем в конверт
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(banner)
	sb.WriteString("\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	sb.WriteString(content)
	sb.WriteString("\n</body>\n</html>\n")
	return sb.String(), nil
}

// Decode вырезает баннер метаданных из содержимого.
// Содержимое без баннера возвращается как есть.
func (c *Codec) Decode(encoded string) string {
	start := strings.Index(encoded, bannerOpen)
	if start < 0 {
		return encoded
	}
	rest := encoded[start+len(bannerOpen):]
	end := strings.Index(rest, bannerClose)
	if end < 0 {
		return encoded
	}
	tail := rest[end+len(bannerClose):]
	// Перевод строки после баннера принадлежит баннеру
	tail = strings.TrimPrefix(tail, "\n")
	head := strings.TrimSuffix(encoded[:start], "\n")
	if head == "" {
		return strings.TrimPrefix(tail, "\n")
	}
	return head + "\n" + tail
}

// renderBanner сериализует баннер с отформатированным JSON.
func renderBanner(m *model.Metadata) (string, error) {
	bm := bannerMeta{
		FileName:    m.FileName,
		Kind:        m.Kind,
		PatientName: m.PatientName,
		OrderNumber: m.OrderNumber,
		DoctorName:  m.DoctorName,
		Status:      m.Status,
		UploadedAt:  m.UploadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Source:      m.Source,
	}
	data, err := json.MarshalIndent(bm, "", "  ")
	if err != nil {
		return "", err
	}
	return bannerOpen + "\n" + string(data) + "\n" + bannerClose, nil
}
