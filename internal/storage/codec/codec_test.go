package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

func testMetadata() *model.Metadata {
	return &model.Metadata{
		FileName:    "frontend_informe_20260831_120000_a1b2c3d4.html",
		Kind:        model.KindAdHoc,
		PatientName: "María López",
		Status:      model.StatusPending,
		UploadedAt:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Source:      "frontend",
	}
}

// TestValidate проверяет правила валидации содержимого.
func TestValidate(t *testing.T) {
	c := New(1024)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"валидный HTML", "<html><body>ok</body></html>", nil},
		{"пустое содержимое", "", model.ErrInvalidContent},
		{"только пробелы", "   \n\t ", model.ErrInvalidContent},
		{"без разметки", "просто текст без тегов", model.ErrInvalidContent},
		{"превышение размера", "<p>" + strings.Repeat("x", 2048) + "</p>", model.ErrContentTooLarge},
		{"закрывающий тег считается разметкой", "текст </div>", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.content)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("ожидалась %v, получено %v", tt.wantErr, err)
			}
		})
	}
}

// TestEncodeDecodeRoundTrip проверяет, что Decode(Encode(x)) == x
// для документа с DOCTYPE.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New(1 << 20)
	content := "<!DOCTYPE html>\n<html><head><title>Informe</title></head><body><p>Resultado</p></body></html>"

	encoded, err := c.Encode(content, testMetadata())
	if err != nil {
		t.Fatalf("ошибка Encode: %v", err)
	}

	if !strings.Contains(encoded, "report-store:metadata") {
		t.Error("баннер не встроен")
	}
	if !strings.Contains(encoded, "María López") {
		t.Error("метаданные не попали в баннер")
	}

	decoded := c.Decode(encoded)
	if decoded != content {
		t.Errorf("round-trip нарушен:\nожидалось: %q\nполучено:  %q", content, decoded)
	}
}

// TestEncodeWithoutDoctype проверяет вставку баннера перед <html>.
func TestEncodeWithoutDoctype(t *testing.T) {
	c := New(1 << 20)
	content := "<html><body>x</body></html>"

	encoded, err := c.Encode(content, testMetadata())
	if err != nil {
		t.Fatalf("ошибка Encode: %v", err)
	}

	bannerIdx := strings.Index(encoded, "report-store:metadata")
	htmlIdx := strings.Index(encoded, "<html")
	if bannerIdx < 0 || htmlIdx < 0 || bannerIdx > htmlIdx {
		t.Errorf("баннер должен стоять перед <html>: %q", encoded)
	}
}

// TestEncodeFragment проверяет оборачивание фрагмента в HTML-конверт.
func TestEncodeFragment(t *testing.T) {
	c := New(1 << 20)
	content := "<p>фрагмент без корневого элемента</p>"

	encoded, err := c.Encode(content, testMetadata())
	if err != nil {
		t.Fatalf("ошибка Encode: %v", err)
	}

	if !strings.HasPrefix(encoded, "<!DOCTYPE html>") {
		t.Error("конверт должен начинаться с DOCTYPE")
	}
	if !strings.Contains(encoded, content) {
		t.Error("фрагмент потерян при оборачивании")
	}
	if !strings.Contains(encoded, "</html>") {
		t.Error("конверт не закрыт")
	}
}

// TestEncodeBannerHostileValues проверяет, что значения метаданных
// не могут преждевременно закрыть HTML-комментарий баннера: сериализация
// JSON экранирует '<', '>' и '&' как \u003c, \u003e, \u0026.
func TestEncodeBannerHostileValues(t *testing.T) {
	c := New(1 << 20)
	content := "<!DOCTYPE html>\n<html><body><p>Resultado</p></body></html>"

	m := testMetadata()
	m.PatientName = `x --> <script>alert(1)</script>`
	m.DoctorName = "Dr. --> y"

	encoded, err := c.Encode(content, m)
	if err != nil {
		t.Fatalf("ошибка Encode: %v", err)
	}

	// Единственный "-->" в документе — закрывающий маркер баннера
	if n := strings.Count(encoded, "-->"); n != 1 {
		t.Errorf("ожидался ровно один маркер закрытия, найдено %d:\n%s", n, encoded)
	}
	if !strings.Contains(encoded, `--\u003e`) {
		t.Error("значение с --\u003e не экранировано в баннере")
	}

	decoded := c.Decode(encoded)
	if decoded != content {
		t.Errorf("round-trip нарушен:\nожидалось: %q\nполучено:  %q", content, decoded)
	}
}

// TestDecodeWithoutBanner проверяет, что содержимое без баннера
// возвращается как есть.
func TestDecodeWithoutBanner(t *testing.T) {
	c := New(1 << 20)
	content := "<html><body>без баннера</body></html>"
	if got := c.Decode(content); got != content {
		t.Errorf("содержимое изменено: %q", got)
	}
}
