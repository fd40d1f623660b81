package status

import (
	"errors"
	"testing"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// TestDefault проверяет начальные статусы по видам документов.
func TestDefault(t *testing.T) {
	if got := Default(model.KindAdHoc); got != model.StatusPending {
		t.Errorf("adhoc: ожидалось %q, получено %q", model.StatusPending, got)
	}
	if got := Default(model.KindReport); got != model.StatusDraft {
		t.Errorf("report: ожидалось %q, получено %q", model.StatusDraft, got)
	}
}

// TestParse проверяет разбор строковых статусов.
func TestParse(t *testing.T) {
	valid := []string{"pending", "completed", "cancelled", "draft", "final", "printed"}
	for _, s := range valid {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q): неожиданная ошибка %v", s, err)
		}
	}

	if _, err := Parse("archived"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Errorf("Parse(archived): ожидалась ErrInvalidStatus, получено %v", err)
	}
}

// TestTransitionMatrix проверяет матрицу переходов для обоих видов.
func TestTransitionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.DocumentKind
		from    model.Status
		to      model.Status
		wantErr error
	}{
		{"adhoc pending->completed", model.KindAdHoc, model.StatusPending, model.StatusCompleted, nil},
		{"adhoc pending->cancelled", model.KindAdHoc, model.StatusPending, model.StatusCancelled, nil},
		{"adhoc completed->cancelled", model.KindAdHoc, model.StatusCompleted, model.StatusCancelled, model.ErrAlreadyFinal},
		{"adhoc cancelled->completed", model.KindAdHoc, model.StatusCancelled, model.StatusCompleted, model.ErrAlreadyFinal},
		{"report draft->final", model.KindReport, model.StatusDraft, model.StatusFinal, nil},
		{"report final->printed", model.KindReport, model.StatusFinal, model.StatusPrinted, nil},
		{"report draft->printed", model.KindReport, model.StatusDraft, model.StatusPrinted, model.ErrInvalidStatus},
		{"report printed->draft", model.KindReport, model.StatusPrinted, model.StatusDraft, model.ErrAlreadyFinal},
		{"adhoc pending->final (чужой словарь)", model.KindAdHoc, model.StatusPending, model.StatusFinal, model.ErrInvalidStatus},
		{"report draft->completed (чужой словарь)", model.KindReport, model.StatusDraft, model.StatusCompleted, model.ErrInvalidStatus},
	}

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &model.Metadata{Kind: tt.kind, Status: tt.from}
			err := Transition(m, tt.to, now)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("неожиданная ошибка: %v", err)
				}
				if m.Status != tt.to {
					t.Errorf("статус: ожидалось %q, получено %q", tt.to, m.Status)
				}
				if !m.UpdatedAt.Equal(now) {
					t.Errorf("UpdatedAt не обновлён")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ожидалась %v, получено %v", tt.wantErr, err)
			}
			if m.Status != tt.from {
				t.Errorf("статус изменился при ошибке: %q", m.Status)
			}
		})
	}
}

// TestTransitionTimestamps проверяет, что timestamp перехода ставится ровно один раз.
func TestTransitionTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	m := &model.Metadata{Kind: model.KindAdHoc, Status: model.StatusPending}
	if err := Transition(m, model.StatusCompleted, now); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if m.CompletedAt == nil || !m.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt: ожидалось %v, получено %v", now, m.CompletedAt)
	}
	if m.CancelledAt != nil {
		t.Errorf("CancelledAt не должен быть установлен")
	}

	// Полная цепочка формального отчёта
	r := &model.Metadata{Kind: model.KindReport, Status: model.StatusDraft}
	later := now.Add(time.Hour)
	if err := Transition(r, model.StatusFinal, now); err != nil {
		t.Fatalf("draft->final: %v", err)
	}
	if err := Transition(r, model.StatusPrinted, later); err != nil {
		t.Fatalf("final->printed: %v", err)
	}
	if r.FinalizedAt == nil || !r.FinalizedAt.Equal(now) {
		t.Errorf("FinalizedAt: получено %v", r.FinalizedAt)
	}
	if r.PrintedAt == nil || !r.PrintedAt.Equal(later) {
		t.Errorf("PrintedAt: получено %v", r.PrintedAt)
	}
}

// TestIsEditable проверяет редактируемость по статусам.
func TestIsEditable(t *testing.T) {
	editable := []model.Status{model.StatusPending, model.StatusDraft}
	for _, st := range editable {
		m := &model.Metadata{Status: st}
		if !m.IsEditable() {
			t.Errorf("%q должен быть редактируемым", st)
		}
	}

	locked := []model.Status{
		model.StatusCompleted, model.StatusCancelled,
		model.StatusFinal, model.StatusPrinted,
	}
	for _, st := range locked {
		m := &model.Metadata{Status: st}
		if m.IsEditable() {
			t.Errorf("%q не должен быть редактируемым", st)
		}
	}
}
