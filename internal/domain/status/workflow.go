// Пакет status — конечный автомат статусов документов.
//
// Для каждого вида документа действует своя матрица переходов:
//
//	adhoc:  pending -> completed | cancelled
//	report: draft -> final -> printed
//
// Терминальные статусы (completed, cancelled, printed) переходов не имеют.
// Каждый успешный переход ставит свой timestamp ровно один раз и
// обновляет UpdatedAt.
package status

import (
	"fmt"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// validTransitions — матрица допустимых переходов по видам документов.
var validTransitions = map[model.DocumentKind]map[model.Status]map[model.Status]bool{
	model.KindAdHoc: {
		model.StatusPending: {
			model.StatusCompleted: true,
			model.StatusCancelled: true,
		},
		model.StatusCompleted: {},
		model.StatusCancelled: {},
	},
	model.KindReport: {
		model.StatusDraft: {
			model.StatusFinal: true,
		},
		model.StatusFinal: {
			model.StatusPrinted: true,
		},
		model.StatusPrinted: {},
	},
}

// Default возвращает начальный статус для вида документа.
func Default(kind model.DocumentKind) model.Status {
	if kind == model.KindReport {
		return model.StatusDraft
	}
	return model.StatusPending
}

// Parse проверяет строку статуса и возвращает типизированное значение.
func Parse(s string) (model.Status, error) {
	switch model.Status(s) {
	case model.StatusPending, model.StatusCompleted, model.StatusCancelled,
		model.StatusDraft, model.StatusFinal, model.StatusPrinted:
		return model.Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrInvalidStatus, s)
	}
}

// KindOf возвращает вид документа, которому принадлежит статус.
func KindOf(s model.Status) (model.DocumentKind, error) {
	switch s {
	case model.StatusPending, model.StatusCompleted, model.StatusCancelled:
		return model.KindAdHoc, nil
	case model.StatusDraft, model.StatusFinal, model.StatusPrinted:
		return model.KindReport, nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrInvalidStatus, s)
	}
}

// CanTransition проверяет допустимость перехода без применения.
func CanTransition(kind model.DocumentKind, from, to model.Status) bool {
	byKind, ok := validTransitions[kind]
	if !ok {
		return false
	}
	targets, ok := byKind[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Transition применяет переход статуса к метаданным документа.
// Порядок проверок:
//  1. целевой статус известен и принадлежит виду документа;
//  2. текущий статус не терминальный (иначе ErrAlreadyFinal);
//  3. переход есть в матрице (иначе ErrInvalidStatus).
//
// При успехе обновляет Status, UpdatedAt и ставит timestamp перехода,
// если он ещё не был поставлен.
func Transition(m *model.Metadata, target model.Status, now time.Time) error {
	targetKind, err := KindOf(target)
	if err != nil {
		return err
	}
	if targetKind != m.Kind {
		return fmt.Errorf("%w: статус %q не применим к виду %q",
			model.ErrInvalidStatus, target, m.Kind)
	}

	if m.IsTerminal() {
		return fmt.Errorf("%w: текущий статус %q", model.ErrAlreadyFinal, m.Status)
	}

	if !CanTransition(m.Kind, m.Status, target) {
		return fmt.Errorf("%w: переход %q -> %q запрещён",
			model.ErrInvalidStatus, m.Status, target)
	}

	m.Status = target
	m.UpdatedAt = now

	// Timestamp перехода ставится ровно один раз
	switch target {
	case model.StatusCompleted:
		if m.CompletedAt == nil {
			m.CompletedAt = &now
		}
	case model.StatusCancelled:
		if m.CancelledAt == nil {
			m.CancelledAt = &now
		}
	case model.StatusFinal:
		if m.FinalizedAt == nil {
			m.FinalizedAt = &now
		}
	case model.StatusPrinted:
		if m.PrintedAt == nil {
			m.PrintedAt = &now
		}
	}

	return nil
}
