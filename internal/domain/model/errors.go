// errors.go — доменные sentinel-ошибки хранилища документов.
// Проверяются через errors.Is, HTTP-слой отображает их в машиночитаемые коды.
package model

import "errors"

var (
	// ErrNotFound — документ или его sidecar не найден
	ErrNotFound = errors.New("документ не найден")

	// ErrInvalidContent — содержимое пустое или не похоже на разметку
	ErrInvalidContent = errors.New("недопустимое содержимое документа")

	// ErrContentTooLarge — содержимое превышает максимальный размер
	ErrContentTooLarge = errors.New("содержимое превышает максимальный размер")

	// ErrNotEditable — статус документа запрещает изменение содержимого
	ErrNotEditable = errors.New("документ в текущем статусе не редактируется")

	// ErrInvalidStatus — неизвестный статус или недопустимый переход
	ErrInvalidStatus = errors.New("недопустимый статус")

	// ErrAlreadyFinal — документ уже в терминальном статусе
	ErrAlreadyFinal = errors.New("документ уже в терминальном статусе")

	// ErrStorageUnavailable — файловая система недоступна для записи
	ErrStorageUnavailable = errors.New("хранилище недоступно")

	// ErrDuplicateReference — сгенерированное имя уже занято
	ErrDuplicateReference = errors.New("имя документа уже занято")
)
