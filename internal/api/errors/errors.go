// Пакет errors — конструкторы стандартных ошибок HTTP API.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// Машиночитаемые коды ошибок API.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidContent     = "INVALID_CONTENT"
	CodeContentTooLarge    = "CONTENT_TOO_LARGE"
	CodeNotEditable        = "NOT_EDITABLE"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeAlreadyFinal       = "ALREADY_FINAL"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeDuplicateReference = "DUPLICATE_REFERENCE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// FromDomain отображает доменную sentinel-ошибку в HTTP-ответ.
// Неизвестная ошибка — 500 INTERNAL_ERROR.
func FromDomain(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case stderrors.Is(err, model.ErrInvalidContent):
		WriteError(w, http.StatusBadRequest, CodeInvalidContent, err.Error())
	case stderrors.Is(err, model.ErrContentTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeContentTooLarge, err.Error())
	case stderrors.Is(err, model.ErrNotEditable):
		WriteError(w, http.StatusConflict, CodeNotEditable, err.Error())
	case stderrors.Is(err, model.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, CodeInvalidStatus, err.Error())
	case stderrors.Is(err, model.ErrAlreadyFinal):
		WriteError(w, http.StatusConflict, CodeAlreadyFinal, err.Error())
	case stderrors.Is(err, model.ErrStorageUnavailable):
		WriteError(w, http.StatusServiceUnavailable, CodeStorageUnavailable, err.Error())
	case stderrors.Is(err, model.ErrDuplicateReference):
		WriteError(w, http.StatusConflict, CodeDuplicateReference, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternalError, "внутренняя ошибка сервера")
	}
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
