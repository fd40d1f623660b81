// documents.go — обработчики операций с документами.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/CarlosAHP/AppLaBackend/internal/api/errors"
	"github.com/CarlosAHP/AppLaBackend/internal/api/middleware"
	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
	"github.com/CarlosAHP/AppLaBackend/internal/domain/status"
	"github.com/CarlosAHP/AppLaBackend/internal/service"
	"github.com/CarlosAHP/AppLaBackend/internal/storage/docstore"
)

// DocumentsHandler — обработчики /api/v1/documents.
type DocumentsHandler struct {
	store  *docstore.Store
	query  *service.QueryService
	logger *slog.Logger

	// defaultLimit — лимит выборок, если не задан в запросе
	defaultLimit int
	// recentEdits — длина списка последних правок в сводке
	recentEdits int
}

// NewDocumentsHandler создаёт обработчик операций с документами.
func NewDocumentsHandler(
	store *docstore.Store,
	query *service.QueryService,
	defaultLimit int,
	recentEdits int,
	logger *slog.Logger,
) *DocumentsHandler {
	return &DocumentsHandler{
		store:        store,
		query:        query,
		defaultLimit: defaultLimit,
		recentEdits:  recentEdits,
		logger:       logger.With(slog.String("component", "documents_handler")),
	}
}

// uploadRequest — тело запроса создания документа.
type uploadRequest struct {
	HTMLContent      string   `json:"html_content"`
	Kind             string   `json:"kind,omitempty"`
	Prefix           string   `json:"prefix,omitempty"`
	OriginalFilename string   `json:"original_filename,omitempty"`
	PatientName      string   `json:"patient_name,omitempty"`
	PatientAge       *int     `json:"patient_age,omitempty"`
	PatientGender    string   `json:"patient_gender,omitempty"`
	OrderNumber      string   `json:"order_number,omitempty"`
	DoctorName       string   `json:"doctor_name,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	ReceptionDate    string   `json:"reception_date,omitempty"`
	Tests            []string `json:"tests,omitempty"`
	Source           string   `json:"source,omitempty"`
}

// updateRequest — тело запроса правки документа.
type updateRequest struct {
	HTMLContent    string `json:"html_content"`
	EditReason     string `json:"edit_reason,omitempty"`
	ChangesSummary string `json:"changes_summary,omitempty"`
}

// statusRequest — тело запроса смены статуса.
type statusRequest struct {
	Status string `json:"status"`
}

// markModifiedRequest — тело запроса пометки документа изменённым.
type markModifiedRequest struct {
	Reason string `json:"reason,omitempty"`
}

// listResponse — страница документов с общим количеством.
type listResponse struct {
	Documents []model.Metadata `json:"documents"`
	Total     int              `json:"total"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
}

// Upload обрабатывает POST /api/v1/documents.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}

	m, err := h.store.Create(docstore.CreateRequest{
		Content:          req.HTMLContent,
		Kind:             model.DocumentKind(req.Kind),
		Prefix:           req.Prefix,
		OriginalFilename: req.OriginalFilename,
		PatientName:      req.PatientName,
		PatientAge:       req.PatientAge,
		PatientGender:    req.PatientGender,
		OrderNumber:      req.OrderNumber,
		DoctorName:       req.DoctorName,
		Notes:            req.Notes,
		ReceptionDate:    req.ReceptionDate,
		Tests:            req.Tests,
		Source:           req.Source,
		CreatedBy:        middleware.SubjectFromContext(r.Context()),
	})
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// List обрабатывает GET /api/v1/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", h.defaultLimit)
	offset := queryInt(r, "offset", 0)

	docs, total := h.query.List(limit, offset)
	writeJSON(w, http.StatusOK, listResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// Search обрабатывает GET /api/v1/documents/search.
// Параметры: q, patient, order, doctor, status, from, to, limit.
// from и to — RFC3339 или дата YYYY-MM-DD, ограничивают момент создания.
func (h *DocumentsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := service.Filters{
		Query:       q.Get("q"),
		PatientName: q.Get("patient"),
		OrderNumber: q.Get("order"),
		DoctorName:  q.Get("doctor"),
	}
	if raw := q.Get("status"); raw != "" {
		st, err := status.Parse(raw)
		if err != nil {
			apierrors.FromDomain(w, err)
			return
		}
		f.Status = st
	}
	if raw := q.Get("from"); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			apierrors.ValidationError(w, "Некорректный параметр from: "+raw)
			return
		}
		f.From = ts
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			apierrors.ValidationError(w, "Некорректный параметр to: "+raw)
			return
		}
		f.To = ts
	}

	docs := h.query.Search(f, queryInt(r, "limit", h.defaultLimit))
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// ByStatus обрабатывает GET /api/v1/documents/status/{status}.
func (h *DocumentsHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := status.Parse(chi.URLParam(r, "status"))
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	docs := h.query.ByStatus(st, queryInt(r, "limit", h.defaultLimit))
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
		"status":    st,
	})
}

// Modified обрабатывает GET /api/v1/documents/modified.
func (h *DocumentsHandler) Modified(w http.ResponseWriter, r *http.Request) {
	docs := h.query.Modified(queryInt(r, "limit", h.defaultLimit))
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// StatusStats обрабатывает GET /api/v1/documents/stats/status.
func (h *DocumentsHandler) StatusStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.query.StatusStats()
	total := 0
	for _, n := range stats {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"by_status": stats,
		"total":     total,
	})
}

// EditStats обрабатывает GET /api/v1/documents/stats/edits.
func (h *DocumentsHandler) EditStats(w http.ResponseWriter, r *http.Request) {
	stats := h.query.EditStats(queryInt(r, "recent", h.recentEdits))
	writeJSON(w, http.StatusOK, stats)
}

// GetContent обрабатывает GET /api/v1/documents/{year}/{month}/{name}.
// Возвращает содержимое документа как text/html, баннер метаданных вырезан.
func (h *DocumentsHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	doc, err := h.store.Read(rel, true)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.Body))
}

// GetMetadata обрабатывает GET /api/v1/documents/{year}/{month}/{name}/metadata.
func (h *DocumentsHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	doc, err := h.store.Read(rel, false)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc.Meta)
}

// Update обрабатывает PUT /api/v1/documents/{year}/{month}/{name}.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}

	m, err := h.store.Update(rel, docstore.EditRequest{
		Content:    req.HTMLContent,
		EditedBy:   middleware.SubjectFromContext(r.Context()),
		EditReason: req.EditReason,
		Summary:    req.ChangesSummary,
	})
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// Delete обрабатывает DELETE /api/v1/documents/{year}/{month}/{name}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.store.Delete(rel); err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":    true,
		"deleted_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// ChangeStatus обрабатывает POST /api/v1/documents/{year}/{month}/{name}/status.
func (h *DocumentsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}

	st, err := status.Parse(req.Status)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	m, err := h.store.ChangeStatus(rel, st)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// MarkModified обрабатывает POST /api/v1/documents/{year}/{month}/{name}/modified.
func (h *DocumentsHandler) MarkModified(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var req markModifiedRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
			return
		}
	}

	m, err := h.store.MarkModified(rel, middleware.SubjectFromContext(r.Context()), req.Reason)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// EditHistory обрабатывает GET /api/v1/documents/{year}/{month}/{name}/edits.
func (h *DocumentsHandler) EditHistory(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	doc, err := h.store.Read(rel, false)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_name":      doc.Meta.FileName,
		"edit_count":     doc.Meta.EditCount,
		"is_modified":    doc.Meta.IsModified,
		"last_edit_date": doc.Meta.LastEditDate,
		"edit_history":   doc.Meta.EditHistory,
	})
}

// ResetEdits обрабатывает POST /api/v1/documents/{year}/{month}/{name}/edits/reset.
func (h *DocumentsHandler) ResetEdits(w http.ResponseWriter, r *http.Request) {
	rel, err := refFromRequest(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	m, err := h.store.ResetEditTracking(rel)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}
