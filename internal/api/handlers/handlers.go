// Пакет handlers — HTTP-обработчики API хранилища отчётов.
// Общие помощники: сериализация ответов и разбор ссылки на документ.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// writeJSON сериализует ответ в JSON с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// refFromRequest собирает относительный путь документа из сегментов
// URL: {year}/{month}/{name}. Сегменты проверяются на выход за пределы
// партиции.
func refFromRequest(r *http.Request) (string, error) {
	year := chi.URLParam(r, "year")
	month := chi.URLParam(r, "month")
	name := chi.URLParam(r, "name")

	if !isDigits(year, 4) || !isDigits(month, 2) {
		return "", fmt.Errorf("некорректная партиция %q/%q", year, month)
	}
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("некорректное имя документа %q", name)
	}

	return year + "/" + month + "/" + name, nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseTimeParam разбирает момент из query-параметра: RFC3339 или
// дата YYYY-MM-DD (трактуется как полночь UTC).
func parseTimeParam(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

// queryInt разбирает целочисленный query-параметр с значением по умолчанию.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
