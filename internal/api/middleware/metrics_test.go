package middleware

import "testing"

// TestNormalizePath проверяет нормализацию путей для лейблов метрик.
func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/api/v1/documents", "/api/v1/documents"},
		{"/api/v1/documents/search", "/api/v1/documents/search"},
		{"/api/v1/documents/modified", "/api/v1/documents/modified"},
		{"/api/v1/documents/status/pending", "/api/v1/documents/status/{status}"},
		{
			"/api/v1/documents/2026/08/frontend_informe_20260831_120000_a1b2c3d4.html",
			"/api/v1/documents/{ref}",
		},
		{
			"/api/v1/documents/2026/08/frontend_informe_20260831_120000_a1b2c3d4.html/status",
			"/api/v1/documents/{ref}/status",
		},
		{
			"/api/v1/documents/2026/08/doc.html/edits/reset",
			"/api/v1/documents/{ref}/edits/reset",
		},
		{"/api/v1/maintenance/backup", "/api/v1/maintenance/backup"},
		{"/unknown/path", "/unknown/path"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q): ожидалось %q, получено %q", tt.path, tt.want, got)
		}
	}
}
