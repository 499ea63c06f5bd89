package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func adminProtected(token string) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AdminAuth(token, logger)(next)
}

func TestAdminAuth_ValidToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/api/v1/admin/accounts", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()

	adminProtected("secret-token").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAdminAuth_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer wrong-token"},
		{"wrong scheme", "Basic secret-token"},
		{"bare token", "secret-token"},
		{"prefix of token", "Bearer secret"},
		{"token with suffix", "Bearer secret-token-and-more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/api/v1/admin/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			adminProtected("secret-token").ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

// An unset admin token must close the admin surface, not open it.
func TestAdminAuth_EmptyConfiguredToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/api/v1/admin/accounts", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()

	adminProtected("").ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
