package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	both := AuthConfig{BearerToken: "my-token", BasicUser: "admin", BasicPass: "pass"}

	tests := []struct {
		name    string
		cfg     AuthConfig
		prepare func(r *http.Request)
		want    int
	}{
		{
			name:    "valid bearer",
			cfg:     AuthConfig{BearerToken: "secret-token"},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") },
			want:    http.StatusOK,
		},
		{
			name:    "wrong bearer",
			cfg:     AuthConfig{BearerToken: "secret-token"},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong") },
			want:    http.StatusUnauthorized,
		},
		{
			name:    "valid basic",
			cfg:     AuthConfig{BasicUser: "admin", BasicPass: "pass123"},
			prepare: func(r *http.Request) { r.SetBasicAuth("admin", "pass123") },
			want:    http.StatusOK,
		},
		{
			name:    "wrong basic",
			cfg:     AuthConfig{BasicUser: "admin", BasicPass: "pass123"},
			prepare: func(r *http.Request) { r.SetBasicAuth("admin", "nope") },
			want:    http.StatusUnauthorized,
		},
		{
			name:    "missing header",
			cfg:     AuthConfig{BearerToken: "token"},
			prepare: func(*http.Request) {},
			want:    http.StatusUnauthorized,
		},
		{
			name:    "bearer with both configured",
			cfg:     both,
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer my-token") },
			want:    http.StatusOK,
		},
		{
			name:    "basic with both configured",
			cfg:     both,
			prepare: func(r *http.Request) { r.SetBasicAuth("admin", "pass") },
			want:    http.StatusOK,
		},
		{
			name:    "bearer sent but only basic configured",
			cfg:     AuthConfig{BasicUser: "admin", BasicPass: "pass"},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer pass") },
			want:    http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := authMiddleware(tt.cfg, discardLogger())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			tt.prepare(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  AuthConfig
		want bool
	}{
		{"empty", AuthConfig{}, false},
		{"bearer only", AuthConfig{BearerToken: "tok"}, true},
		{"basic complete", AuthConfig{BasicUser: "u", BasicPass: "p"}, true},
		{"basic partial user", AuthConfig{BasicUser: "u"}, false},
		{"both", AuthConfig{BearerToken: "t", BasicUser: "u", BasicPass: "p"}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.IsConfigured(); got != tt.want {
			t.Errorf("%s: IsConfigured() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
