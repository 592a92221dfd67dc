package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCSRF(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := CSRFConfig{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"https://conselho.example.gov.br",
		},
	}

	tests := []struct {
		name       string
		method     string
		origin     string
		referer    string
		cookie     bool
		bearer     bool
		wantStatus int
	}{
		{
			name:       "GET with cookie passes without headers",
			method:     http.MethodGet,
			cookie:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "OPTIONS passes without headers",
			method:     http.MethodOptions,
			cookie:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST without session cookie is not checked",
			method:     http.MethodPost,
			origin:     "https://evil.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST with bearer token is not checked",
			method:     http.MethodPost,
			origin:     "https://evil.com",
			cookie:     true,
			bearer:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST with cookie and valid origin passes",
			method:     http.MethodPost,
			origin:     "http://localhost:3000",
			cookie:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid origin with trailing slash passes",
			method:     http.MethodPost,
			origin:     "http://localhost:3000/",
			cookie:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid origin in upper case passes",
			method:     http.MethodPut,
			origin:     "HTTPS://CONSELHO.EXAMPLE.GOV.BR",
			cookie:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid origin blocked",
			method:     http.MethodPost,
			origin:     "https://evil.com",
			cookie:     true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "different port blocked",
			method:     http.MethodDelete,
			origin:     "http://localhost:9999",
			cookie:     true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "valid referer passes",
			method:     http.MethodPut,
			referer:    "http://localhost:3000/atendimentos/4",
			cookie:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid referer blocked",
			method:     http.MethodPost,
			referer:    "https://evil.com/attack",
			cookie:     true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing origin and referer blocked",
			method:     http.MethodPost,
			cookie:     true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Origin null blocked",
			method:     http.MethodPost,
			origin:     "null",
			cookie:     true,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, r := gin.CreateTestContext(w)
			r.Use(CSRF(config))
			r.Any("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "token"})
			}
			if tt.bearer {
				req.Header.Set("Authorization", "Bearer token")
			}

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("CSRF() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestExtractOrigin(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{"full URL", "https://example.com/path/to/page?query=1", "https://example.com"},
		{"URL with port", "http://localhost:3000/login", "http://localhost:3000"},
		{"path only", "not-a-url", ""},
		{"empty string", "", ""},
		{"null string", "null", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractOrigin(tt.rawURL); got != tt.want {
				t.Errorf("extractOrigin() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewOriginMatcher(t *testing.T) {
	match := NewOriginMatcher([]string{"http://localhost:3000/"})
	if !match("http://LOCALHOST:3000") {
		t.Error("matcher should ignore case and trailing slash")
	}
	if match("http://localhost:3001") {
		t.Error("matcher should reject other origins")
	}
	if match("") {
		t.Error("matcher should reject an empty origin")
	}
}
