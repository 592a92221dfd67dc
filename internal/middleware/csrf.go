// Package middleware provides HTTP middleware for the case service.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins should match the CORS allowed origins.
	AllowedOrigins []string
}

// CSRF returns middleware that validates Origin/Referer headers on
// state-changing requests authenticated by the session cookie. Requests
// carrying a bearer token, or no session cookie at all, are not subject to
// the check since browsers never attach those automatically.
func CSRF(config CSRFConfig) gin.HandlerFunc {
	allowed := NewOriginMatcher(config.AllowedOrigins)

	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		if bearerToken(c) != "" {
			c.Next()
			return
		}
		if _, err := c.Cookie(SessionCookie); err != nil {
			c.Next()
			return
		}

		if origin := c.GetHeader("Origin"); origin != "" {
			if !allowed(origin) {
				abortForbidden(c, "Falha na validação CSRF: origem inválida.")
				return
			}
			c.Next()
			return
		}

		if referer := c.GetHeader("Referer"); referer != "" {
			if !allowed(extractOrigin(referer)) {
				abortForbidden(c, "Falha na validação CSRF: referer inválido.")
				return
			}
			c.Next()
			return
		}

		abortForbidden(c, "Falha na validação CSRF: origem ausente.")
	}
}

// NewOriginMatcher returns a predicate reporting whether an origin is in
// the allowed list, ignoring case and a trailing slash.
func NewOriginMatcher(origins []string) func(origin string) bool {
	allowedSet := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowedSet[normalizeOrigin(origin)] = true
	}
	return func(origin string) bool {
		return allowedSet[normalizeOrigin(origin)]
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// extractOrigin extracts scheme://host[:port] from a URL.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": message})
}
