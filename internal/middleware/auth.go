package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// SessionCookie holds the session token for browser clients.
	SessionCookie = "session_token"

	claimsKey = "claims"
)

// ExtractToken returns the session token from the Authorization header,
// falling back to the session cookie.
func ExtractToken(c *gin.Context) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return token
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAuth rejects requests without a valid, unrevoked session token and
// stores the token claims in the context.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Não autenticado."})
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Sessão inválida ou expirada."})
				return
			}
			Logger(c).Error("session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Erro interno do servidor."})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireCapability rejects callers whose role lacks capability. It must
// run after RequireAuth.
func RequireCapability(table *models.CapabilityTable, capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Não autenticado."})
			return
		}
		if !table.Allows(claims.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Acesso negado."})
			return
		}
		c.Next()
	}
}

// GetClaims returns the claims stored by RequireAuth.
func GetClaims(c *gin.Context) (*service.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*service.Claims)
	return claims, ok
}

// SetClaims stores claims in the context. Handler tests use it to skip
// RequireAuth.
func SetClaims(c *gin.Context, claims *service.Claims) {
	c.Set(claimsKey, claims)
}
