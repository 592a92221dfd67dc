package handlers

import (
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CookieHelper manages the session cookie.
type CookieHelper struct {
	config config.CookieConfig
}

// NewCookieHelper creates a new cookie helper with the given configuration.
func NewCookieHelper(config config.CookieConfig) *CookieHelper {
	return &CookieHelper{config: config}
}

// SetSessionCookie stores the session token in an httpOnly cookie.
func (h *CookieHelper) SetSessionCookie(c *gin.Context, token string, expiry time.Duration) {
	h.setCookie(c, token, int(expiry.Seconds()))
}

// ClearSessionCookie removes the session cookie.
func (h *CookieHelper) ClearSessionCookie(c *gin.Context) {
	h.setCookie(c, "", -1)
}

func (h *CookieHelper) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(h.config.SameSite)
	c.SetCookie(
		middleware.SessionCookie,
		value,
		maxAge,
		h.config.Path,
		h.config.Domain,
		h.config.Secure,
		true,
	)
}
