package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cocreview/ui/middleware"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	if s.cfg.AccessLog {
		s.router.Use(gin.Logger())
	}
	s.router.Use(gin.Recovery())
	s.router.Use(securityHeaders())
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Next()
	}
}

func (s *Server) requireSession() gin.HandlerFunc {
	return middleware.RequireSession(s.auth, s.cfg.SessionCookie, s.logger)
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.SessionCookie, token, maxAge, "/", "", s.cfg.SecureCookie, true)
}
