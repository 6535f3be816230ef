package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cocreview/internal"
	"cocreview/models"
)

// UserKey is the gin context key holding the authenticated user.
const UserKey = "user"

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireSession loads the user of the session cookie. Requests without a
// valid session are redirected to the login page.
func RequireSession(authn Authenticator, cookieName string, logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("[RequireSession] rejected session: %v", err)
			c.SetCookie(cookieName, "", -1, "/", "", false, true)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireSession.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
