package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// contextUserKey is the gin context key CurrentUser reads.
const contextUserKey = "auth.user"

// Middleware validates the bearer token on every request, rejecting with
// 401 on a missing or invalid token. An AllowAccessOverHTTP escape
// hatch is handled by the caller choosing whether to register this
// middleware at all, not inside it.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token") // lets <img>/<video> tags authenticate without a header
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		username, ok, err := s.Verify(token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(contextUserKey, username)
		c.Next()
	}
}

// CurrentUser returns the authenticated username set by Middleware.
func CurrentUser(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
