package httpweb

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// registerAuthRoutes wires the one unauthenticated-by-necessity endpoint:
// login, which issues the session everything else requires. Touch is
// registered with the other API routes behind requireAuth; it answers 200
// for a valid session and does not extend the session's expiry.
func (a *App) registerAuthRoutes(r *gin.Engine) {
	r.POST("/api/auth/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		token, err := a.Auth.Login(req.Username, req.Password)
		if err != nil {
			c.Status(http.StatusUnauthorized)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	})
}
