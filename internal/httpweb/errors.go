package httpweb

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// apiError is the JSON body written for every 5xx response: transient I/O
// failures (a decode error, a sqlite error) are surfaced to the client as
// a status code plus a short message, never a stack trace.
type apiError struct {
	Error string `json:"error"`
}

// fail logs err and writes status with a generic apiError body; the
// underlying error never reaches the client, only the log.
func fail(c *gin.Context, status int, err error) {
	logrus.WithError(err).WithField("path", c.Request.URL.Path).Warn("request failed")
	c.JSON(status, apiError{Error: http.StatusText(status)})
}
