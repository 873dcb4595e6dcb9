package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/logging"
)

// All responses share the {success, message?, ...payload} envelope.

func ok(c *gin.Context, code int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(code, body)
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}

// failInternal logs the real error with request context and returns a
// generic message; internal detail never reaches the client.
func failInternal(c *gin.Context, err error) {
	logging.Logger.WithError(err).
		WithField("request_id", c.GetString("request_id")).
		WithField("path", c.Request.URL.Path).
		Error("internal error")
	fail(c, 500, "internal server error")
}
