package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"imtr/backend/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Handlers that hit the limit while
// binding report it via c.Error; the 413 is written here if nothing else was.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, "request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.Writer.Written() {
			return
		}
		for _, ginErr := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(ginErr.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
		}
	}
}
