package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const CodeRequestTooLarge = "request/too-large"

// BodyLimit caps request bodies at maxBytes. Declared oversize bodies are
// refused up front; undeclared ones fail while being read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
				"code":  CodeRequestTooLarge,
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
