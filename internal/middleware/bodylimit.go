package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit rejects requests whose declared Content-Length exceeds
// maxBytes — the fast path of the upload size guard, checked before a
// single body byte is read. Clients lying about (or omitting) the
// length are caught by the second, post-read check in the upload
// handler; each check can reject on its own.
//
// A negative ContentLength means "unknown" (chunked encoding) — those
// pass here and are bounded by MaxBytesReader downstream.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "upload too large",
			})
			return
		}
		c.Next()
	}
}
