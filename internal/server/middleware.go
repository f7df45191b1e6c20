package server

import (
	"github.com/gin-gonic/gin"
)

// NoStore keeps intermediaries from caching API responses. Draft payloads
// and invoice totals change on every edit.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
