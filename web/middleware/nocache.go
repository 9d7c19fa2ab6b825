package middleware

import "github.com/gin-gonic/gin"

// NoCache marks the response as private and never cacheable so that pages
// behind a session are not served from the browser history after logout.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		SetNoCache(c)
		c.Next()
	}
}

// SetNoCache writes the cache disabling headers on the current response.
func SetNoCache(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
