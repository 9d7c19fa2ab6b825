package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RedirectMiddleware permanently redirects legacy page URLs to their current
// location: fixed aliases first, then any "*.php" path to the same path
// without the extension. The query string is kept. Extra leading slashes
// are dropped so the target always stays on this host.
func RedirectMiddleware(basePath string) gin.HandlerFunc {
	redirects := map[string]string{
		"index.php":    "",
		"register.php": "signup",
		"farmer.php":   "farmer/verify",
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		rel := strings.TrimLeft(strings.TrimPrefix(path, basePath), `/\`)

		target, ok := redirects[rel]
		if ok {
			target = basePath + target
		} else if strings.HasSuffix(rel, ".php") {
			target = basePath + strings.TrimSuffix(rel, ".php")
		} else {
			c.Next()
			return
		}

		if q := c.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}
		c.Redirect(http.StatusMovedPermanently, target)
		c.Abort()
	}
}
