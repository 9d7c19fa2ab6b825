package middleware

import (
	"net/http"

	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-gonic/gin"
)

// Default guard targets.
const (
	LoginPath       = "/login"
	FarmerEntryPath = "/farmer/verify"
)

// RequireAuth lets the request through only when the general session is
// logged in. Anyone else is sent to loginPath and the chain is aborted.
func RequireAuth(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsLogin(c) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireFarmer is the farmer portal counterpart of RequireAuth.
func RequireFarmer(entryPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsFarmerVerified(c) {
			c.Redirect(http.StatusFound, entryPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
