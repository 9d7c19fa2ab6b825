// Package controller provides the HTTP handlers of the agri-intel web app:
// account pages, the report dashboard and the farmer portal.
package controller

import (
	"net/http"

	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/web/entity"
	"github.com/agriintel/agri-intel/web/locale"
	"github.com/agriintel/agri-intel/web/middleware"
	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-gonic/gin"
)

// msgGeneric replaces infrastructure errors on every page.
const msgGeneric = "Something went wrong, please try again."

var (
	requireAuth   = middleware.RequireAuth(middleware.LoginPath)
	requireFarmer = middleware.RequireFarmer(middleware.FarmerEntryPath)
)

// BaseController provides the route guards shared by all controllers.
type BaseController struct{}

// checkLogin sends callers without a general session to the login page.
func (a *BaseController) checkLogin(c *gin.Context) {
	requireAuth(c)
}

// checkFarmer sends callers without a verified farmer to the code entry page.
func (a *BaseController) checkFarmer(c *gin.Context) {
	requireFarmer(c)
}

// farmerExit handles "?logout=1" on farmer pages. It has to run before
// checkFarmer so an unverified caller can still leave.
func (a *BaseController) farmerExit(c *gin.Context) {
	if c.Query("logout") != "1" {
		c.Next()
		return
	}
	if name := session.GetVerifiedFarmerName(c); name != "" {
		logger.Infof("farmer %s left the portal", name)
	}
	if err := session.ClearFarmerSession(c); err != nil {
		logger.Warning("Unable to clear farmer session:", err)
	}
	c.Redirect(http.StatusFound, "/")
	c.Abort()
}

// I18nWeb translates key for the current request.
func I18nWeb(c *gin.Context, key string, params ...string) string {
	return locale.I18n(locale.FromContext(c), key, params...)
}

// internalError logs err and returns the form error shown instead.
func internalError(action string, err error) entity.FieldErrors {
	logger.Errorf("%s: %v", action, err)
	return entity.FieldErrors{entity.GeneralField: msgGeneric}
}
