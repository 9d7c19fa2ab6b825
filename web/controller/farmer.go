package controller

import (
	"net/http"

	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/web/entity"
	"github.com/agriintel/agri-intel/web/middleware"
	"github.com/agriintel/agri-intel/web/service"
	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-gonic/gin"
)

const recentSupplyLimit = 10

// VerifyForm carries the farmer code typed on the entry page.
type VerifyForm struct {
	Code string `form:"farmer_code"`
}

// FarmerController serves the farmer portal: code entry and supply updates.
type FarmerController struct {
	BaseController

	farmerService *service.FarmerService
	supplyService *service.SupplyService
}

// NewFarmerController creates a new FarmerController and initializes its routes.
func NewFarmerController(g *gin.RouterGroup, farmerService *service.FarmerService, supplyService *service.SupplyService) *FarmerController {
	a := &FarmerController{farmerService: farmerService, supplyService: supplyService}
	a.initRouter(g)
	return a
}

func (a *FarmerController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/farmer")
	g.Use(middleware.NoCache(), a.farmerExit)

	g.GET("/verify", a.verifyPage)
	g.POST("/verify", a.verify)
	g.GET("/update", a.checkFarmer, a.updatePage)
	g.POST("/update", a.checkFarmer, a.update)
}

func (a *FarmerController) verifyPage(c *gin.Context) {
	if session.IsFarmerVerified(c) {
		c.Redirect(http.StatusFound, "/farmer/update")
		return
	}
	html(c, "farmer_verify.html", "pages.farmer.verifyTitle", gin.H{"form": VerifyForm{}})
}

// verify checks the farmer code and starts the farmer session.
func (a *FarmerController) verify(c *gin.Context) {
	var form VerifyForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("farmer verify: bad form:", err)
	}

	rec, errs, err := a.farmerService.VerifyCode(c.Request.Context(), form.Code)
	if err != nil {
		errs = internalError("farmer verify", err)
	}
	if errs.Any() {
		if err == nil {
			logger.Warningf("failed farmer code attempt, IP: %s", getRemoteIp(c))
		}
		html(c, "farmer_verify.html", "pages.farmer.verifyTitle", gin.H{"form": form, "errors": errs})
		return
	}

	if err := session.StartFarmerSession(c, rec); err != nil {
		html(c, "farmer_verify.html", "pages.farmer.verifyTitle", gin.H{"form": form, "errors": internalError("save farmer session", err)})
		return
	}

	logger.Infof("farmer %s (%s) verified, IP: %s", rec.Name, rec.Region, getRemoteIp(c))
	c.Redirect(http.StatusSeeOther, "/farmer/update")
}

func (a *FarmerController) updatePage(c *gin.Context) {
	a.renderUpdate(c, service.SupplyForm{}, entity.FieldErrors{}, c.Query("saved") == "1")
}

// update stores one supply record for the verified farmer.
func (a *FarmerController) update(c *gin.Context) {
	var form service.SupplyForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("farmer update: bad form:", err)
	}

	farmerId := session.GetVerifiedFarmerId(c)
	errs, err := a.supplyService.Submit(c.Request.Context(), farmerId, form)
	if err != nil {
		errs = internalError("farmer update", err)
	}
	if errs.Any() {
		a.renderUpdate(c, form, errs, false)
		return
	}

	logger.Infof("supply recorded for farmer %d", farmerId)
	c.Redirect(http.StatusSeeOther, "/farmer/update?saved=1")
}

func (a *FarmerController) renderUpdate(c *gin.Context, form service.SupplyForm, errs entity.FieldErrors, saved bool) {
	ctx := c.Request.Context()
	data := gin.H{"form": form, "errors": errs, "saved": saved}

	crops, markets, err := a.supplyService.Options(ctx)
	if err != nil {
		errs = internalError("load supply options", err)
		data["errors"] = errs
	}
	data["crops"] = crops
	data["markets"] = markets

	if recent, err := a.supplyService.Recent(ctx, session.GetVerifiedFarmerId(c), recentSupplyLimit); err != nil {
		logger.Error("load recent supply:", err)
	} else {
		data["recent"] = recent
	}

	html(c, "farmer_update.html", "pages.farmer.updateTitle", data)
}
