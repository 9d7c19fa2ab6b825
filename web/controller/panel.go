package controller

import (
	"net/http"

	"github.com/agriintel/agri-intel/database/model"
	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/web/entity"
	"github.com/agriintel/agri-intel/web/middleware"
	"github.com/agriintel/agri-intel/web/service"

	"github.com/gin-gonic/gin"
)

// PanelController serves the pages behind the general login: the dashboard
// and the market reports.
type PanelController struct {
	BaseController

	reportService  *service.ReportService
	catalogService *service.CatalogService
}

// NewPanelController creates a new PanelController and initializes its routes.
func NewPanelController(g *gin.RouterGroup, reportService *service.ReportService, catalogService *service.CatalogService) *PanelController {
	a := &PanelController{reportService: reportService, catalogService: catalogService}
	a.initRouter(g)
	return a
}

func (a *PanelController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/")
	g.Use(middleware.NoCache(), a.checkLogin)

	g.GET("/", a.index)
	g.GET("/reports/:name", a.report)
}

func (a *PanelController) index(c *gin.Context) {
	data := gin.H{}
	summary, err := a.reportService.Summary(c.Request.Context())
	if err != nil {
		data["errors"] = internalError("dashboard summary", err)
	} else {
		data["summary"] = summary
	}
	html(c, "index.html", "pages.index.title", data)
}

func (a *PanelController) report(c *gin.Context) {
	report := service.FindReport(c.Param("name"))
	if report == nil {
		c.String(http.StatusNotFound, I18nWeb(c, "pages.reports.notFound"))
		c.Abort()
		return
	}
	ctx := c.Request.Context()

	params := service.ReportParams{}
	for _, name := range report.Params {
		params[name] = c.Query(name)
	}

	data := gin.H{
		"report": report,
		"params": params,
		"levels": []string{model.RiskHigh, model.RiskMedium, model.RiskLow},
	}

	table, errs, err := a.reportService.Run(ctx, report, params)
	if err != nil {
		errs = internalError(report.Name+" report", err)
	}
	data["errors"] = errs
	data["table"] = table

	if err := a.loadFilterOptions(c, data); err != nil {
		logger.Error("load report filters:", err)
		if !errs.Any() {
			data["errors"] = entity.FieldErrors{entity.GeneralField: msgGeneric}
		}
	}

	html(c, "report.html", report.TitleKey, data)
}

func (a *PanelController) loadFilterOptions(c *gin.Context, data gin.H) error {
	ctx := c.Request.Context()
	crops, err := a.catalogService.Crops(ctx)
	if err != nil {
		return err
	}
	regions, err := a.catalogService.Regions(ctx)
	if err != nil {
		return err
	}
	data["crops"] = crops
	data["regions"] = regions
	return nil
}
