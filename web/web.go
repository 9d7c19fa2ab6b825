// Package web provides the agri-intel web server: HTTP/HTTPS serving,
// routing, templates, sessions and background job scheduling.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/util/common"
	"github.com/agriintel/agri-intel/util/random"
	"github.com/agriintel/agri-intel/web/controller"
	"github.com/agriintel/agri-intel/web/job"
	"github.com/agriintel/agri-intel/web/locale"
	"github.com/agriintel/agri-intel/web/middleware"
	"github.com/agriintel/agri-intel/web/network"
	"github.com/agriintel/agri-intel/web/service"
	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server is the agri-intel web server with its controllers and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	cfg *config.WebConfig

	index  *controller.IndexController
	panel  *controller.PanelController
	farmer *controller.FarmerController

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: config.GetWebConfig(), ctx: ctx, cancel: cancel}
}

// htmlTemplates parses every page and partial under html/ in fsys. Debug
// builds read them from disk so edits show up after a restart without a
// rebuild.
func htmlTemplates(fsys fs.FS, funcMap template.FuncMap) (*template.Template, error) {
	var patterns []string
	err := fs.WalkDir(fsys, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if matches, _ := fs.Glob(fsys, path+"/*.html"); len(matches) > 0 {
				patterns = append(patterns, path+"/*.html")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return template.New("").Funcs(funcMap).ParseFS(fsys, patterns...)
}

// sessionSecret returns the configured cookie signing secret. Without one,
// sessions only survive until the process exits.
func (s *Server) sessionSecret() []byte {
	if s.cfg.SessionSecret != "" {
		return []byte(s.cfg.SessionSecret)
	}
	logger.Warning("AGRI_SESSION_SECRET is not set, using a random secret; sessions end on restart")
	return []byte(random.Seq(32))
}

// initRouter initializes Gin, registers middleware, templates, static assets,
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	db := database.GetDB()
	if db == nil {
		return nil, errors.New("database is not initialized")
	}

	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	if s.cfg.Domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(s.cfg.Domain))
	}

	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}
	engine.Use(locale.LocalizerMiddleware())

	opts := session.Options(s.cfg)
	store := session.NewStore(s.cfg.SessionStore, s.sessionSecret(), opts)
	engine.Use(session.Middleware(store, opts))

	funcMap := template.FuncMap{"i18n": locale.I18n}

	var (
		pages  fs.FS = htmlFS
		assets fs.FS = &wrapAssetsFS{FS: assetsFS}
	)
	if config.IsDebug() {
		pages = os.DirFS("web")
		assets = os.DirFS("web/assets")
	}
	tpl, err := htmlTemplates(pages, funcMap)
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)
	engine.StaticFS("/assets", http.FS(assets))

	// Legacy *.php page URLs
	engine.Use(middleware.RedirectMiddleware("/"))

	credentials := database.NewStore(db)
	authService := service.NewAuthService(credentials, config.GetBcryptCost())
	farmerService := service.NewFarmerService(credentials)

	g := engine.Group("/")
	s.index = controller.NewIndexController(g, authService)
	s.panel = controller.NewPanelController(g, service.NewReportService(db), service.NewCatalogService(db))
	s.farmer = controller.NewFarmerController(g, farmerService, service.NewSupplyService(db))

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@hourly", job.NewCheckpointJob()); err != nil {
		logger.Warning("Add CheckpointJob error", err)
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	loc, err := time.LoadLocation(s.cfg.TimeLocation)
	if err != nil {
		logger.Warningf("invalid time location %q, using local time: %v", s.cfg.TimeLocation, err)
		loc = time.Local
	}
	s.cron = cron.New(cron.WithLocation(loc))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if s.cfg.CertFile != "" || s.cfg.KeyFile != "" {
		if cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewAutoHttpsListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and its cron jobs.
func (s *Server) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	s.cancel()
	return common.Combine(err1, err2)
}
