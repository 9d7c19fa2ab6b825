package controller

import (
	"net/http"

	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/web/middleware"
	"github.com/agriintel/agri-intel/web/service"
	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// SignupForm represents the account registration request structure.
type SignupForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// IndexController handles login, logout and signup.
type IndexController struct {
	BaseController

	authService *service.AuthService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup, authService *service.AuthService) *IndexController {
	a := &IndexController{authService: authService}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.GET("/logout", a.logout)
	g.GET("/signup", a.signupPage)
	g.POST("/signup", a.signup)
}

func (a *IndexController) loginPage(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	html(c, "login.html", "pages.login.title", gin.H{"form": LoginForm{}})
}

// login checks the submitted credentials and starts the general session.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("login: bad form:", err)
	}

	user, errs, err := a.authService.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		errs = internalError("login", err)
	}
	if errs.Any() {
		if err == nil {
			logger.Warningf("failed login for %q, IP: %s", form.Email, getRemoteIp(c))
		}
		form.Password = ""
		html(c, "login.html", "pages.login.title", gin.H{"form": form, "errors": errs})
		return
	}

	if err := session.SetLoginUser(c, user); err != nil {
		form.Password = ""
		html(c, "login.html", "pages.login.title", gin.H{"form": form, "errors": internalError("save session", err)})
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.Email, getRemoteIp(c))
	c.Redirect(http.StatusSeeOther, "/")
}

// logout ends the general session and sends the browser back to the login page.
func (a *IndexController) logout(c *gin.Context) {
	if user := session.GetLoginUser(c); user != nil {
		logger.Infof("%s logged out successfully", user.Email)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to clear session:", err)
	}
	middleware.SetNoCache(c)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (a *IndexController) signupPage(c *gin.Context) {
	html(c, "signup.html", "pages.signup.title", gin.H{"form": SignupForm{}})
}

// signup registers a new account. The caller is not logged in afterwards.
func (a *IndexController) signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("signup: bad form:", err)
	}

	errs, err := a.authService.Register(c.Request.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		errs = internalError("signup", err)
	}
	form.Password = ""
	if errs.Any() {
		html(c, "signup.html", "pages.signup.title", gin.H{"form": form, "errors": errs})
		return
	}

	logger.Infof("account created for %s", form.Email)
	html(c, "signup.html", "pages.signup.title", gin.H{"form": SignupForm{}, "done": true})
}
