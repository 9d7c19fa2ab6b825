package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	engine.ServeHTTP(w, req)
	return w
}

func sessionEngine() *gin.Engine {
	opts := session.Options(&config.WebConfig{SessionMaxAge: 60})
	store := session.NewStore(config.SessionStoreCookie, []byte("0123456789abcdef0123456789abcdef"), opts)
	engine := gin.New()
	engine.Use(session.Middleware(store, opts))
	return engine
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	engine := sessionEngine()
	reached := false
	engine.GET("/", RequireAuth(LoginPath), func(c *gin.Context) {
		reached = true
		c.String(http.StatusOK, "secret")
	})

	w := serve(engine, http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "secret")
	assert.False(t, reached)
}

func TestRequireFarmerRedirectsUnverified(t *testing.T) {
	engine := sessionEngine()
	reached := false
	engine.POST("/farmer/update", RequireFarmer(FarmerEntryPath), func(c *gin.Context) {
		reached = true
	})

	w := serve(engine, http.MethodPost, "/farmer/update")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, FarmerEntryPath, w.Header().Get("Location"))
	assert.False(t, reached)
}

func TestNoCache(t *testing.T) {
	engine := gin.New()
	engine.Use(NoCache())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, http.MethodGet, "/")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "0", w.Header().Get("Expires"))
}

func TestRedirectMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RedirectMiddleware("/"))
	engine.GET("/login", func(c *gin.Context) { c.String(http.StatusOK, "login") })

	tests := []struct {
		target   string
		location string
	}{
		{"/login.php", "/login"},
		{"/index.php", "/"},
		{"/register.php", "/signup"},
		{"/farmer.php", "/farmer/verify"},
		{"/farmer/update.php?logout=1", "/farmer/update?logout=1"},
		{"//evil.example.com.php", "/evil.example.com"},
		{"///index.php", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := serve(engine, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusMovedPermanently, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}

	w := serve(engine, http.MethodGet, "/login")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDomainValidator(t *testing.T) {
	engine := gin.New()
	engine.Use(DomainValidatorMiddleware("agri.example.com"))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "agri.example.com:8080"
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "evil.example.com"
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
