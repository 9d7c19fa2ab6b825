package locale

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := InitLocalizer(os.DirFS("..")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestI18n(t *testing.T) {
	en := NewLocalizer("en-US")
	assert.Equal(t, "Log in", I18n(en, "pages.login.title"))
	assert.Equal(t, "Welcome, Karim", I18n(en, "pages.index.welcome", "Name==Karim"))
	assert.Equal(t, "no.such.key", I18n(en, "no.such.key"))
	assert.Equal(t, "pages.login.title", I18n(nil, "pages.login.title"))

	fr := NewLocalizer("fr-FR,fr;q=0.9")
	assert.Equal(t, "Connexion", I18n(fr, "pages.login.title"))
}

func TestLocalizerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(LocalizerMiddleware())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, I18n(FromContext(c), "menu.logout"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Déconnexion", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	req.AddCookie(&http.Cookie{Name: "lang", Value: "en-US"})
	engine.ServeHTTP(w, req)
	assert.Equal(t, "Log out", w.Body.String())
}

func TestCreateTemplateData(t *testing.T) {
	data := createTemplateData([]string{"Name==Karim", "broken", "Expr==a==b"})
	assert.Equal(t, map[string]any{"Name": "Karim", "Expr": "a==b"}, data)
}
