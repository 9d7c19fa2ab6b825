package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/web/entity"
	"github.com/agriintel/agri-intel/web/locale"
	"github.com/agriintel/agri-intel/web/service"
	"github.com/agriintel/agri-intel/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// html renders an HTML template with status 200.
func html(c *gin.Context, name string, title string, data gin.H) {
	htmlStatus(c, http.StatusOK, name, title, data)
}

// htmlStatus renders an HTML template. title is a translation key.
func htmlStatus(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = entity.FieldErrors{}
	}
	data["title"] = title
	data["lang"] = locale.FromContext(c)
	data["user"] = session.GetLoginUser(c)
	data["farmer"] = session.GetVerifiedFarmer(c)
	data["request_uri"] = c.Request.RequestURI
	c.HTML(status, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":  config.GetVersion(),
		"app_name": config.GetName(),
		"reports":  service.Reports,
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}
