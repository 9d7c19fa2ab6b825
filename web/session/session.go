// Package session keeps the two independent session namespaces of the web
// app: the general login session and the farmer portal session. Each lives
// under its own cookie, so clearing one never touches the other.
package session

import (
	"net/http"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
)

// Cookie names of the two namespaces.
const (
	GeneralName = "agri_session"
	FarmerName  = "agri_farmer"
)

const (
	keyUserId   = "user_id"
	keyEmail    = "user_email"
	keyName     = "user_name"
	keyLoggedIn = "logged_in"

	keyFarmerId   = "farmer_id"
	keyFarmerName = "farmer_name"
	keyVerified   = "farmer_verified"

	optionsKey = "session_options"
)

// LoginUser is the identity snapshot copied into the session at login.
type LoginUser struct {
	Id    string
	Email string
	Name  string
}

// VerifiedFarmer is the farmer identity held by the farmer namespace.
type VerifiedFarmer struct {
	Id   int
	Name string
}

// Options derives the cookie attributes from the web configuration.
func Options(cfg *config.WebConfig) sessions.Options {
	return sessions.Options{
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.SessionMaxAge * 60,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewStore builds the configured session backend. Both namespaces share it.
func NewStore(kind config.SessionStore, secret []byte, opts sessions.Options) sessions.Store {
	var store sessions.Store
	switch kind {
	case config.SessionStoreMemory:
		store = memstore.NewStore(secret)
	default:
		store = cookie.NewStore(secret)
	}
	store.Options(opts)
	return store
}

// Middleware sets up both namespaces for the request. It must run before
// any guard or handler that reads the session.
func Middleware(store sessions.Store, opts sessions.Options) gin.HandlerFunc {
	many := sessions.SessionsMany([]string{GeneralName, FarmerName}, store)
	return func(c *gin.Context) {
		c.Set(optionsKey, opts)
		many(c)
	}
}

func options(c *gin.Context) sessions.Options {
	if v, ok := c.Get(optionsKey); ok {
		if opts, ok := v.(sessions.Options); ok {
			return opts
		}
	}
	return sessions.Options{Path: "/", HttpOnly: true}
}

func general(c *gin.Context) sessions.Session {
	return sessions.DefaultMany(c, GeneralName)
}

func farmer(c *gin.Context) sessions.Session {
	return sessions.DefaultMany(c, FarmerName)
}

// expire clears s and saves it with a negative max age, which makes the
// store emit an already expired cookie with the configured attributes.
func expire(c *gin.Context, s sessions.Session) error {
	s.Clear()
	opts := options(c)
	opts.MaxAge = -1
	s.Options(opts)
	return s.Save()
}

// SetLoginUser starts the general session for user.
func SetLoginUser(c *gin.Context, user *model.User) error {
	s := general(c)
	s.Clear()
	s.Options(options(c))
	s.Set(keyUserId, user.Id)
	s.Set(keyEmail, user.Email)
	s.Set(keyName, user.Name)
	s.Set(keyLoggedIn, true)
	return s.Save()
}

// IsLogin reports whether the request carries a live general session.
func IsLogin(c *gin.Context) bool {
	loggedIn, _ := general(c).Get(keyLoggedIn).(bool)
	return loggedIn
}

// GetLoginUser returns the logged in identity, or nil.
func GetLoginUser(c *gin.Context) *LoginUser {
	if !IsLogin(c) {
		return nil
	}
	s := general(c)
	user := &LoginUser{}
	user.Id, _ = s.Get(keyUserId).(string)
	user.Email, _ = s.Get(keyEmail).(string)
	user.Name, _ = s.Get(keyName).(string)
	return user
}

// ClearSession ends the general session. Calling it without a session is a
// no-op apart from the expired cookie.
func ClearSession(c *gin.Context) error {
	return expire(c, general(c))
}

// StartFarmerSession marks the request's farmer namespace as verified for rec.
func StartFarmerSession(c *gin.Context, rec *model.FarmerRecord) error {
	s := farmer(c)
	s.Clear()
	s.Options(options(c))
	s.Set(keyFarmerId, rec.Id)
	s.Set(keyFarmerName, rec.Name)
	s.Set(keyVerified, true)
	return s.Save()
}

func IsFarmerVerified(c *gin.Context) bool {
	verified, _ := farmer(c).Get(keyVerified).(bool)
	return verified
}

// GetVerifiedFarmer returns the verified farmer, or nil.
func GetVerifiedFarmer(c *gin.Context) *VerifiedFarmer {
	if !IsFarmerVerified(c) {
		return nil
	}
	s := farmer(c)
	f := &VerifiedFarmer{}
	f.Id, _ = s.Get(keyFarmerId).(int)
	f.Name, _ = s.Get(keyFarmerName).(string)
	return f
}

// GetVerifiedFarmerId returns 0 when no farmer is verified.
func GetVerifiedFarmerId(c *gin.Context) int {
	if f := GetVerifiedFarmer(c); f != nil {
		return f.Id
	}
	return 0
}

// GetVerifiedFarmerName returns "" when no farmer is verified.
func GetVerifiedFarmerName(c *gin.Context) string {
	if f := GetVerifiedFarmer(c); f != nil {
		return f.Name
	}
	return ""
}

// ClearFarmerSession ends the farmer session only.
func ClearFarmerSession(c *gin.Context) error {
	return expire(c, farmer(c))
}
