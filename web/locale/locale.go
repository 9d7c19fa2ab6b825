// Package locale loads the UI translations and picks a localizer per request.
package locale

import (
	"io/fs"
	"strings"

	"github.com/agriintel/agri-intel/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// LocalizerKey is the gin context key holding the request's localizer.
const LocalizerKey = "localizer"

var i18nBundle *i18n.Bundle

// InitLocalizer parses every file under translation/ in fsys.
func InitLocalizer(fsys fs.FS) error {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(fsys, bundle); err != nil {
		return err
	}
	i18nBundle = bundle
	return nil
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}

// createTemplateData turns "key==value" params into template data.
func createTemplateData(params []string, seperator ...string) map[string]any {
	sep := "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

// NewLocalizer returns a localizer for the given preference list
// (cookie value or Accept-Language header).
func NewLocalizer(langs ...string) *i18n.Localizer {
	if i18nBundle == nil {
		return nil
	}
	return i18n.NewLocalizer(i18nBundle, langs...)
}

// I18n translates key with localizer. The key itself comes back when no
// translation is available.
func I18n(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Debugf("Failed to localize message %q: %v", key, err)
		if msg == "" {
			return key
		}
	}
	return msg
}

// LocalizerMiddleware stores a localizer for the caller's language in the
// gin context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		c.Set(LocalizerKey, NewLocalizer(lang))
		c.Next()
	}
}

// FromContext returns the localizer set by LocalizerMiddleware, or nil.
func FromContext(c *gin.Context) *i18n.Localizer {
	v, ok := c.Get(LocalizerKey)
	if !ok {
		return nil
	}
	localizer, _ := v.(*i18n.Localizer)
	return localizer
}
