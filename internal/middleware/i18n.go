// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/fanstore-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", parseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// parseLanguage picks the first supported language from an Accept-Language
// value such as "es-MX,es;q=0.9,en;q=0.8".
func parseLanguage(header string) string {
	supported := i18n.GetSupportedLanguages()
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.Split(part, ";")[0]))
		if tag == "" {
			continue
		}
		base := strings.SplitN(strings.ReplaceAll(tag, "_", "-"), "-", 2)[0]
		for _, lang := range supported {
			if lang == base {
				return lang
			}
		}
	}
	return i18n.DefaultLanguage()
}
