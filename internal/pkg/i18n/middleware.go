package i18n

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName 保存用户所选语言的 cookie
const CookieName = "lang"

// cookieMaxAge 一年
const cookieMaxAge = 365 * 24 * 3600

// Middleware 识别请求语言并写入 request context
func Middleware(b *Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := detect(c, b)
		c.Request = c.Request.WithContext(WithLang(c.Request.Context(), lang))
		c.Next()
	}
}

func detect(c *gin.Context, b *Bundle) string {
	// 显式切换语言时记住选择
	if lang := Normalize(c.Query("lang")); lang != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, lang, cookieMaxAge, "/", "", false, false)
		return lang
	}

	if cookie, err := c.Cookie(CookieName); err == nil {
		if lang := Normalize(cookie); lang != "" {
			return lang
		}
	}

	if accept := c.GetHeader("Accept-Language"); accept != "" {
		return b.Match(accept)
	}

	return b.DefaultLang()
}
