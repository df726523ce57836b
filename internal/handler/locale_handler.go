package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/quillcms/internal/engine"
)

// SwitchLanguage moves the visitor to another site language. Languages served
// from their own domain redirect there; the others are remembered in the
// session.
func (a *API) SwitchLanguage(c *gin.Context) {
	lang := c.Param("lang")
	cfg := a.engine.Config()

	if len(cfg.Languages) > 0 {
		language, ok := cfg.Languages[lang]
		if !ok {
			a.NotFound(c)
			return
		}
		if language.Domain != "" {
			c.Redirect(http.StatusMovedPermanently, "http://"+language.Domain)
			return
		}
	}

	if _, ok := c.Get(sessions.DefaultKey); ok {
		session := sessions.Default(c)
		session.Set(engine.SessionLanguageKey, lang)
		if err := session.Save(); err != nil {
			a.log(c).Warn().Err(err).Str("language", lang).Msg("save language in session")
		}
	}

	c.Redirect(http.StatusFound, a.sameHostReferer(c))
}

// sameHostReferer returns the path and query of the Referer when it points at
// this host, and the blog root otherwise.
func (a *API) sameHostReferer(c *gin.Context) string {
	ref, err := url.Parse(c.Request.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return a.BlogBase()
	}
	if ref.Host != "" && !strings.EqualFold(ref.Host, c.Request.Host) {
		return a.BlogBase()
	}
	if ref.Host == "" && ref.Scheme != "" {
		return a.BlogBase()
	}
	target := &url.URL{Path: ref.Path, RawPath: ref.RawPath, RawQuery: ref.RawQuery}
	return target.String()
}
