package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/quillcms/internal/engine"
)

// ShowAdmin renders the plugin overview, or the login page when nobody is
// logged in.
func (a *API) ShowAdmin(c *gin.Context) {
	user := sessionUser(c)
	if user == "" {
		a.showLogin(c)
		return
	}

	declarations, err := a.engine.Repository().GetPluginsData()
	if err != nil {
		a.renderError(c, err)
		return
	}
	plugins := make([]string, 0, len(declarations))
	for _, decl := range declarations {
		plugins = append(plugins, decl.Name)
	}

	a.renderHTML(c, http.StatusOK, "admin.html", gin.H{
		"title":   a.engine.Translate(c, "admin.title"),
		"user":    user,
		"plugins": plugins,
	})
}

// ShowModule renders the settings page of one plugin.
func (a *API) ShowModule(c *gin.Context) {
	user := sessionUser(c)
	if user == "" {
		a.showLogin(c)
		return
	}

	name := c.Param("name")
	a.renderHTML(c, http.StatusOK, "module.html", gin.H{
		"title":       name,
		"user":        user,
		"module_name": name,
	})
}

// Logout forgets the admin user.
func (a *API) Logout(c *gin.Context) {
	if _, ok := c.Get(sessions.DefaultKey); ok {
		session := sessions.Default(c)
		session.Delete(engine.SessionUserKey)
		if err := session.Save(); err != nil {
			a.log(c).Warn().Err(err).Msg("clear admin session")
		}
	}
	c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *API) showLogin(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title":         a.engine.Translate(c, "admin.login"),
		"login_methods": a.engine.LoginMethods(),
		"login_failed":  c.Query("login_failed") != "",
	})
}
