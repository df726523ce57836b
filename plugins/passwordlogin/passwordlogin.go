// Package passwordlogin adds a username and password login method to the
// admin panel.
package passwordlogin

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/logger"
	"github.com/quillcms/internal/plugin"
)

const (
	Name = "passwordlogin"
	// LoginPath receives the login form.
	LoginPath = "/admin/login/password"
)

// Config holds the single admin account.
type Config struct {
	Username     string `json:"username" validate:"required"`
	PasswordHash string `json:"password_hash" validate:"required"`
}

func init() {
	plugin.Register(plugin.Structured(Name, nil, New))
}

type Plugin struct {
	cfg Config
}

// New checks that the configured hash is a bcrypt hash.
func New(cfg Config) (plugin.Plugin, error) {
	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return nil, fmt.Errorf("password_hash is not a bcrypt hash: %w", err)
	}
	return &Plugin{cfg: cfg}, nil
}

var form = template.Must(template.New("form").Parse(
	`<form method="post" action="{{.}}" class="login-form">` +
		`<label>Username <input type="text" name="username" autocomplete="username" required></label>` +
		`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>` +
		`<button type="submit">Log in</button></form>`))

func (p *Plugin) Process(e *engine.Engine) error {
	var buf strings.Builder
	if err := form.Execute(&buf, LoginPath); err != nil {
		return err
	}

	e.AddLoginMethod(engine.LoginMethod{Name: Name, Label: "Password", Form: template.HTML(buf.String())})
	e.Router().POST(LoginPath, p.login(e))
	return nil
}

func (p *Plugin) login(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")
		log := logger.FromContext(c, e.Logger())

		if username != p.cfg.Username ||
			bcrypt.CompareHashAndPassword([]byte(p.cfg.PasswordHash), []byte(password)) != nil {
			log.Warn().Str("username", username).Msg("admin login failed")
			c.Redirect(http.StatusSeeOther, "/admin/?login_failed=1")
			return
		}

		session := sessions.Default(c)
		session.Set(engine.SessionUserKey, username)
		if err := session.Save(); err != nil {
			c.Error(err)
			c.Status(http.StatusInternalServerError)
			return
		}

		log.Info().Str("username", username).Msg("admin logged in")
		e.Notify(fmt.Sprintf("%s logged in to the admin panel", username))
		c.Redirect(http.StatusSeeOther, "/admin/")
	}
}
