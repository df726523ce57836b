// Package tagmanager injects the Google Tag Manager container snippet.
package tagmanager

import (
	"fmt"
	"html/template"
	"regexp"

	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/plugin"
)

const Name = "tagmanager"

// Config is the plugin configuration.
type Config struct {
	ID        string `json:"id" validate:"required,startswith=GTM-"`
	DataLayer string `json:"data_layer" validate:"required,alphanum"`
	// Environment holds the gtm_auth and gtm_preview query of a non live container.
	Environment string `json:"environment"`
}

func defaults() Config {
	return Config{DataLayer: "dataLayer"}
}

func init() {
	plugin.Register(plugin.Structured(Name, defaults, New))
}

// Plugin adds the container to every rendered page.
type Plugin struct {
	cfg Config
}

var (
	containerID = regexp.MustCompile(`^GTM-[A-Z0-9]+$`)
	environment = regexp.MustCompile(`^[A-Za-z0-9_=&-]*$`)
)

func New(cfg Config) (plugin.Plugin, error) {
	if !containerID.MatchString(cfg.ID) {
		return nil, fmt.Errorf("malformed container id %q", cfg.ID)
	}
	if !environment.MatchString(cfg.Environment) {
		return nil, fmt.Errorf("malformed environment %q", cfg.Environment)
	}
	return &Plugin{cfg: cfg}, nil
}

func (p *Plugin) Process(e *engine.Engine) error {
	e.AddDynamicHead(p.Head())
	e.AddDynamicBody(p.Body())
	return nil
}

func (p *Plugin) query() string {
	q := "id=" + p.cfg.ID
	if p.cfg.Environment != "" {
		q += "&" + p.cfg.Environment
	}
	return q
}

// Head returns the script loading the container.
func (p *Plugin) Head() string {
	return fmt.Sprintf(`<script>(function(w,d,s,l){w[l]=w[l]||[];w[l].push({'gtm.start':new Date().getTime(),event:'gtm.js'});`+
		`var f=d.getElementsByTagName(s)[0],j=d.createElement(s),dl=l!='dataLayer'?'&l='+l:'';j.async=true;`+
		`j.src='https://www.googletagmanager.com/gtm.js?%s'+dl;f.parentNode.insertBefore(j,f);`+
		`})(window,document,'script','%s');</script>`,
		p.query(), p.cfg.DataLayer)
}

// Body returns the fallback iframe for clients without JavaScript.
func (p *Plugin) Body() string {
	return fmt.Sprintf(`<noscript><iframe src="https://www.googletagmanager.com/ns.html?%s" `+
		`height="0" width="0" style="display:none;visibility:hidden"></iframe></noscript>`, template.HTMLEscapeString(p.query()))
}
