// Package webhook forwards engine notifications to an HTTP endpoint.
package webhook

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/plugin"
)

const Name = "webhook"

// Config selects the endpoint receiving {"text": message} POSTs.
type Config struct {
	URL     string            `json:"url" validate:"required,url"`
	Token   string            `json:"token"`
	Headers map[string]string `json:"headers"`
	Timeout time.Duration     `json:"timeout" validate:"gt=0"`
	// QueueSize bounds the notifications waiting for delivery. Messages
	// arriving while the queue is full are dropped.
	QueueSize int `json:"queue_size" validate:"gte=1"`
}

func defaults() Config {
	return Config{Timeout: 5 * time.Second, QueueSize: 64}
}

func init() {
	plugin.Register(plugin.Structured(Name, defaults, New))
}

// Plugin delivers notifications from a single background worker so that
// Notify never waits on the endpoint.
type Plugin struct {
	cfg    Config
	client *resty.Client
	queue  chan string
}

func New(cfg Config) (plugin.Plugin, error) {
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	if len(cfg.Headers) > 0 {
		client.SetHeaders(cfg.Headers)
	}
	return &Plugin{cfg: cfg, client: client, queue: make(chan string, cfg.QueueSize)}, nil
}

func (p *Plugin) Process(e *engine.Engine) error {
	log := e.Logger().With().Str("plugin", Name).Logger()
	go p.deliver(log)
	e.AddNotifier(func(message string) {
		select {
		case p.queue <- message:
		default:
			log.Warn().Int("queue_size", p.cfg.QueueSize).Msg("notification queue full, dropping message")
		}
	})
	return nil
}

func (p *Plugin) deliver(log zerolog.Logger) {
	for message := range p.queue {
		p.send(log, message)
	}
}

func (p *Plugin) send(log zerolog.Logger, message string) {
	resp, err := p.client.R().
		SetBody(map[string]string{"text": message}).
		Post(p.cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("deliver notification")
		return
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Msg("deliver notification")
	}
}
