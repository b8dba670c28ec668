package bot

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the transport performing the network exchange.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHTTPClient sends through hc. Timeouts and pooling are hc's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.transport = &HTTPTransport{Client: hc}
	}
}

// WithClock sets the time source used for signing.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger for debug traces. Errors are returned, not
// logged.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWebhookURL overrides the base send endpoint.
func WithWebhookURL(u string) Option {
	return func(c *Client) {
		c.cfg.WebhookURL = u
	}
}
