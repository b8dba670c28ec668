// Package bot sends messages to DingTalk custom robots and WeCom group
// robots through their webhook endpoints.
//
// A Client is built once from a robot configuration and is safe for
// concurrent use:
//
//	c, err := bot.NewFromFile("~/.dingtalk-token.json")
//	if err != nil {
//		return err
//	}
//	err = c.SendMessage(ctx, bot.NewText("build failed").AtAll())
//
// Every send makes exactly one request. Failures come back as
// *ConfigError, *MessageError, *TransportError or *RemoteError.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client sends messages to one robot. Its configuration does not change
// after construction.
type Client struct {
	cfg       Config
	transport Transport
	now       func() time.Time
	logger    *zap.Logger
}

// hookResponse is the answer of the robot service.
type hookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// New returns a client for the robot described by cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, &ConfigError{Op: "new client", Err: err}
	}
	c := &Client{
		cfg:       cfg,
		transport: &HTTPTransport{},
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromJSON returns a client for the JSON configuration in data. See
// ParseConfig for the format.
func NewFromJSON(data []byte, opts ...Option) (*Client, error) {
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// NewFromFile returns a client for the JSON configuration file at path.
// The file is read before New returns.
func NewFromFile(path string, opts ...Option) (*Client, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// NewFromToken returns a client for a compact token. See ParseToken.
func NewFromToken(token string, opts ...Option) (*Client, error) {
	cfg, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// NewFromURL returns a client posting to a fully qualified webhook URL,
// such as the session webhook handed to an outgoing robot.
func NewFromURL(directURL string, opts ...Option) (*Client, error) {
	return New(Config{DirectURL: directURL}, opts...)
}

// Config returns the configuration of c.
func (c *Client) Config() Config { return c.cfg }

// SendText sends a text message.
func (c *Client) SendText(ctx context.Context, content string) error {
	return c.SendMessage(ctx, NewText(content))
}

// SendMarkdown sends a markdown message.
func (c *Client) SendMarkdown(ctx context.Context, title, content string) error {
	return c.SendMessage(ctx, NewMarkdown(title, content))
}

// SendLink sends a link message.
func (c *Client) SendLink(ctx context.Context, title, text, picURL, messageURL string) error {
	return c.SendMessage(ctx, NewLink(title, text, picURL, messageURL))
}

// SendFeedCard sends a feed card made of links.
func (c *Client) SendFeedCard(ctx context.Context, links ...FeedCardLink) error {
	return c.SendMessage(ctx, NewFeedCard(links...))
}

// SendActionCard sends an action card. One button renders as a
// single-button card, more as a horizontal row.
func (c *Client) SendActionCard(ctx context.Context, title, text string, buttons ...Button) error {
	m := NewActionCard(title, text)
	for _, b := range buttons {
		m.AddButton(b)
	}
	return c.SendMessage(ctx, m)
}

// SendMessage validates, renders and posts msg.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if msg == nil {
		return &MessageError{Reason: "nil message"}
	}
	var (
		body []byte
		err  error
	)
	if c.cfg.Kind == WeCom {
		text, ok := msg.(*TextMessage)
		if !ok {
			return &ConfigError{
				Op:  "send " + string(msg.Type()),
				Err: fmt.Errorf("%w by %v robots", ErrUnsupported, c.cfg.Kind),
			}
		}
		body, err = text.marshalWeCom()
	} else {
		if err := msg.Validate(); err != nil {
			return err
		}
		body, err = msg.Marshal()
	}
	if err != nil {
		return &MessageError{Type: msg.Type(), Reason: err.Error()}
	}
	return c.send(ctx, msg.Type(), body)
}

// Send posts a prebuilt JSON message body.
func (c *Client) Send(ctx context.Context, body []byte) error {
	return c.send(ctx, "", body)
}

func (c *Client) send(ctx context.Context, typ MessageType, body []byte) error {
	u, sig := c.signedURL()
	c.logger.Debug("sending robot message",
		zap.Stringer("kind", c.cfg.Kind),
		zap.String("msgtype", string(typ)),
		zap.Bool("signed", sig != nil),
		zap.Bool("direct", c.cfg.DirectURL != ""),
		zap.Int("bytes", len(body)),
	)

	data, err := c.transport.Execute(ctx, u, body)
	if err != nil {
		return &TransportError{Err: err, scrubber: c.scrubber(sig)}
	}
	var resp hookResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return &TransportError{Err: fmt.Errorf("decode response %q: %w", data, err), scrubber: c.scrubber(sig)}
	}
	if resp.ErrCode != 0 {
		return &RemoteError{Code: resp.ErrCode, Message: resp.ErrMsg}
	}
	c.logger.Debug("robot message sent", zap.String("msgtype", string(typ)))
	return nil
}

// SignedURL returns the URL the next message would be posted to, signed
// with the current time when a secret is configured.
func (c *Client) SignedURL() string {
	u, _ := c.signedURL()
	return u
}

func (c *Client) signedURL() (string, *Signature) {
	if c.cfg.DirectURL != "" {
		return c.cfg.DirectURL, nil
	}
	base := c.cfg.webhookURL()

	var b strings.Builder
	b.WriteString(base)
	switch {
	case strings.HasSuffix(base, "?"):
	case strings.Contains(base, "?"):
		if !strings.HasSuffix(base, "&") {
			b.WriteByte('&')
		}
	default:
		b.WriteByte('?')
	}
	if c.cfg.Kind == WeCom {
		b.WriteString("key=")
	} else {
		b.WriteString("access_token=")
	}
	b.WriteString(url.QueryEscape(c.cfg.AccessToken))

	if c.cfg.Kind != DingTalk || c.cfg.Secret == "" {
		return b.String(), nil
	}
	sig := Sign(c.cfg.Secret, Timestamp(c.now()))
	fmt.Fprintf(&b, "&timestamp=%d&sign=%s", sig.Timestamp, sig.Sign)
	return b.String(), &sig
}

// scrubber hides credentials in transport error messages, which usually
// quote the request URL.
func (c *Client) scrubber(sig *Signature) *strings.Replacer {
	var pairs []string
	for _, s := range []string{c.cfg.AccessToken, url.QueryEscape(c.cfg.AccessToken), c.cfg.Secret} {
		if s != "" {
			pairs = append(pairs, s, "[redacted]")
		}
	}
	if sig != nil {
		pairs = append(pairs, sig.Sign, "[redacted]")
	}
	if len(pairs) == 0 {
		return nil
	}
	return strings.NewReplacer(pairs...)
}
