package bot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Kind is the account kind of a robot.
type Kind int

const (
	// DingTalk is a DingTalk custom robot; it accepts every message type
	// and signs requests when a secret is set.
	DingTalk Kind = iota
	// WeCom is a WeCom (WeChat Work) group robot. It only accepts text and
	// never signs.
	WeCom
)

func (k Kind) String() string {
	switch k {
	case DingTalk:
		return "dingtalk"
	case WeCom:
		return "wecom"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const (
	DefaultDingTalkURL = "https://oapi.dingtalk.com/robot/send"
	DefaultWeComURL    = "https://qyapi.weixin.qq.com/cgi-bin/webhook/send"
)

// Config is the configuration of one robot.
type Config struct {
	Kind        Kind
	AccessToken string
	// Secret enables request signing. DingTalk only.
	Secret string
	// WebhookURL is the base send endpoint. Empty selects the default of
	// Kind.
	WebhookURL string
	// DirectURL, if set, is used verbatim instead of the computed URL.
	DirectURL string
}

func (c Config) webhookURL() string {
	if c.WebhookURL != "" {
		return c.WebhookURL
	}
	if c.Kind == WeCom {
		return DefaultWeComURL
	}
	return DefaultDingTalkURL
}

func (c Config) validate() error {
	if c.Kind != DingTalk && c.Kind != WeCom {
		return fmt.Errorf("unknown robot kind %v", c.Kind)
	}
	if c.AccessToken == "" && c.DirectURL == "" {
		return errors.New("need access_token or direct_url")
	}
	return nil
}

// ParseConfig parses a JSON robot configuration:
//
//	{
//	    "type": "dingtalk",           // optional, "wechat", "wechatwork" or "wecom" select WeCom
//	    "access_token": "<token>",
//	    "sec_token": "<secret>",      // optional, "secret" is accepted too
//	    "default_webhook_url": "",    // optional
//	    "direct_url": ""              // optional
//	}
func ParseConfig(data []byte) (Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Config{}, &ConfigError{Op: "parse config", Err: err}
	}
	return configFromViper(v, "parse config")
}

// LoadConfig reads a JSON robot configuration from path; a leading "~/"
// is expanded to the home directory. See ParseConfig for the format.
func LoadConfig(path string) (Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return Config{}, &ConfigError{Op: "load config", Err: err}
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, &ConfigError{Op: "load config", Err: err}
	}
	return configFromViper(v, "load config "+path)
}

func configFromViper(v *viper.Viper, op string) (Config, error) {
	cfg := Config{
		AccessToken: v.GetString("access_token"),
		Secret:      v.GetString("sec_token"),
		WebhookURL:  v.GetString("default_webhook_url"),
		DirectURL:   v.GetString("direct_url"),
	}
	if cfg.Secret == "" {
		cfg.Secret = v.GetString("secret")
	}
	switch strings.ToLower(v.GetString("type")) {
	case "wechat", "wechatwork", "wecom":
		cfg.Kind = WeCom
	}
	if err := cfg.validate(); err != nil {
		return Config{}, &ConfigError{Op: op, Err: err}
	}
	return cfg, nil
}

// ParseToken parses a compact robot token:
//
//	dingtalk:<access token>[?<secret>]
//	wechatwork:<key>
//	wecom:<key>
func ParseToken(token string) (Config, error) {
	var cfg Config
	switch {
	case strings.HasPrefix(token, "dingtalk:"):
		tok, sec, _ := strings.Cut(strings.TrimPrefix(token, "dingtalk:"), "?")
		cfg = Config{Kind: DingTalk, AccessToken: tok, Secret: sec}
	case strings.HasPrefix(token, "wechatwork:"):
		cfg = Config{Kind: WeCom, AccessToken: strings.TrimPrefix(token, "wechatwork:")}
	case strings.HasPrefix(token, "wecom:"):
		cfg = Config{Kind: WeCom, AccessToken: strings.TrimPrefix(token, "wecom:")}
	default:
		return Config{}, &ConfigError{Op: "parse token", Err: errors.New("want dingtalk:, wechatwork: or wecom: prefix")}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, &ConfigError{Op: "parse token", Err: err}
	}
	return cfg, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
