package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

var fixedNow = func() time.Time { return time.UnixMilli(1700000000000) }

type fakeTransport struct {
	calls int
	url   string
	body  []byte
	resp  string
	err   error
}

func (f *fakeTransport) Execute(ctx context.Context, url string, body []byte) ([]byte, error) {
	f.calls++
	f.url = url
	f.body = body
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.resp), nil
}

type recorded struct {
	method      string
	path        string
	query       string
	contentType string
	body        string
}

func robotServer(t *testing.T, status int, resp string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.contentType = r.Header.Get("Content-Type")
		rec.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, resp)
	}))
	t.Cleanup(ts.Close)
	return ts, rec
}

func TestSendSigned(t *testing.T) {
	ts, rec := robotServer(t, http.StatusOK, `{"errcode":0,"errmsg":"ok"}`)

	c, err := NewFromJSON([]byte(`{"access_token":"T","sec_token":"S"}`),
		WithWebhookURL(ts.URL+"/robot/send"),
		WithClock(fixedNow),
		WithLogger(zap.NewNop()),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(context.Background(), NewText("hi").AtAll()); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if rec.method != http.MethodPost {
		t.Errorf("method = %q, want POST", rec.method)
	}
	if rec.path != "/robot/send" {
		t.Errorf("path = %q, want /robot/send", rec.path)
	}
	wantQuery := "access_token=T&timestamp=1700000000000&sign=1MQOO0c3gn9bi6PFoJOVxNJxZSKlorSUJa0EKM6BEbs%3D"
	if rec.query != wantQuery {
		t.Errorf("query = %q, want %q", rec.query, wantQuery)
	}
	if !strings.HasPrefix(rec.contentType, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", rec.contentType)
	}
	assertJSON(t, []byte(rec.body), `{"msgtype":"text","text":{"content":"hi"},"at":{"isAtAll":true}}`)
}

func TestSendKinds(t *testing.T) {
	ctx := context.Background()
	cases := map[string]struct {
		send func(c *Client) error
		want string
	}{
		"text": {
			send: func(c *Client) error { return c.SendText(ctx, "hello") },
			want: `{"msgtype":"text","text":{"content":"hello"}}`,
		},
		"markdown": {
			send: func(c *Client) error { return c.SendMarkdown(ctx, "t", "**bold**") },
			want: `{"msgtype":"markdown","markdown":{"title":"t","text":"**bold**"}}`,
		},
		"link": {
			send: func(c *Client) error { return c.SendLink(ctx, "t", "x", "https://p", "https://m") },
			want: `{"msgtype":"link","link":{"title":"t","text":"x","picUrl":"https://p","messageUrl":"https://m"}}`,
		},
		"feed card": {
			send: func(c *Client) error {
				return c.SendFeedCard(ctx, FeedCardLink{Title: "t", MessageURL: "https://m", PicURL: "https://p"})
			},
			want: `{"msgtype":"feedCard","feedCard":{"links":[{"title":"t","messageURL":"https://m","picURL":"https://p"}]}}`,
		},
		"action card": {
			send: func(c *Client) error {
				return c.SendActionCard(ctx, "t", "x", Button{Title: "go", ActionURL: "https://a"})
			},
			want: `{"msgtype":"actionCard","actionCard":{"title":"t","text":"x","hideAvatar":"0","singleTitle":"go","singleURL":"https://a"}}`,
		},
		"raw": {
			send: func(c *Client) error { return c.Send(ctx, []byte(`{"msgtype":"text","text":{"content":"raw"}}`)) },
			want: `{"msgtype":"text","text":{"content":"raw"}}`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ft := &fakeTransport{resp: `{"errcode":0,"errmsg":"ok"}`}
			c, err := New(Config{AccessToken: "T"}, WithTransport(ft))
			if err != nil {
				t.Fatal(err)
			}
			if err := tc.send(c); err != nil {
				t.Fatalf("send: %v", err)
			}
			if ft.calls != 1 {
				t.Fatalf("%d transport calls, want 1", ft.calls)
			}
			if want := DefaultDingTalkURL + "?access_token=T"; ft.url != want {
				t.Errorf("url = %q, want %q", ft.url, want)
			}
			assertJSON(t, ft.body, tc.want)
		})
	}
}

func TestSendRejectedBeforeTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("empty feed card", func(t *testing.T) {
		ft := &fakeTransport{resp: `{"errcode":0}`}
		c, err := New(Config{AccessToken: "T"}, WithTransport(ft))
		if err != nil {
			t.Fatal(err)
		}
		err = c.SendFeedCard(ctx)
		var me *MessageError
		if !errors.As(err, &me) {
			t.Fatalf("SendFeedCard() = %v, want *MessageError", err)
		}
		if ft.calls != 0 {
			t.Errorf("%d transport calls, want 0", ft.calls)
		}
	})

	t.Run("empty action card", func(t *testing.T) {
		ft := &fakeTransport{resp: `{"errcode":0}`}
		c, err := New(Config{AccessToken: "T"}, WithTransport(ft))
		if err != nil {
			t.Fatal(err)
		}
		err = c.SendActionCard(ctx, "t", "x")
		var me *MessageError
		if !errors.As(err, &me) {
			t.Fatalf("SendActionCard() = %v, want *MessageError", err)
		}
		if ft.calls != 0 {
			t.Errorf("%d transport calls, want 0", ft.calls)
		}
	})

	t.Run("nil message", func(t *testing.T) {
		ft := &fakeTransport{resp: `{"errcode":0}`}
		c, err := New(Config{AccessToken: "T"}, WithTransport(ft))
		if err != nil {
			t.Fatal(err)
		}
		var me *MessageError
		if err := c.SendMessage(ctx, nil); !errors.As(err, &me) {
			t.Fatalf("SendMessage(nil) = %v, want *MessageError", err)
		}
		if ft.calls != 0 {
			t.Errorf("%d transport calls, want 0", ft.calls)
		}
	})
}

func TestWeCom(t *testing.T) {
	ctx := context.Background()
	ft := &fakeTransport{resp: `{"errcode":0,"errmsg":"ok"}`}
	c, err := NewFromJSON([]byte(`{"type":"wecom","access_token":"K","sec_token":"S"}`),
		WithTransport(ft), WithClock(fixedNow))
	if err != nil {
		t.Fatal(err)
	}

	for name, send := range map[string]func() error{
		"markdown":    func() error { return c.SendMarkdown(ctx, "t", "x") },
		"link":        func() error { return c.SendLink(ctx, "t", "x", "p", "m") },
		"feed card":   func() error { return c.SendFeedCard(ctx, FeedCardLink{Title: "t"}) },
		"action card": func() error { return c.SendActionCard(ctx, "t", "x", Button{Title: "b"}) },
	} {
		err := send()
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("%s: got %v, want *ConfigError", name, err)
		}
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: got %v, want ErrUnsupported", name, err)
		}
	}
	if ft.calls != 0 {
		t.Fatalf("%d transport calls for unsupported messages, want 0", ft.calls)
	}

	if err := c.SendMessage(ctx, NewText("hi").AtAll()); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if want := DefaultWeComURL + "?key=K"; ft.url != want {
		t.Errorf("url = %q, want %q", ft.url, want)
	}
	assertJSON(t, ft.body, `{"msgtype":"text","text":{"content":"hi","mentioned_mobile_list":["@all"]}}`)
}

func TestSendErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("remote error", func(t *testing.T) {
		ts, _ := robotServer(t, http.StatusOK, `{"errcode":-1,"errmsg":"system busy"}`)
		c, err := New(Config{AccessToken: "T", WebhookURL: ts.URL})
		if err != nil {
			t.Fatal(err)
		}
		err = c.SendText(ctx, "hi")
		var re *RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("SendText() = %v, want *RemoteError", err)
		}
		if re.Code != -1 || re.Message != "system busy" {
			t.Errorf("RemoteError = %+v, want {-1 system busy}", re)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		ft := &fakeTransport{resp: `{"errcode":310000,"errmsg":"sign not match"}`}
		c, err := New(Config{AccessToken: "T", Secret: "S"}, WithTransport(ft), WithClock(fixedNow))
		if err != nil {
			t.Fatal(err)
		}
		var re *RemoteError
		if err := c.SendText(ctx, "hi"); !errors.As(err, &re) || re.Code != 310000 {
			t.Fatalf("SendText() = %v, want *RemoteError 310000", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		u := ts.URL
		ts.Close()

		c, err := New(Config{AccessToken: "secret-token", Secret: "S", WebhookURL: u}, WithHTTPClient(&http.Client{}))
		if err != nil {
			t.Fatal(err)
		}
		err = c.SendText(ctx, "hi")
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("SendText() = %v, want *TransportError", err)
		}
		if strings.Contains(err.Error(), "secret-token") {
			t.Errorf("error %q leaks the access token", err)
		}
	})

	t.Run("bad status", func(t *testing.T) {
		ts, _ := robotServer(t, http.StatusInternalServerError, `oops`)
		c, err := New(Config{AccessToken: "T", WebhookURL: ts.URL})
		if err != nil {
			t.Fatal(err)
		}
		var te *TransportError
		if err := c.SendText(ctx, "hi"); !errors.As(err, &te) {
			t.Fatalf("SendText() = %v, want *TransportError", err)
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		ts, _ := robotServer(t, http.StatusOK, `<html>`)
		c, err := New(Config{AccessToken: "T", WebhookURL: ts.URL})
		if err != nil {
			t.Fatal(err)
		}
		var te *TransportError
		if err := c.SendText(ctx, "hi"); !errors.As(err, &te) {
			t.Fatalf("SendText() = %v, want *TransportError", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		boom := errors.New("boom")
		c, err := New(Config{AccessToken: "T"}, WithTransport(&fakeTransport{err: boom}))
		if err != nil {
			t.Fatal(err)
		}
		err = c.SendText(ctx, "hi")
		if !errors.Is(err, boom) {
			t.Fatalf("SendText() = %v, want wrapped boom", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ts, _ := robotServer(t, http.StatusOK, `{"errcode":0}`)
		c, err := New(Config{AccessToken: "T", WebhookURL: ts.URL})
		if err != nil {
			t.Fatal(err)
		}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err = c.SendText(cctx, "hi")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("SendText() = %v, want context.Canceled", err)
		}
	})
}

func TestSignedURL(t *testing.T) {
	cases := map[string]struct {
		cfg  Config
		want string
	}{
		"default": {
			cfg:  Config{AccessToken: "T"},
			want: "https://oapi.dingtalk.com/robot/send?access_token=T",
		},
		"signed": {
			cfg:  Config{AccessToken: "T", Secret: "S"},
			want: "https://oapi.dingtalk.com/robot/send?access_token=T&timestamp=1700000000000&sign=1MQOO0c3gn9bi6PFoJOVxNJxZSKlorSUJa0EKM6BEbs%3D",
		},
		"escaped token": {
			cfg:  Config{AccessToken: "a b&c"},
			want: "https://oapi.dingtalk.com/robot/send?access_token=a+b%26c",
		},
		"base with query": {
			cfg:  Config{AccessToken: "T", WebhookURL: "https://example.com/send?x=1"},
			want: "https://example.com/send?x=1&access_token=T",
		},
		"base ending in ampersand": {
			cfg:  Config{AccessToken: "T", WebhookURL: "https://example.com/send?x=1&"},
			want: "https://example.com/send?x=1&access_token=T",
		},
		"base ending in question mark": {
			cfg:  Config{AccessToken: "T", WebhookURL: "https://example.com/send?"},
			want: "https://example.com/send?access_token=T",
		},
		"wecom ignores secret": {
			cfg:  Config{Kind: WeCom, AccessToken: "K", Secret: "S"},
			want: "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=K",
		},
		"direct url": {
			cfg:  Config{AccessToken: "T", Secret: "S", DirectURL: "https://oapi.dingtalk.com/robot/sendBySession?session=abc"},
			want: "https://oapi.dingtalk.com/robot/sendBySession?session=abc",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := New(tc.cfg, WithClock(fixedNow))
			if err != nil {
				t.Fatal(err)
			}
			if got := c.SignedURL(); got != tc.want {
				t.Errorf("SignedURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	var ce *ConfigError
	if _, err := New(Config{}); !errors.As(err, &ce) {
		t.Errorf("New(empty) = %v, want *ConfigError", err)
	}
	if _, err := New(Config{Kind: Kind(7), AccessToken: "T"}); !errors.As(err, &ce) {
		t.Errorf("New(bad kind) = %v, want *ConfigError", err)
	}
	c, err := NewFromURL("https://example.com/hook")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Config().DirectURL; got != "https://example.com/hook" {
		t.Errorf("DirectURL = %q", got)
	}
	c, err = NewFromToken("dingtalk:T?S")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Config(); got.AccessToken != "T" || got.Secret != "S" {
		t.Errorf("Config() = %+v, want token T secret S", got)
	}
}

func TestConcurrentSends(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"errcode":0,"errmsg":"ok"}`)
	}))
	defer ts.Close()

	c, err := New(Config{AccessToken: "T", Secret: "S", WebhookURL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.SendText(context.Background(), "hi")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	if got := hits.Load(); got != n {
		t.Errorf("server saw %d requests, want %d", got, n)
	}
}
