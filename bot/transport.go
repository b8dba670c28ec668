package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport performs the network exchange of one send: it posts body as
// JSON to url and returns the response body.
type Transport interface {
	Execute(ctx context.Context, url string, body []byte) ([]byte, error)
}

// DefaultHTTPClient is used by HTTPTransport when no client is set.
var DefaultHTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}

const contentType = "application/json; charset=utf-8"

// UserAgent is sent with every request of HTTPTransport.
const UserAgent = "dingtalk-bot/1.0"

// HTTPTransport is a Transport backed by an http.Client. Connection reuse
// and timeouts are the client's; no retries are made.
type HTTPTransport struct {
	Client *http.Client
}

func (t *HTTPTransport) Execute(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", UserAgent)

	httpc := DefaultHTTPClient
	if t.Client != nil {
		httpc = t.Client
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("POST %s: want 200, got %d: %s", url, resp.StatusCode, data)
	}
	return data, nil
}
