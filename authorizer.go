package pusher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JokBal/pusher-go-client/internal/channel"
)

// Authorizer proves, to an application's own auth endpoint, that a given
// socket may subscribe to a given private/presence channel. It's the same
// contract as internal/channel.Authorizer, re-exported at the root so
// callers never need to import an internal package.
type Authorizer = channel.Authorizer

// AuthorizerFunc adapts a plain function to Authorizer.
type AuthorizerFunc = channel.AuthorizerFunc

// HTTPAuthorizer is the production Authorizer: it POSTs channel_name and
// socket_id as form fields to Endpoint and returns the response body
// verbatim as the auth JSON. Grounded on the teacher's internal/upstream.Upstream,
// which builds its own http.Client over a tuned http.Transport rather than
// using http.DefaultClient.
type HTTPAuthorizer struct {
	Endpoint string
	Headers  map[string]string
	Client   *http.Client
}

// NewHTTPAuthorizer constructs an HTTPAuthorizer with a request timeout and
// a connection-reusing transport, the same shape as NewUpstream's Config.
func NewHTTPAuthorizer(endpoint string, requestTimeout time.Duration) *HTTPAuthorizer {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &HTTPAuthorizer{
		Endpoint: endpoint,
		Client: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}
}

// Authorize implements channel.Authorizer.
func (a *HTTPAuthorizer) Authorize(channelName, socketID string) (string, error) {
	form := url.Values{}
	form.Set("channel_name", channelName)
	form.Set("socket_id", socketID)

	ctx, cancel := context.WithTimeout(context.Background(), a.clientTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth endpoint returned status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func (a *HTTPAuthorizer) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

func (a *HTTPAuthorizer) clientTimeout() time.Duration {
	if a.Client != nil && a.Client.Timeout > 0 {
		return a.Client.Timeout
	}
	return 10 * time.Second
}
