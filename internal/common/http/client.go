// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the shared outbound HTTP client. Requests are never retried.
type Client struct {
	rc *resty.Client
}

// NewClient returns a client whose every request is bounded by timeout.
func NewClient(timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// NewClientWithBaseURL returns a client that resolves relative paths against baseURL.
func NewClientWithBaseURL(baseURL string, timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.rc.SetBaseURL(baseURL)
	return c
}

// R starts a request bound to ctx. Response bodies are decoded as JSON whatever
// content type the server declares.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx).ForceContentType("application/json")
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// CheckResponse turns a transport error or a non-2xx response into an error.
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		body := string(resp.Body())
		if len(body) > 512 {
			body = body[:512]
		}
		return &StatusError{StatusCode: resp.StatusCode(), Body: body}
	}
	return nil
}

// IsTimeout reports whether err came from a deadline or a client timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
