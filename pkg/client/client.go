// Package client talks to the timer24h daemon over its unix socket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client is a struct for communicating with the timer24h daemon
type Client struct {
	socketPath string
	httpClient *http.Client
}

// NewClient is a constructor for creating a new Client
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					conn, err := d.DialContext(ctx, "unix", socketPath)
					if err != nil {
						if errors.Is(err, os.ErrNotExist) {
							return nil, ErrDaemonNotRunning
						}
						if errors.Is(err, os.ErrPermission) {
							return nil, ErrPermissionDenied
						}
						logrus.Errorf("failed to connect to unix socket: %v", err)
						return nil, err
					}
					return conn, err
				},
			},
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Send sends in as JSON and decodes the response into out. Either may be nil.
func (c *Client) Send(ctx context.Context, method, path string, in, out any) error {
	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"unix":   c.socketPath,
	}).Debug("sending request")

	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unwrapDialError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read response body")
	}

	if err := statusError(resp.StatusCode, b); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return pkgerrors.Wrapf(err, "failed to decode response of %s %s", method, path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.Send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.Send(ctx, http.MethodPut, path, in, out)
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	return c.Send(ctx, http.MethodPost, path, nil, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.Send(ctx, http.MethodDelete, path, nil, nil)
}

// statusError turns a non-2xx response into an error. The daemon sends the
// error message as a JSON string.
func statusError(code int, body []byte) error {
	if code >= 200 && code <= 299 {
		return nil
	}

	msg := string(body)
	var s string
	if json.Unmarshal(body, &s) == nil {
		msg = s
	}

	switch code {
	case http.StatusNotFound:
		return pkgerrors.Wrap(ErrNotFound, msg)
	case http.StatusBadRequest:
		return pkgerrors.Wrap(ErrBadRequest, msg)
	}
	return fmt.Errorf("got %d: %s", code, msg)
}

// unwrapDialError surfaces the sentinel errors returned by DialContext,
// which net/http wraps in *url.Error.
func unwrapDialError(err error) error {
	switch {
	case pkgerrors.Is(err, ErrDaemonNotRunning):
		return ErrDaemonNotRunning
	case pkgerrors.Is(err, ErrPermissionDenied):
		return ErrPermissionDenied
	}
	return pkgerrors.Wrap(err, "failed to send request")
}
