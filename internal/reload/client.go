// SPDX-License-Identifier: MPL-2.0

// Package reload notifies a running game server that a resource changed so
// it can restart it without a full server restart.
package reload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"cfxforge-cli/pkg/types"
)

// requestTimeout bounds restart calls; a hung server must not stall the
// watch loop.
const requestTimeout = 10 * time.Second

type (
	// Client talks to the reload endpoint exposed by the server-side helper
	// resource.
	Client struct {
		baseURL    string
		apiKey     string
		httpClient *http.Client
	}

	restartRequest struct {
		Resource string `json:"resource"`
	}
)

// NewClient creates a Client for the endpoint at host:port. The API key is
// optional; when set it is sent with every request.
func NewClient(host string, port types.ListenPort, apiKey string) *Client {
	return &Client{
		baseURL: "http://" + host + ":" + port.String(),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Restart asks the server to restart the named resource.
func (c *Client) Restart(ctx context.Context, resource string) error {
	body, err := sonic.Marshal(restartRequest{Resource: resource})
	if err != nil {
		return fmt.Errorf("encode restart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/restart", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create restart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("restart %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("restart %s: server responded %d: %s", resource, resp.StatusCode, snippet)
	}
	return nil
}
