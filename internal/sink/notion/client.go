// Package notion publishes daily reports as pages of a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
)

const (
	sinkName      = "notion"
	maxErrorBody  = 4 << 10
	clientTimeout = 30 * time.Second
)

// Client creates pages through the Notion REST API.
type Client struct {
	cfg        config.NotionConfig
	httpClient *http.Client
}

// NewClient builds a client from cfg. A nil httpClient gets a default
// one with a fixed timeout; the publisher's context deadline still applies.
func NewClient(cfg config.NotionConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: clientTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

func (c *Client) Name() string { return sinkName }

func (c *Client) Configured() bool { return c.cfg.Configured() }

// Publish creates one page for the publication's day. The call is made
// exactly once; any non-2xx response is returned with its body verbatim.
func (c *Client) Publish(ctx context.Context, pub *domain.Publication) error {
	body, err := json.Marshal(BuildPageRequest(c.cfg.DatabaseID, pub))
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBase+"/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
