// Package listing implements the HTTP client for the trading core's internal
// listing endpoints, which turn an approved intake market into a tradable
// internal market.
package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marketdesk/admind/internal/crypto"
	"github.com/marketdesk/admind/internal/domain"
)

const (
	approvePath = "/internal/markets/approve"
	rejectPath  = "/internal/markets/reject"
)

// Client posts listing decisions to the trading core. Requests are signed
// with a shared-secret HMAC when credentials are configured.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	httpClient *http.Client
}

// New creates a listing client for the given trading-core base URL.
func New(baseURL string, auth *crypto.HMACAuth) *Client {
	return &Client{
		baseURL: baseURL,
		auth:    auth,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// rejectRequest is the wire body for a rejection.
type rejectRequest struct {
	PolymarketID string `json:"polymarketId"`
	Reason       string `json:"reason,omitempty"`
}

// SubmitApproval posts an approval payload. Success is determined purely by
// HTTP status; the trading core sends no required response body.
func (c *Client) SubmitApproval(ctx context.Context, payload domain.ApprovalPayload) error {
	if err := c.post(ctx, approvePath, payload); err != nil {
		return fmt.Errorf("listing: approve %s: %w", payload.PolymarketID, err)
	}
	return nil
}

// SubmitRejection marks a market rejected in the trading core.
func (c *Client) SubmitRejection(ctx context.Context, polymarketID, reason string) error {
	if err := c.post(ctx, rejectPath, rejectRequest{PolymarketID: polymarketID, Reason: reason}); err != nil {
		return fmt.Errorf("listing: reject %s: %w", polymarketID, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.auth.Enabled() {
		for k, v := range c.auth.Headers(http.MethodPost, path, string(data)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
