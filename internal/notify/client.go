// Package notify posts partner lifecycle events to a webhook endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Event types delivered to the webhook.
const (
	EventPartnerApproved = "partner.approved"
	EventEarningPaid     = "earning.paid"
)

// Event is the payload posted for every lifecycle notification.
type Event struct {
	Type        string    `json:"type"`
	PartnerID   string    `json:"partner_id"`
	PartnerName string    `json:"partner_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	EntryID     string    `json:"entry_id,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Client delivers events over HTTP with automatic retries. Delivery is
// at-least-once; the receiver is expected to deduplicate by entry id.
type Client struct {
	endpoint   string
	httpClient *retryablehttp.Client
}

// NewClient creates a webhook client for the given endpoint.
func NewClient(endpoint string) *Client {
	base := strings.TrimRight(endpoint, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.HTTPClient.Timeout = 5 * time.Second
	c.Logger = nil

	return &Client{
		endpoint:   base,
		httpClient: c,
	}
}

// PartnerApproved reports that an application was approved and a partner
// record created.
func (c *Client) PartnerApproved(ctx context.Context, partnerID, name, email string) error {
	return c.send(ctx, Event{
		Type:        EventPartnerApproved,
		PartnerID:   partnerID,
		PartnerName: name,
		Email:       email,
		OccurredAt:  time.Now().UTC(),
	})
}

// EarningPaid reports that a ledger entry was marked paid.
func (c *Client) EarningPaid(ctx context.Context, partnerID, entryID string, amountPaise int64) error {
	amount := float64(amountPaise) / 100
	return c.send(ctx, Event{
		Type:       EventEarningPaid,
		PartnerID:  partnerID,
		EntryID:    entryID,
		Amount:     &amount,
		OccurredAt: time.Now().UTC(),
	})
}

func (c *Client) send(ctx context.Context, ev Event) error {
	if c == nil || c.endpoint == "" {
		return fmt.Errorf("notify client not configured")
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
