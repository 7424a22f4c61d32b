package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type CreateStateRequest struct {
	PixelID    string          `json:"pixel_id"`
	UserAgent  string          `json:"user_agent"`
	FBP        string          `json:"fbp,omitempty"`
	FBC        string          `json:"fbc,omitempty"`
	UTMParams  json.RawMessage `json:"utm_params,omitempty"`
	CustomerID string          `json:"customer_id,omitempty"`
}

type EmailStatus struct {
	EmailLinked bool `json:"email_linked"`
}

type CheckoutSessionRequest struct {
	StateID      string `json:"state_id"`
	LiveMode     bool   `json:"live_mode"`
	ReturnURL    string `json:"return_url,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
}

func (c *Client) CreateLinkingState(ctx context.Context, req CreateStateRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: GmailImport,
		Method:  http.MethodPost,
		Path:    "/v2/gmail/import/create_state",
		Body:    req,
	}, &out)
	return out, err
}

func (c *Client) EmailStatus(ctx context.Context, stateID string) (*EmailStatus, error) {
	var out EmailStatus
	err := c.call(ctx, Request{
		Service: GmailImport,
		Method:  http.MethodGet,
		Path:    "/v2/gmail/import/get_email_status/" + url.PathEscape(stateID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, Request{
		Service: GmailImport,
		Method:  http.MethodPost,
		Path:    "/v2/gmail/import/create_checkout_session",
		Body:    req,
	}, &out)
	return out, err
}

func (c *Client) CheckoutSessionStatus(ctx context.Context, sessionID string) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, Request{
		Service: GmailImport,
		Method:  http.MethodGet,
		Path:    "/v2/gmail/import/checkout_session_status/" + url.PathEscape(sessionID),
	}, &out)
	return out, err
}
