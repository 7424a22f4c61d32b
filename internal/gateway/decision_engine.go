package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// SendOTPStatus mirrors the Decision Engine's nested send result.
type SendOTPStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SendOTPResult struct {
	Status    SendOTPStatus `json:"send_otp_status"`
	PhoneLast string        `json:"phone_number_last_4_digits"`
}

// VerifyOTPResult is the shared shape of both OTP verification upstreams.
type VerifyOTPResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Token      string `json:"token"`
	CustomerID string `json:"customer_id"`
	Error      string `json:"error,omitempty"`
}

type ApprovalInfoPayload struct {
	RepricingSessionID string `json:"repricing_session_id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Birthday           string `json:"birthday"`
	Citizenship        string `json:"citizenship"`
	RedirectURL        string `json:"redirect_url"`
}

type ApprovalInfoResult struct {
	StripeLinkURL string `json:"stripe_link_url"`
}

func (c *Client) SendHotelOTP(ctx context.Context, repricingSessionID string) (*SendOTPResult, error) {
	var out SendOTPResult
	err := c.call(ctx, Request{
		Service: DecisionEngine,
		Method:  http.MethodPost,
		Path:    "/send-otp-for-hotel-rp",
		Body:    map[string]string{"repricing_session_id": repricingSessionID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyHotelOTP returns the raw response so callers can tell 401 from other failures.
func (c *Client) VerifyHotelOTP(ctx context.Context, repricingSessionID, code string) (*Response, error) {
	return c.Do(ctx, Request{
		Service: DecisionEngine,
		Method:  http.MethodPost,
		Path:    "/verify-otp-for-hotel-rp",
		Body: map[string]string{
			"repricing_session_id": repricingSessionID,
			"token":                code,
		},
	})
}

func (c *Client) AskApprovalInfo(ctx context.Context, sessionID string) (json.RawMessage, error) {
	query := url.Values{}
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: DecisionEngine,
		Method:  http.MethodGet,
		Path:    "/hotel_rp_ask_approval_info",
		Query:   query,
	}, &out)
	return out, err
}

func (c *Client) SubmitApprovalInfo(ctx context.Context, payload ApprovalInfoPayload) (*ApprovalInfoResult, error) {
	var out ApprovalInfoResult
	err := c.call(ctx, Request{
		Service: DecisionEngine,
		Method:  http.MethodPost,
		Path:    "/hotel_rp_approval_info",
		Body:    payload,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteRegistration(ctx context.Context, stateID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: DecisionEngine,
		Method:  http.MethodPost,
		Path:    "/complete_user_registration_actions",
		Body:    map[string]string{"state_id": stateID},
	}, &out)
	return out, err
}
