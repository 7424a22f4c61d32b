package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Domenick1991/repricing/internal/domain"
)

type PhoneOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	Token       string `json:"token"`
	StateID     string `json:"state_id,omitempty"`
}

// VerifyPhoneOTP returns the raw response; the caller owns the status mapping.
func (c *Client) VerifyPhoneOTP(ctx context.Context, req PhoneOTPRequest) (*Response, error) {
	return c.Do(ctx, Request{
		Service: WebappBFF,
		Method:  http.MethodPost,
		Path:    "/verify-otp",
		Body:    req,
	})
}

func (c *Client) ApproveHotelRepricing(ctx context.Context, auth Auth, repricingSessionID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: WebappBFF,
		Method:  http.MethodPost,
		Path:    "/hotel_rp_approved",
		Body:    map[string]string{"repricing_session_id": repricingSessionID},
		Auth:    &auth,
	}, &out)
	return out, err
}

func (c *Client) HotelPaymentLink(ctx context.Context, auth Auth, repricingSessionID, redirectURL string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: WebappBFF,
		Method:  http.MethodPost,
		Path:    "/hotel_rp_payment_link",
		Body: map[string]string{
			"repricing_session_id": repricingSessionID,
			"redirect_url":         redirectURL,
		},
		Auth: &auth,
	}, &out)
	return out, err
}

func (c *Client) FlightApprovalInfo(ctx context.Context, auth Auth, repricingSessionID, citizenship string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: WebappBFF,
		Method:  http.MethodPost,
		Path:    "/flight_rp_approval_info",
		Body: map[string]string{
			"repricing_session_id": repricingSessionID,
			"citizenship":          citizenship,
		},
		Auth: &auth,
	}, &out)
	return out, err
}

// ListTrips fetches the caller's bookings and tags each one with its kind.
func (c *Client) ListTrips(ctx context.Context, auth Auth) ([]domain.Booking, error) {
	resp, err := c.Do(ctx, Request{
		Service: WebappBFF,
		Method:  http.MethodGet,
		Path:    "/repricing_trips",
		Auth:    &auth,
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return domain.DecodeBookings(resp.Body)
}

// UserResource proxies one of the /me resources ("" for the profile itself).
func (c *Client) UserResource(ctx context.Context, auth Auth, method, resource string, body any) (json.RawMessage, error) {
	path := "/me"
	if resource != "" {
		path += "/" + resource
	}
	var out json.RawMessage
	err := c.call(ctx, Request{
		Service: WebappBFF,
		Method:  method,
		Path:    path,
		Body:    body,
		Auth:    &auth,
	}, &out)
	return out, err
}
