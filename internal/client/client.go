package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/flow"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/Domenick1991/repricing/internal/session"
	"github.com/Domenick1991/repricing/internal/trips"
	"github.com/google/uuid"
)

const (
	defaultTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-ID"
)

var (
	_ session.ProfileFetcher = (*Client)(nil)
	_ trips.Fetcher          = (*Client)(nil)
	_ flow.Gateway           = (*Client)(nil)
)

// Client calls this app's own /api routes the way the browser does.
// Non-2xx answers come back as *gateway.UpstreamError carrying the body's
// "error" text; a 401 also matches domain.ErrUnauthenticated.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithCookieJar lets the authToken cookie mirrored by the session ride along.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the app origin requests are sent to, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// unauthorizedError is a 401 from the API; it carries the login redirect.
type unauthorizedError struct {
	*gateway.UpstreamError
	Redirect string
}

func (e *unauthorizedError) Is(target error) bool {
	return target == domain.ErrUnauthenticated
}

func (e *unauthorizedError) Unwrap() error {
	return e.UpstreamError
}

// LoginRedirect returns the login path a 401 pointed at, if any.
func LoginRedirect(err error) (string, bool) {
	var ue *unauthorizedError
	if errors.As(err, &ue) && ue.Redirect != "" {
		return ue.Redirect, true
	}
	return "", false
}

type call struct {
	method string
	path   string
	query  url.Values
	auth   *gateway.Auth
	body   any
}

func (c *Client) do(ctx context.Context, in call, out any) error {
	endpoint := c.baseURL + in.path
	if len(in.query) > 0 {
		endpoint += "?" + in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		data, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", in.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", in.path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if in.auth != nil && in.auth.Token != "" {
		req.Header.Set("Authorization", "Bearer "+in.auth.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %s", gateway.ErrTimeout, in.path)
		}
		return fmt.Errorf("call %s: %w", in.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", in.path, err)
	}

	r := &gateway.Response{Status: resp.StatusCode, Body: data}
	if err := r.Err(); err != nil {
		return classify(err, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return r.Decode(out)
}

func classify(err error, body []byte) error {
	ue, ok := gateway.AsUpstreamError(err)
	if !ok {
		return err
	}
	switch ue.Status {
	case http.StatusUnauthorized:
		var payload struct {
			Redirect string `json:"redirect"`
		}
		_ = json.Unmarshal(body, &payload)
		return &unauthorizedError{UpstreamError: ue, Redirect: payload.Redirect}
	case http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", gateway.ErrTimeout, ue.Message)
	}
	return ue
}

// impersonation carries the impersonation id as a query parameter.
func impersonation(auth gateway.Auth) url.Values {
	if auth.ImpersonationID == "" {
		return nil
	}
	return url.Values{"impersonationId": {auth.ImpersonationID}}
}

// Verification is the body of both OTP validation routes.
type Verification struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Token      string `json:"token"`
	CustomerID string `json:"customer_id"`
}

// VerifyPhoneOTP exchanges a phone number and code for a session token.
func (c *Client) VerifyPhoneOTP(ctx context.Context, phone, code, stateID string) (*Verification, error) {
	var out Verification
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/otp/validate-otp",
		body:   map[string]string{"phone_number": phone, "otp_code": code, "state_id": stateID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchProfile(ctx context.Context, auth gateway.Auth) (domain.Profile, error) {
	var p domain.Profile
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/api/user/me",
		query:  impersonation(auth),
		auth:   &auth,
	}, &p)
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, auth gateway.Auth, profile domain.Profile) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/user/update-me",
		query:  impersonation(auth),
		auth:   &auth,
		body: map[string]string{
			"first_name":    profile.FirstName,
			"last_name":     profile.LastName,
			"citizenship":   profile.Citizenship,
			"date_of_birth": profile.DateOfBirth,
		},
	}, nil)
}

func (c *Client) FetchTrips(ctx context.Context, auth gateway.Auth) ([]domain.Booking, error) {
	var out []domain.Booking
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/api/rp-trips",
		query:  impersonation(auth),
		auth:   &auth,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendHotelOTP(ctx context.Context, repricingSessionID string) (string, error) {
	var out struct {
		MaskedPhone string `json:"masked_phone"`
	}
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/hotel-rp-otp/get-otp",
		body:   map[string]string{"repricing_session_id": repricingSessionID},
	}, &out)
	return out.MaskedPhone, err
}

func (c *Client) VerifyHotelOTP(ctx context.Context, repricingSessionID, code string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/hotel-rp-otp/validate-otp",
		body:   map[string]string{"repricing_session_id": repricingSessionID, "otp_code": code},
	}, nil)
}

func (c *Client) ApproveHotel(ctx context.Context, auth gateway.Auth, repricingSessionID string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/hotel-rp/approved",
		query:  impersonation(auth),
		auth:   &auth,
		body:   map[string]string{"repricing_session_id": repricingSessionID},
	}, nil)
}

// SubmitFlightApproval sends the impersonation id in the body, as that route expects.
func (c *Client) SubmitFlightApproval(ctx context.Context, auth gateway.Auth, repricingSessionID, citizenship string) error {
	body := map[string]string{"repricing_session_id": repricingSessionID, "citizenship": citizenship}
	if auth.ImpersonationID != "" {
		body["impersonate_user_id"] = auth.ImpersonationID
	}
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/flight-rp/approval_info",
		auth:   &auth,
		body:   body,
	}, nil)
}

func (c *Client) PaymentLink(ctx context.Context, auth gateway.Auth, repricingSessionID, redirectURL string) (string, error) {
	var out struct {
		StripeLinkURL string `json:"stripe_link_url"`
	}
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/hotel-rp/payment-link",
		query:  impersonation(auth),
		auth:   &auth,
		body:   map[string]string{"repricing_session_id": repricingSessionID, "redirect_url": redirectURL},
	}, &out)
	return out.StripeLinkURL, err
}
