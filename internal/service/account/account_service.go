package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
)

type AccountUseCase interface {
	CreateLinkingState(ctx context.Context, input LinkingStateInput) (json.RawMessage, error)
	CheckEmailLinked(ctx context.Context, stateID, baseURL string) (*LinkStatus, error)
	Profile(ctx context.Context, auth gateway.Auth) (json.RawMessage, error)
	ReplaceProfile(ctx context.Context, auth gateway.Auth, body json.RawMessage) (json.RawMessage, error)
	UpdateProfile(ctx context.Context, auth gateway.Auth, input ProfileUpdate) (json.RawMessage, error)
	Settings(ctx context.Context, auth gateway.Auth) (json.RawMessage, error)
	UpdateSettings(ctx context.Context, auth gateway.Auth, body json.RawMessage) (json.RawMessage, error)
	Stats(ctx context.Context, auth gateway.Auth) (json.RawMessage, error)
	CompleteRegistration(ctx context.Context, stateID string) (json.RawMessage, error)
	CreateCheckoutSession(ctx context.Context, input CheckoutInput) (map[string]any, error)
	CheckoutSessionStatus(ctx context.Context, sessionID string) (map[string]any, error)
}

type Gateway interface {
	CreateLinkingState(ctx context.Context, req gateway.CreateStateRequest) (json.RawMessage, error)
	EmailStatus(ctx context.Context, stateID string) (*gateway.EmailStatus, error)
	UserResource(ctx context.Context, auth gateway.Auth, method, resource string, body any) (json.RawMessage, error)
	CompleteRegistration(ctx context.Context, stateID string) (json.RawMessage, error)
	CreateCheckoutSession(ctx context.Context, req gateway.CheckoutSessionRequest) (map[string]any, error)
	CheckoutSessionStatus(ctx context.Context, sessionID string) (map[string]any, error)
}

type LinkingStateInput struct {
	FBP        string          `json:"fbp"`
	FBC        string          `json:"fbc"`
	UTMParams  json.RawMessage `json:"utm_params"`
	CustomerID string          `json:"customer_id"`
	UserAgent  string          `json:"-"`
}

type LinkStatus struct {
	Success     bool   `json:"success"`
	Redirect    string `json:"redirect,omitempty"`
	EmailLinked bool   `json:"email_linked"`
}

type ProfileUpdate struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Citizenship string `json:"citizenship"`
	DateOfBirth string `json:"date_of_birth"`
}

type CheckoutInput struct {
	StateID      string `json:"state_id"`
	LiveMode     *bool  `json:"live_mode"`
	ReturnURL    string `json:"return_url"`
	ReferralCode string `json:"referral_code"`
}

// InvalidCheckoutError is a checkout reply missing its required identifiers.
type InvalidCheckoutError struct {
	Message string
	Data    map[string]any
}

func (e *InvalidCheckoutError) Error() string {
	return e.Message
}

type AccountService struct {
	gateway Gateway
	pixelID string
}

func NewAccountService(gw Gateway, pixelID string) *AccountService {
	return &AccountService{gateway: gw, pixelID: pixelID}
}

func (s *AccountService) CreateLinkingState(ctx context.Context, input LinkingStateInput) (json.RawMessage, error) {
	req := gateway.CreateStateRequest{
		PixelID:    s.pixelID,
		UserAgent:  input.UserAgent,
		FBP:        input.FBP,
		FBC:        input.FBC,
		CustomerID: input.CustomerID,
	}
	if len(input.UTMParams) > 0 && string(input.UTMParams) != "null" {
		req.UTMParams = input.UTMParams
	}
	return s.gateway.CreateLinkingState(ctx, req)
}

// CheckEmailLinked points a linked visitor at the phone step of onboarding.
func (s *AccountService) CheckEmailLinked(ctx context.Context, stateID, baseURL string) (*LinkStatus, error) {
	if stateID == "" {
		return nil, &domain.ValidationError{Message: "state_id is required"}
	}
	status, err := s.gateway.EmailStatus(ctx, stateID)
	if err != nil {
		return nil, err
	}
	if !status.EmailLinked {
		return &LinkStatus{}, nil
	}
	return &LinkStatus{
		Success:     true,
		Redirect:    baseURL + "/welcome?step=2&state_id=" + url.QueryEscape(stateID),
		EmailLinked: true,
	}, nil
}

func (s *AccountService) Profile(ctx context.Context, auth gateway.Auth) (json.RawMessage, error) {
	return s.user(ctx, auth, http.MethodGet, "", nil)
}

func (s *AccountService) ReplaceProfile(ctx context.Context, auth gateway.Auth, body json.RawMessage) (json.RawMessage, error) {
	return s.user(ctx, auth, http.MethodPut, "", body)
}

func (s *AccountService) UpdateProfile(ctx context.Context, auth gateway.Auth, input ProfileUpdate) (json.RawMessage, error) {
	if input.FirstName == "" || input.LastName == "" || input.DateOfBirth == "" || input.Citizenship == "" {
		return nil, &domain.ValidationError{Message: "Missing required fields"}
	}
	return s.user(ctx, auth, http.MethodPost, "", input)
}

func (s *AccountService) Settings(ctx context.Context, auth gateway.Auth) (json.RawMessage, error) {
	return s.user(ctx, auth, http.MethodGet, "settings", nil)
}

func (s *AccountService) UpdateSettings(ctx context.Context, auth gateway.Auth, body json.RawMessage) (json.RawMessage, error) {
	return s.user(ctx, auth, http.MethodPut, "settings", body)
}

func (s *AccountService) Stats(ctx context.Context, auth gateway.Auth) (json.RawMessage, error) {
	return s.user(ctx, auth, http.MethodGet, "stats", nil)
}

func (s *AccountService) user(ctx context.Context, auth gateway.Auth, method, resource string, body any) (json.RawMessage, error) {
	out, err := s.gateway.UserResource(ctx, auth, method, resource, body)
	if err != nil {
		if ue, ok := gateway.AsUpstreamError(err); ok && ue.Status == http.StatusUnauthorized {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return out, nil
}

func (s *AccountService) CompleteRegistration(ctx context.Context, stateID string) (json.RawMessage, error) {
	if stateID == "" {
		return nil, &domain.ValidationError{Message: "state_id is required"}
	}
	return s.gateway.CompleteRegistration(ctx, stateID)
}

func (s *AccountService) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (map[string]any, error) {
	if input.StateID == "" {
		return nil, &domain.ValidationError{Message: "Missing state_id parameter"}
	}
	liveMode := true
	if input.LiveMode != nil {
		liveMode = *input.LiveMode
	}

	out, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutSessionRequest{
		StateID:      input.StateID,
		LiveMode:     liveMode,
		ReturnURL:    input.ReturnURL,
		ReferralCode: input.ReferralCode,
	})
	if err != nil {
		return nil, err
	}
	if !hasString(out, "checkout_session_id") || !hasString(out, "checkout_session_client_secret") {
		return nil, &InvalidCheckoutError{Message: "Invalid response from checkout session service", Data: out}
	}
	return out, nil
}

func (s *AccountService) CheckoutSessionStatus(ctx context.Context, sessionID string) (map[string]any, error) {
	if sessionID == "" {
		return nil, &domain.ValidationError{Message: "Missing session_id parameter"}
	}
	out, err := s.gateway.CheckoutSessionStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !hasString(out, "checkout_session_id") || !hasString(out, "checkout_session_status") {
		return nil, &InvalidCheckoutError{Message: "Invalid response from checkout session status service", Data: out}
	}
	return out, nil
}

func hasString(m map[string]any, key string) bool {
	s, ok := m[key].(string)
	return ok && s != ""
}

var _ AccountUseCase = (*AccountService)(nil)
