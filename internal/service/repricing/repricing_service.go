package repricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/google/uuid"
)

var (
	ErrInvalidCode = errors.New("invalid verification code")
	ErrNoCustomer  = errors.New("no customer id found")
)

// noCustomerMessage is the upstream error text for a phone with no linked customer.
const noCustomerMessage = "No customer ID found"

type RepricingUseCase interface {
	SendHotelOTP(ctx context.Context, repricingSessionID string) (*OTPSent, error)
	VerifyHotelOTP(ctx context.Context, repricingSessionID, code string) (*Verification, error)
	VerifyPhoneOTP(ctx context.Context, input PhoneVerificationInput) (*Verification, error)
	AskApprovalInfo(ctx context.Context, sessionID string) (json.RawMessage, error)
	SubmitApprovalInfo(ctx context.Context, input ApprovalInfoInput) (*gateway.ApprovalInfoResult, error)
	Approve(ctx context.Context, auth gateway.Auth, repricingSessionID string) (json.RawMessage, error)
	IssuePaymentLink(ctx context.Context, auth gateway.Auth, repricingSessionID, redirectURL string) (json.RawMessage, error)
	SubmitFlightApproval(ctx context.Context, auth gateway.Auth, repricingSessionID, citizenship string) (json.RawMessage, error)
}

type Gateway interface {
	SendHotelOTP(ctx context.Context, repricingSessionID string) (*gateway.SendOTPResult, error)
	VerifyHotelOTP(ctx context.Context, repricingSessionID, code string) (*gateway.Response, error)
	VerifyPhoneOTP(ctx context.Context, req gateway.PhoneOTPRequest) (*gateway.Response, error)
	AskApprovalInfo(ctx context.Context, sessionID string) (json.RawMessage, error)
	SubmitApprovalInfo(ctx context.Context, payload gateway.ApprovalInfoPayload) (*gateway.ApprovalInfoResult, error)
	ApproveHotelRepricing(ctx context.Context, auth gateway.Auth, repricingSessionID string) (json.RawMessage, error)
	HotelPaymentLink(ctx context.Context, auth gateway.Auth, repricingSessionID, redirectURL string) (json.RawMessage, error)
	FlightApprovalInfo(ctx context.Context, auth gateway.Auth, repricingSessionID, citizenship string) (json.RawMessage, error)
}

type Producer interface {
	PublishEvent(ctx context.Context, topic string, event domain.RepricingEvent) error
}

type OTPSent struct {
	MaskedPhone string `json:"masked_phone"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

type Verification struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Token      string `json:"token"`
	CustomerID string `json:"customer_id"`
}

type PhoneVerificationInput struct {
	PhoneNumber string `json:"phone_number"`
	OTPCode     string `json:"otp_code"`
	StateID     string `json:"state_id"`
}

type ApprovalInfoInput struct {
	RepricingSessionID string `json:"repricing_session_id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Birthday           string `json:"birthday"`
	Citizenship        string `json:"citizenship"`
	RedirectURL        string `json:"redirect_url"`
}

type RepricingService struct {
	gateway  Gateway
	producer Producer
	topic    string
	now      func() time.Time
}

type RepricingServiceOption func(*RepricingService)

// WithEvents publishes repricing events to topic through producer.
func WithEvents(producer Producer, topic string) RepricingServiceOption {
	return func(s *RepricingService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithClock(now func() time.Time) RepricingServiceOption {
	return func(s *RepricingService) {
		s.now = now
	}
}

func NewRepricingService(gw Gateway, opts ...RepricingServiceOption) *RepricingService {
	service := &RepricingService{gateway: gw, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *RepricingService) SendHotelOTP(ctx context.Context, repricingSessionID string) (*OTPSent, error) {
	if repricingSessionID == "" {
		return nil, &domain.ValidationError{Message: "Missing repricing_session_id"}
	}

	res, err := s.gateway.SendHotelOTP(ctx, repricingSessionID)
	if err != nil {
		return nil, err
	}
	if !res.Status.Success {
		return nil, &domain.RejectedError{Status: http.StatusInternalServerError, Message: res.Status.Message}
	}

	return &OTPSent{
		MaskedPhone: MaskPhone(res.PhoneLast),
		Success:     true,
		Message:     res.Status.Message,
	}, nil
}

func (s *RepricingService) VerifyHotelOTP(ctx context.Context, repricingSessionID, code string) (*Verification, error) {
	if repricingSessionID == "" {
		return nil, &domain.ValidationError{Message: "Missing repricing_session_id"}
	}
	if code == "" {
		return nil, &domain.ValidationError{Message: "Missing otp_code"}
	}

	resp, err := s.gateway.VerifyHotelOTP(ctx, repricingSessionID, code)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		return nil, ErrInvalidCode
	}
	verification, err := decodeVerification(resp)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventHotelOTPVerified, repricingSessionID, verification.CustomerID, "")
	return verification, nil
}

func (s *RepricingService) VerifyPhoneOTP(ctx context.Context, input PhoneVerificationInput) (*Verification, error) {
	if input.PhoneNumber == "" {
		return nil, &domain.ValidationError{Message: "Missing phone_number"}
	}
	if input.OTPCode == "" {
		return nil, &domain.ValidationError{Message: "Missing otp_code"}
	}

	resp, err := s.gateway.VerifyPhoneOTP(ctx, gateway.PhoneOTPRequest{
		PhoneNumber: "+" + strings.TrimPrefix(input.PhoneNumber, "+"),
		Token:       input.OTPCode,
		StateID:     input.StateID,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		if ue, ok := gateway.AsUpstreamError(resp.Err()); ok && ue.Message == noCustomerMessage {
			return nil, ErrNoCustomer
		}
		if resp.Status == http.StatusUnauthorized {
			return nil, ErrInvalidCode
		}
	}
	return decodeVerification(resp)
}

func decodeVerification(resp *gateway.Response) (*Verification, error) {
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	var v Verification
	if err := resp.Decode(&v); err != nil {
		return nil, err
	}
	if !v.Success {
		msg := v.Message
		if msg == "" {
			msg = "Failed to verify OTP"
		}
		return nil, &domain.RejectedError{Status: http.StatusBadRequest, Message: msg}
	}
	if v.Message == "" {
		v.Message = "OTP verified successfully"
	}
	return &v, nil
}

func (s *RepricingService) AskApprovalInfo(ctx context.Context, sessionID string) (json.RawMessage, error) {
	return s.gateway.AskApprovalInfo(ctx, sessionID)
}

func (s *RepricingService) SubmitApprovalInfo(ctx context.Context, input ApprovalInfoInput) (*gateway.ApprovalInfoResult, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"repricing_session_id", input.RepricingSessionID},
		{"first_name", input.FirstName},
		{"last_name", input.LastName},
		{"birthday", input.Birthday},
		{"citizenship", input.Citizenship},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.MissingFields(missing...)
	}

	res, err := s.gateway.SubmitApprovalInfo(ctx, gateway.ApprovalInfoPayload{
		RepricingSessionID: input.RepricingSessionID,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Birthday:           input.Birthday,
		Citizenship:        input.Citizenship,
		RedirectURL:        input.RedirectURL,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventApprovalInfoSubmitted, input.RepricingSessionID, "", "")
	return res, nil
}

func (s *RepricingService) Approve(ctx context.Context, auth gateway.Auth, repricingSessionID string) (json.RawMessage, error) {
	if repricingSessionID == "" {
		return nil, &domain.ValidationError{Message: "Missing repricing_session_id"}
	}
	if auth.Token == "" {
		return nil, domain.ErrUnauthenticated
	}

	out, err := s.gateway.ApproveHotelRepricing(ctx, auth, repricingSessionID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventHotelApproved, repricingSessionID, "", auth.ImpersonationID)
	return out, nil
}

func (s *RepricingService) IssuePaymentLink(ctx context.Context, auth gateway.Auth, repricingSessionID, redirectURL string) (json.RawMessage, error) {
	if repricingSessionID == "" || redirectURL == "" {
		return nil, &domain.ValidationError{Message: "Missing required fields: repricing_session_id or redirect_url"}
	}
	if auth.Token == "" {
		return nil, domain.ErrUnauthenticated
	}

	out, err := s.gateway.HotelPaymentLink(ctx, auth, repricingSessionID, redirectURL)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventPaymentLinkIssued, repricingSessionID, "", auth.ImpersonationID)
	return out, nil
}

func (s *RepricingService) SubmitFlightApproval(ctx context.Context, auth gateway.Auth, repricingSessionID, citizenship string) (json.RawMessage, error) {
	if repricingSessionID == "" || citizenship == "" {
		return nil, &domain.ValidationError{Message: "Missing required fields: repricing_session_id or citizenship"}
	}
	if auth.Token == "" {
		return nil, domain.ErrUnauthenticated
	}

	out, err := s.gateway.FlightApprovalInfo(ctx, auth, repricingSessionID, citizenship)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventFlightApprovalSent, repricingSessionID, "", auth.ImpersonationID)
	return out, nil
}

// publish never fails the caller; a lost event is only logged.
func (s *RepricingService) publish(ctx context.Context, eventType domain.RepricingEventType, repricingSessionID, customerID, impersonatedBy string) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := domain.RepricingEvent{
		ID:                 uuid.NewString(),
		Type:               eventType,
		RepricingSessionID: repricingSessionID,
		CustomerID:         customerID,
		ImpersonatedBy:     impersonatedBy,
		OccurredAt:         s.now().UTC(),
	}
	if err := s.producer.PublishEvent(ctx, s.topic, event); err != nil {
		log.Printf("[repricing] WARNING: failed to publish %s for session %s: %v", eventType, repricingSessionID, err)
	}
}

// MaskPhone renders the US-style masked phone shown after an OTP is sent.
func MaskPhone(last4 string) string {
	if last4 == "" {
		last4 = "****"
	}
	return "+1 ***-***-" + last4
}

var _ RepricingUseCase = (*RepricingService)(nil)
