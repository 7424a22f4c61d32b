package account

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateLinkingState(ctx context.Context, req gateway.CreateStateRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	return raw(args), args.Error(1)
}

func (m *MockGateway) EmailStatus(ctx context.Context, stateID string) (*gateway.EmailStatus, error) {
	args := m.Called(ctx, stateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.EmailStatus), args.Error(1)
}

func (m *MockGateway) UserResource(ctx context.Context, auth gateway.Auth, method, resource string, body any) (json.RawMessage, error) {
	args := m.Called(ctx, auth, method, resource, body)
	return raw(args), args.Error(1)
}

func (m *MockGateway) CompleteRegistration(ctx context.Context, stateID string) (json.RawMessage, error) {
	args := m.Called(ctx, stateID)
	return raw(args), args.Error(1)
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutSessionRequest) (map[string]any, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockGateway) CheckoutSessionStatus(ctx context.Context, sessionID string) (map[string]any, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func raw(args mock.Arguments) json.RawMessage {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(json.RawMessage)
}

func TestAccountService_CreateLinkingState(t *testing.T) {
	gw := &MockGateway{}
	service := NewAccountService(gw, "pixel-1")
	ctx := context.Background()

	gw.On("CreateLinkingState", ctx, gateway.CreateStateRequest{
		PixelID:   "pixel-1",
		UserAgent: "Mozilla/5.0",
		FBP:       "fb.1",
	}).Return(json.RawMessage(`{"state_id":"st-1"}`), nil).Once()

	out, err := service.CreateLinkingState(ctx, LinkingStateInput{FBP: "fb.1", UserAgent: "Mozilla/5.0", UTMParams: json.RawMessage("null")})

	require.NoError(t, err)
	assert.JSONEq(t, `{"state_id":"st-1"}`, string(out))
	gw.AssertExpectations(t)
}

func TestAccountService_CheckEmailLinked(t *testing.T) {
	gw := &MockGateway{}
	service := NewAccountService(gw, "pixel-1")
	ctx := context.Background()

	gw.On("EmailStatus", ctx, "st-1").Return(&gateway.EmailStatus{EmailLinked: true}, nil).Once()
	gw.On("EmailStatus", ctx, "st-2").Return(&gateway.EmailStatus{}, nil).Once()

	linked, err := service.CheckEmailLinked(ctx, "st-1", "https://app.example")
	require.NoError(t, err)
	assert.Equal(t, &LinkStatus{Success: true, EmailLinked: true, Redirect: "https://app.example/welcome?step=2&state_id=st-1"}, linked)

	pending, err := service.CheckEmailLinked(ctx, "st-2", "https://app.example")
	require.NoError(t, err)
	assert.Equal(t, &LinkStatus{}, pending)

	_, err = service.CheckEmailLinked(ctx, "", "")
	assert.EqualError(t, err, "state_id is required")
}

func TestAccountService_Profile_Unauthorized(t *testing.T) {
	gw := &MockGateway{}
	service := NewAccountService(gw, "pixel-1")
	ctx := context.Background()
	auth := gateway.Auth{Token: "old"}

	gw.On("UserResource", ctx, auth, http.MethodGet, "", nil).Return(nil, &gateway.UpstreamError{Status: http.StatusUnauthorized}).Once()

	_, err := service.Profile(ctx, auth)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	gw := &MockGateway{}
	service := NewAccountService(gw, "pixel-1")
	ctx := context.Background()
	auth := gateway.Auth{Token: "tok"}

	_, err := service.UpdateProfile(ctx, auth, ProfileUpdate{FirstName: "Ada"})
	assert.EqualError(t, err, "Missing required fields")

	input := ProfileUpdate{FirstName: "Ada", LastName: "Lovelace", Citizenship: "GB", DateOfBirth: "1815-12-10"}
	gw.On("UserResource", ctx, auth, http.MethodPost, "", input).Return(json.RawMessage(`{"first_name":"Ada"}`), nil).Once()

	out, err := service.UpdateProfile(ctx, auth, input)
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Ada"}`, string(out))
}

func TestAccountService_CreateCheckoutSession(t *testing.T) {
	gw := &MockGateway{}
	service := NewAccountService(gw, "pixel-1")
	ctx := context.Background()

	_, err := service.CreateCheckoutSession(ctx, CheckoutInput{})
	assert.EqualError(t, err, "Missing state_id parameter")

	gw.On("CreateCheckoutSession", ctx, gateway.CheckoutSessionRequest{StateID: "st-1", LiveMode: true}).
		Return(map[string]any{"checkout_session_id": "cs_1"}, nil).Once()

	_, err = service.CreateCheckoutSession(ctx, CheckoutInput{StateID: "st-1"})
	var invalid *InvalidCheckoutError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cs_1", invalid.Data["checkout_session_id"])

	off := false
	gw.On("CreateCheckoutSession", ctx, gateway.CheckoutSessionRequest{StateID: "st-2", LiveMode: false, ReferralCode: "FRIEND"}).
		Return(map[string]any{"checkout_session_id": "cs_2", "checkout_session_client_secret": "sec"}, nil).Once()

	out, err := service.CreateCheckoutSession(ctx, CheckoutInput{StateID: "st-2", LiveMode: &off, ReferralCode: "FRIEND"})
	require.NoError(t, err)
	assert.Equal(t, "cs_2", out["checkout_session_id"])
}

func TestAccountService_CheckoutSessionStatus(t *testing.T) {
	gw := &MockGateway{}
	service := NewAccountService(gw, "pixel-1")
	ctx := context.Background()

	gw.On("CheckoutSessionStatus", ctx, "cs_1").
		Return(map[string]any{"checkout_session_id": "cs_1", "checkout_session_status": "complete"}, nil).Once()

	out, err := service.CheckoutSessionStatus(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "complete", out["checkout_session_status"])
}
