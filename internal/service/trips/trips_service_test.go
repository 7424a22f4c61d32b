package trips

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

func (m *MockGateway) ListTrips(ctx context.Context, auth gateway.Auth) ([]domain.Booking, error) {
	args := m.Called(ctx, auth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockGateway) UserResource(ctx context.Context, auth gateway.Auth, method, resource string, body any) (json.RawMessage, error) {
	args := m.Called(ctx, auth, method, resource, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func TestTripsService_List_NoToken(t *testing.T) {
	gw := &MockGateway{}
	service := NewTripsService(gw)

	_, err := service.List(context.Background(), gateway.Auth{ImpersonationID: "c-2"})

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	gw.AssertNotCalled(t, "ListTrips", mock.Anything, mock.Anything)
}

func TestTripsService_List_ExpiredToken(t *testing.T) {
	gw := &MockGateway{}
	service := NewTripsService(gw)
	ctx := context.Background()
	auth := gateway.Auth{Token: "expired"}

	gw.On("ListTrips", ctx, auth).Return(nil, &gateway.UpstreamError{Status: http.StatusUnauthorized}).Once()

	_, err := service.List(ctx, auth)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestTripsService_List_PropagatesOtherFailures(t *testing.T) {
	gw := &MockGateway{}
	service := NewTripsService(gw)
	ctx := context.Background()
	auth := gateway.Auth{Token: "tok"}

	gw.On("ListTrips", ctx, auth).Return(nil, &gateway.UpstreamError{Status: http.StatusBadGateway}).Once()

	_, err := service.List(ctx, auth)

	ue, ok := gateway.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ue.Status)
}

func TestTripsService_List_EmptyIsNotNil(t *testing.T) {
	gw := &MockGateway{}
	service := NewTripsService(gw)
	ctx := context.Background()
	auth := gateway.Auth{Token: "tok"}

	gw.On("ListTrips", ctx, auth).Return([]domain.Booking(nil), nil).Once()

	bookings, err := service.List(ctx, auth)

	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestTripsService_Stats(t *testing.T) {
	gw := &MockGateway{}
	service := NewTripsService(gw)
	ctx := context.Background()
	auth := gateway.Auth{Token: "tok"}

	gw.On("UserResource", ctx, auth, http.MethodGet, "stats", nil).Return(json.RawMessage(`{"total_bookings":3}`), nil).Once()

	out, err := service.Stats(ctx, auth)

	require.NoError(t, err)
	assert.JSONEq(t, `{"total_bookings":3}`, string(out))
}
