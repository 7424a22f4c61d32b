package trips

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
)

type TripsUseCase interface {
	List(ctx context.Context, auth gateway.Auth) ([]domain.Booking, error)
	Stats(ctx context.Context, auth gateway.Auth) (json.RawMessage, error)
}

type Gateway interface {
	ListTrips(ctx context.Context, auth gateway.Auth) ([]domain.Booking, error)
	UserResource(ctx context.Context, auth gateway.Auth, method, resource string, body any) (json.RawMessage, error)
}

type TripsService struct {
	gateway Gateway
}

func NewTripsService(gw Gateway) *TripsService {
	return &TripsService{gateway: gw}
}

// List returns the caller's bookings, each already tagged hotel or flight.
func (s *TripsService) List(ctx context.Context, auth gateway.Auth) ([]domain.Booking, error) {
	if auth.Token == "" {
		return nil, domain.ErrUnauthenticated
	}
	bookings, err := s.gateway.ListTrips(ctx, auth)
	if err != nil {
		return nil, unauthorized(err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

func (s *TripsService) Stats(ctx context.Context, auth gateway.Auth) (json.RawMessage, error) {
	if auth.Token == "" {
		return nil, domain.ErrUnauthenticated
	}
	out, err := s.gateway.UserResource(ctx, auth, http.MethodGet, "stats", nil)
	if err != nil {
		return nil, unauthorized(err)
	}
	return out, nil
}

// unauthorized folds an upstream 401 into domain.ErrUnauthenticated.
func unauthorized(err error) error {
	if ue, ok := gateway.AsUpstreamError(err); ok && ue.Status == http.StatusUnauthorized {
		return domain.ErrUnauthenticated
	}
	return err
}

var _ TripsUseCase = (*TripsService)(nil)
