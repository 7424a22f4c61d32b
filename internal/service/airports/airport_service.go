package airports

import (
	"context"
	"log"
	"strings"

	"github.com/Domenick1991/repricing/internal/domain"
)

type AirportUseCase interface {
	Lookup(ctx context.Context, codes []string) ([]domain.Airport, error)
}

type Cache interface {
	GetAirports(ctx context.Context, codes []string) (map[string]domain.Airport, error)
	SetAirports(ctx context.Context, airports []domain.Airport) error
}

type Gateway interface {
	LookupAirports(ctx context.Context, codes []string) ([]domain.Airport, error)
}

type AirportService struct {
	gateway Gateway
	cache   Cache
}

// NewAirportService builds the lookup; cache may be nil.
func NewAirportService(gw Gateway, cache Cache) *AirportService {
	return &AirportService{gateway: gw, cache: cache}
}

// Lookup serves cached airports and fetches the misses upstream in one call.
// A failing cache falls through to the upstream.
func (s *AirportService) Lookup(ctx context.Context, codes []string) ([]domain.Airport, error) {
	if len(codes) == 0 {
		return []domain.Airport{}, nil
	}

	found := map[string]domain.Airport{}
	if s.cache != nil {
		cached, err := s.cache.GetAirports(ctx, codes)
		if err != nil {
			log.Printf("[airports] cache read failed: %v", err)
		} else {
			found = cached
		}
	}

	var missing []string
	for _, code := range codes {
		if _, ok := found[strings.ToUpper(code)]; !ok {
			missing = append(missing, code)
		}
	}

	if len(missing) > 0 {
		fetched, err := s.gateway.LookupAirports(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, a := range fetched {
			found[strings.ToUpper(a.IATACode)] = a
		}
		if s.cache != nil {
			if err := s.cache.SetAirports(ctx, fetched); err != nil {
				log.Printf("[airports] cache write failed: %v", err)
			}
		}
	}

	airports := make([]domain.Airport, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		key := strings.ToUpper(code)
		a, ok := found[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		airports = append(airports, a)
	}
	return airports, nil
}

var _ AirportUseCase = (*AirportService)(nil)
