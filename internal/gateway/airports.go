package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Domenick1991/repricing/internal/domain"
)

type airportWire struct {
	IATACode  string `json:"iata_code"`
	Name      string `json:"name"`
	City      string `json:"city"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Timezone  string `json:"timezone"`
}

// LookupAirports resolves IATA codes and normalizes coordinates to numbers.
func (c *Client) LookupAirports(ctx context.Context, codes []string) ([]domain.Airport, error) {
	var raw []airportWire
	err := c.call(ctx, Request{
		Service: Airports,
		Method:  http.MethodPost,
		Path:    "/unified_flights/v1/airports",
		Body:    map[string][]string{"airport_iata_codes": codes},
	}, &raw)
	if err != nil {
		return nil, err
	}

	airports := make([]domain.Airport, 0, len(raw))
	for _, a := range raw {
		lat, err := strconv.ParseFloat(a.Latitude, 64)
		if err != nil {
			return nil, fmt.Errorf("airport %s latitude: %w", a.IATACode, err)
		}
		lon, err := strconv.ParseFloat(a.Longitude, 64)
		if err != nil {
			return nil, fmt.Errorf("airport %s longitude: %w", a.IATACode, err)
		}
		airports = append(airports, domain.Airport{
			IATACode:  a.IATACode,
			Name:      a.Name,
			City:      a.City,
			Latitude:  lat,
			Longitude: lon,
			Timezone:  a.Timezone,
		})
	}
	return airports, nil
}
