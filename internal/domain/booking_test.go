package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamBookings = `[
  {
    "import_session_id": "HT001",
    "customer_id": "c-1",
    "created_at": "2025-01-02T10:00:00Z",
    "is_demo": true,
    "payload": {
      "hotel_name": "Grand Plaza Hotel",
      "city": "Paris",
      "check_in_date": "2026-05-01",
      "repricing_session_id": "rp-h",
      "potential_savings_cents": {"amount": 12345, "currency": "USD"}
    }
  },
  {
    "import_session_id": "FL001",
    "customer_id": "c-1",
    "type": "hotel",
    "payload": {
      "airline": "British Airways",
      "departure_date": "2026-04-15",
      "outbound_flight_numbers": ["BA112"],
      "current_price_cents": {"amount": null, "currency": "USD"}
    }
  },
  {
    "import_session_id": "HT002",
    "payload": {"hotel_name": null}
  }
]`

func TestDecodeBookings_InfersKindFromHotelName(t *testing.T) {
	bookings, err := DecodeBookings([]byte(upstreamBookings))
	require.NoError(t, err)
	require.Len(t, bookings, 3)

	assert.Equal(t, BookingKindHotel, bookings[0].Kind)
	require.NotNil(t, bookings[0].Hotel)
	assert.Nil(t, bookings[0].Flight)
	assert.Equal(t, "Grand Plaza Hotel", bookings[0].Hotel.HotelName)
	assert.True(t, bookings[0].IsDemo)
	assert.Equal(t, 2025, bookings[0].CreatedAt.Year())
	assert.Equal(t, "rp-h", bookings[0].RepricingSessionID())
	assert.Equal(t, "USD 123.45", bookings[0].PotentialSavings().Text())

	// an upstream type tag never overrides inference at ingestion
	assert.Equal(t, BookingKindFlight, bookings[1].Kind)
	require.NotNil(t, bookings[1].Flight)
	assert.Equal(t, []string{"BA112"}, bookings[1].Flight.OutboundFlightNumbers)
	assert.Equal(t, "", bookings[1].Flight.CurrentPrice.Text())

	// key presence decides, not the value
	assert.Equal(t, BookingKindHotel, bookings[2].Kind)
}

func TestDecodeBookings_InvalidJSON(t *testing.T) {
	_, err := DecodeBookings([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestInferKind(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		want    BookingKind
	}{
		{name: "hotel", payload: `{"hotel_name":"X"}`, want: BookingKindHotel},
		{name: "flight", payload: `{"airline":"X"}`, want: BookingKindFlight},
		{name: "empty object", payload: `{}`, want: BookingKindFlight},
		{name: "null", payload: `null`, want: BookingKindFlight},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := InferKind(json.RawMessage(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBooking_JSONCarriesExplicitType(t *testing.T) {
	bookings, err := DecodeBookings([]byte(upstreamBookings))
	require.NoError(t, err)

	out, err := json.Marshal(bookings)
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.Equal(t, "hotel", generic[0]["type"])
	assert.Equal(t, "flight", generic[1]["type"])
	assert.Equal(t, "HT001", generic[0]["import_session_id"])

	var back []Booking
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, BookingKindHotel, back[0].Kind)
	assert.Equal(t, BookingKindFlight, back[1].Kind)
	assert.Equal(t, "Paris", back[0].Hotel.City)
}

func TestBooking_UnmarshalTrustsTag(t *testing.T) {
	var b Booking
	require.NoError(t, json.Unmarshal([]byte(`{"import_session_id":"x","type":"hotel","payload":{"city":"Rome"}}`), &b))
	assert.Equal(t, BookingKindHotel, b.Kind)
	assert.Equal(t, "Rome", b.Hotel.City)

	err := json.Unmarshal([]byte(`{"import_session_id":"x","type":"train","payload":{}}`), &b)
	assert.ErrorIs(t, err, ErrUnknownBookingKind)
}

func TestBooking_TripDate(t *testing.T) {
	hotel := Booking{Kind: BookingKindHotel, Hotel: &HotelPayload{CheckInDate: "2026-05-01"}}
	d, ok := hotel.TripDate()
	require.True(t, ok)
	assert.Equal(t, 2026, d.Year())

	flight := Booking{Kind: BookingKindFlight, Flight: &FlightPayload{DepartureDate: "2026-04-15T08:30:00Z"}}
	d, ok = flight.TripDate()
	require.True(t, ok)
	assert.Equal(t, 8, d.Hour())

	_, ok = Booking{Kind: BookingKindFlight, Flight: &FlightPayload{}}.TripDate()
	assert.False(t, ok)
}
