package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BookingKind tags the payload carried by a Booking.
type BookingKind string

const (
	BookingKindHotel  BookingKind = "hotel"
	BookingKindFlight BookingKind = "flight"
)

var ErrUnknownBookingKind = errors.New("unknown booking kind")

// Booking is one flight or hotel reservation eligible for repricing. Exactly one
// of Hotel or Flight is set, matching Kind.
type Booking struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsDemo     bool
	IsIgnored  bool
	Kind       BookingKind
	Hotel      *HotelPayload
	Flight     *FlightPayload
}

type bookingWire struct {
	ID         string          `json:"import_session_id"`
	CustomerID string          `json:"customer_id"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
	IsDemo     bool            `json:"is_demo"`
	IsIgnored  bool            `json:"is_ignored"`
	Kind       BookingKind     `json:"type,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// InferKind reports hotel when the payload object has a hotel_name key, flight otherwise.
func InferKind(payload json.RawMessage) (BookingKind, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return BookingKindFlight, nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(payload, &keys); err != nil {
		return "", fmt.Errorf("decode booking payload: %w", err)
	}
	if _, ok := keys["hotel_name"]; ok {
		return BookingKindHotel, nil
	}
	return BookingKindFlight, nil
}

// DecodeBookings ingests an upstream booking list, inferring each booking's kind once.
// Any type tag present on the wire is ignored here.
func DecodeBookings(data []byte) ([]Booking, error) {
	var raw []bookingWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}

	bookings := make([]Booking, 0, len(raw))
	for _, w := range raw {
		kind, err := InferKind(w.Payload)
		if err != nil {
			return nil, err
		}
		w.Kind = kind
		b, err := w.toBooking()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (w bookingWire) toBooking() (Booking, error) {
	b := Booking{
		ID:         w.ID,
		CustomerID: w.CustomerID,
		CreatedAt:  parseTimestamp(w.CreatedAt),
		UpdatedAt:  parseTimestamp(w.UpdatedAt),
		IsDemo:     w.IsDemo,
		IsIgnored:  w.IsIgnored,
		Kind:       w.Kind,
	}

	switch w.Kind {
	case BookingKindHotel:
		b.Hotel = &HotelPayload{}
		if len(w.Payload) > 0 {
			if err := json.Unmarshal(w.Payload, b.Hotel); err != nil {
				return Booking{}, fmt.Errorf("decode hotel payload: %w", err)
			}
		}
	case BookingKindFlight:
		b.Flight = &FlightPayload{}
		if len(w.Payload) > 0 && string(w.Payload) != "null" {
			if err := json.Unmarshal(w.Payload, b.Flight); err != nil {
				return Booking{}, fmt.Errorf("decode flight payload: %w", err)
			}
		}
	default:
		return Booking{}, fmt.Errorf("%w: %q", ErrUnknownBookingKind, w.Kind)
	}
	return b, nil
}

// MarshalJSON emits the booking with its explicit type tag.
func (b Booking) MarshalJSON() ([]byte, error) {
	var payload any
	switch b.Kind {
	case BookingKindHotel:
		payload = b.Hotel
	case BookingKindFlight:
		payload = b.Flight
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBookingKind, b.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(bookingWire{
		ID:         b.ID,
		CustomerID: b.CustomerID,
		CreatedAt:  formatTimestamp(b.CreatedAt),
		UpdatedAt:  formatTimestamp(b.UpdatedAt),
		IsDemo:     b.IsDemo,
		IsIgnored:  b.IsIgnored,
		Kind:       b.Kind,
		Payload:    raw,
	})
}

// UnmarshalJSON trusts an explicit type tag and only infers when it is absent.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var w bookingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Kind == "" {
		kind, err := InferKind(w.Payload)
		if err != nil {
			return err
		}
		w.Kind = kind
	}
	decoded, err := w.toBooking()
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

func (b Booking) RepricingSessionID() string {
	switch {
	case b.Hotel != nil:
		return b.Hotel.RepricingSessionID
	case b.Flight != nil:
		return b.Flight.RepricingSessionID
	}
	return ""
}

func (b Booking) PotentialSavings() Money {
	switch {
	case b.Hotel != nil:
		return b.Hotel.PotentialSavings
	case b.Flight != nil:
		return b.Flight.PotentialSavings
	}
	return Money{}
}

// TripDate is the check-in date for hotels and the departure date for flights.
func (b Booking) TripDate() (time.Time, bool) {
	var raw string
	switch {
	case b.Hotel != nil:
		raw = b.Hotel.CheckInDate
	case b.Flight != nil:
		raw = b.Flight.DepartureDate
	}
	return ParseTripDate(raw)
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ParseTripDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseTripDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
