package domain

type FlightPayload struct {
	RepricingSessionID    string   `json:"repricing_session_id,omitempty"`
	ConfirmationNumber    string   `json:"confirmation_number,omitempty"`
	Airline               string   `json:"airline,omitempty"`
	PassengerName         string   `json:"passenger_name,omitempty"`
	SeatClass             string   `json:"seat_class,omitempty"`
	DepartureAirportCode  string   `json:"departure_airport_iata_code,omitempty"`
	DepartureAirportName  string   `json:"departure_airport_name,omitempty"`
	DepartureCity         string   `json:"departure_city,omitempty"`
	DepartureTerminal     string   `json:"departure_terminal,omitempty"`
	DepartureTimezone     string   `json:"departure_timezone,omitempty"`
	DepartureDate         string   `json:"departure_date,omitempty"`
	DepartureTime         string   `json:"departure_time,omitempty"`
	ArrivalAirportCode    string   `json:"arrival_airport_iata_code,omitempty"`
	ArrivalAirportName    string   `json:"arrival_airport_name,omitempty"`
	ArrivalCity           string   `json:"arrival_city,omitempty"`
	ArrivalTerminal       string   `json:"arrival_terminal,omitempty"`
	ArrivalTimezone       string   `json:"arrival_timezone,omitempty"`
	ArrivalDate           string   `json:"arrival_date,omitempty"`
	ArrivalTime           string   `json:"arrival_time,omitempty"`
	OutboundFlightNumbers []string `json:"outbound_flight_numbers,omitempty"`
	ReturnFlightNumbers   []string `json:"return_flight_numbers,omitempty"`
	ImageURL              string   `json:"image_url,omitempty"`
	CurrentPrice          Money    `json:"current_price_cents"`
	NewMarketPrice        Money    `json:"new_market_price_cents"`
	PastSavings           Money    `json:"past_savings_cents"`
	PotentialSavings      Money    `json:"potential_savings_cents"`
}
