package domain

type RoomOccupancy struct {
	RoomType string `json:"room_type"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
}

type HotelPayload struct {
	RepricingSessionID string          `json:"repricing_session_id,omitempty"`
	ConfirmationNumber string          `json:"confirmation_number,omitempty"`
	HotelName          string          `json:"hotel_name"`
	Address            string          `json:"address,omitempty"`
	City               string          `json:"city,omitempty"`
	Lat                float64         `json:"lat,omitempty"`
	Long               float64         `json:"long,omitempty"`
	CheckInDate        string          `json:"check_in_date,omitempty"`
	CheckOutDate       string          `json:"check_out_date,omitempty"`
	RoomType           string          `json:"room_type,omitempty"`
	GuestName          string          `json:"guest_name,omitempty"`
	ImageURL           string          `json:"image_url,omitempty"`
	RoomsPersonCombos  []RoomOccupancy `json:"rooms_person_combos,omitempty"`
	PricePerNight      Money           `json:"price_per_night_cents"`
	LocalTaxAndFees    Money           `json:"local_tax_and_fees_cents"`
	TotalPrice         Money           `json:"total_price_cents"`
	PastSavings        Money           `json:"past_savings_cents"`
	PotentialSavings   Money           `json:"potential_savings_cents"`
}
