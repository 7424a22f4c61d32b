package domain

import "time"

type RepricingEventType string

const (
	EventHotelOTPVerified      RepricingEventType = "hotel_otp_verified"
	EventApprovalInfoSubmitted RepricingEventType = "approval_info_submitted"
	EventHotelApproved         RepricingEventType = "hotel_repricing_approved"
	EventFlightApprovalSent    RepricingEventType = "flight_approval_submitted"
	EventPaymentLinkIssued     RepricingEventType = "payment_link_issued"
)

// RepricingEvent is a forward-only observation about one repricing session.
type RepricingEvent struct {
	ID                 string             `json:"id"`
	Type               RepricingEventType `json:"type"`
	RepricingSessionID string             `json:"repricing_session_id"`
	CustomerID         string             `json:"customer_id,omitempty"`
	ImpersonatedBy     string             `json:"impersonated_by,omitempty"`
	OccurredAt         time.Time          `json:"occurred_at"`
}
