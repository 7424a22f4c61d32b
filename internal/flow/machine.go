package flow

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/repricing/internal/domain"
)

// State is one step of the repricing view for a single trip.
type State string

const (
	ConfirmUserInfo  State = "ConfirmUserInfo"
	VerifyOTP        State = "VerifyOTP"
	ConfirmRepricing State = "ConfirmRepricing"
	UpdateTripInfo   State = "UpdateTripInfo"
	Success          State = "Success"
	Payment          State = "Payment"
	Finalized        State = "Finalized"
)

type EventType string

const (
	ProfileConfirmed  EventType = "ProfileConfirmed"
	OTPVerified       EventType = "OTPVerified"
	EditDetails       EventType = "EditDetails"
	DetailsSaved      EventType = "DetailsSaved"
	Back              EventType = "Back"
	Approved          EventType = "Approved"
	PaymentLinkIssued EventType = "PaymentLinkIssued"
	Finalize          EventType = "Finalize"
)

// Event drives a transition. Profile is read by ProfileConfirmed and
// RepricingSessionID by OTPVerified.
type Event struct {
	Type               EventType
	Profile            domain.Profile
	RepricingSessionID string
}

var ErrGuard = errors.New("transition not allowed")

// Machine is the view state of one trip. It is a value; Transition never mutates its input.
type Machine struct {
	Kind               domain.BookingKind
	RepricingSessionID string
	State              State
	// VerifiedSessionID is the repricing session a hotel OTP was verified for.
	VerifiedSessionID string
}

func NewMachine(b domain.Booking) Machine {
	return Machine{
		Kind:               b.Kind,
		RepricingSessionID: b.RepricingSessionID(),
		State:              ConfirmUserInfo,
	}
}

func (m Machine) isHotel() bool {
	return m.Kind == domain.BookingKindHotel
}

// otpCleared reports whether hotel approval may proceed for this machine's session.
func (m Machine) otpCleared() bool {
	if !m.isHotel() {
		return true
	}
	return m.VerifiedSessionID != "" && m.VerifiedSessionID == m.RepricingSessionID
}

// Transition applies e to m. A rejected event returns m unchanged with an ErrGuard.
func Transition(m Machine, e Event) (Machine, error) {
	next := m
	switch {
	case m.State == ConfirmUserInfo && e.Type == ProfileConfirmed:
		if !e.Profile.Complete() {
			return m, guard(m, e, "profile incomplete")
		}
		if m.isHotel() && !m.otpCleared() {
			next.State = VerifyOTP
		} else {
			next.State = ConfirmRepricing
		}

	case m.State == VerifyOTP && e.Type == OTPVerified:
		if e.RepricingSessionID == "" || e.RepricingSessionID != m.RepricingSessionID {
			return m, guard(m, e, "otp verified for another session")
		}
		next.VerifiedSessionID = e.RepricingSessionID
		next.State = ConfirmRepricing

	case m.State == ConfirmRepricing && e.Type == EditDetails:
		next.State = UpdateTripInfo

	case m.State == UpdateTripInfo && e.Type == DetailsSaved:
		next.State = ConfirmRepricing

	case m.State == ConfirmRepricing && e.Type == Back:
		next.State = ConfirmUserInfo

	case m.State == ConfirmRepricing && e.Type == Approved:
		if !m.otpCleared() {
			return m, guard(m, e, "otp not verified")
		}
		next.State = Success

	case m.State == Success && e.Type == PaymentLinkIssued:
		if !m.isHotel() {
			return m, guard(m, e, "payment is hotel only")
		}
		next.State = Payment

	case m.State == Success && e.Type == Finalize:
		if m.isHotel() {
			return m, guard(m, e, "hotel repricing ends in payment")
		}
		next.State = Finalized

	default:
		return m, guard(m, e, "")
	}
	return next, nil
}

func guard(m Machine, e Event, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: %s in %s", ErrGuard, e.Type, m.State)
	}
	return fmt.Errorf("%w: %s in %s: %s", ErrGuard, e.Type, m.State, reason)
}
