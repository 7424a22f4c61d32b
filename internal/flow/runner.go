package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
)

// Gateway is the slice of this app's HTTP API the repricing flow calls.
type Gateway interface {
	UpdateProfile(ctx context.Context, auth gateway.Auth, profile domain.Profile) error
	SendHotelOTP(ctx context.Context, repricingSessionID string) (string, error)
	VerifyHotelOTP(ctx context.Context, repricingSessionID, code string) error
	ApproveHotel(ctx context.Context, auth gateway.Auth, repricingSessionID string) error
	SubmitFlightApproval(ctx context.Context, auth gateway.Auth, repricingSessionID, citizenship string) error
	PaymentLink(ctx context.Context, auth gateway.Auth, repricingSessionID, redirectURL string) (string, error)
}

type Identity interface {
	Credentials(ctx context.Context) (gateway.Auth, error)
}

// ActionError is a failed flow step. Message is what the user is shown.
type ActionError struct {
	Action  string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Runner walks one trip through the repricing flow. Each step calls the
// gateway first and only advances the machine when the call succeeded.
type Runner struct {
	gateway  Gateway
	identity Identity

	mu      sync.Mutex
	machine Machine
}

func NewRunner(gw Gateway, identity Identity, booking domain.Booking) *Runner {
	return &Runner{gateway: gw, identity: identity, machine: NewMachine(booking)}
}

func (r *Runner) Machine() Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine
}

func (r *Runner) State() State {
	return r.Machine().State
}

// ConfirmProfile saves the profile and leaves ConfirmUserInfo.
func (r *Runner) ConfirmProfile(ctx context.Context, profile domain.Profile) error {
	if err := r.check(Event{Type: ProfileConfirmed, Profile: profile}); err != nil {
		return err
	}
	auth, err := r.identity.Credentials(ctx)
	if err != nil {
		return err
	}
	if err := r.gateway.UpdateProfile(ctx, auth, profile); err != nil {
		return failure("update user information", err)
	}
	return r.apply(Event{Type: ProfileConfirmed, Profile: profile})
}

// SendOTP asks the upstream to text a code to the booking's phone and returns the masked number.
func (r *Runner) SendOTP(ctx context.Context) (string, error) {
	m := r.Machine()
	if m.State != VerifyOTP {
		return "", fmt.Errorf("%w: send otp in %s", ErrGuard, m.State)
	}
	masked, err := r.gateway.SendHotelOTP(ctx, m.RepricingSessionID)
	if err != nil {
		return "", failure("send OTP", err)
	}
	return masked, nil
}

func (r *Runner) VerifyOTP(ctx context.Context, code string) error {
	m := r.Machine()
	event := Event{Type: OTPVerified, RepricingSessionID: m.RepricingSessionID}
	if err := r.check(event); err != nil {
		return err
	}
	if err := r.gateway.VerifyHotelOTP(ctx, m.RepricingSessionID, code); err != nil {
		return failure("verify OTP", err)
	}
	return r.apply(event)
}

func (r *Runner) EditDetails() error {
	return r.apply(Event{Type: EditDetails})
}

func (r *Runner) SaveDetails() error {
	return r.apply(Event{Type: DetailsSaved})
}

func (r *Runner) Back() error {
	return r.apply(Event{Type: Back})
}

// Approve confirms the repricing. Hotels call the approval endpoint; flights
// submit the traveller's citizenship.
func (r *Runner) Approve(ctx context.Context, citizenship string) error {
	if err := r.check(Event{Type: Approved}); err != nil {
		return err
	}
	auth, err := r.identity.Credentials(ctx)
	if err != nil {
		return err
	}

	m := r.Machine()
	if m.isHotel() {
		err = r.gateway.ApproveHotel(ctx, auth, m.RepricingSessionID)
	} else {
		err = r.gateway.SubmitFlightApproval(ctx, auth, m.RepricingSessionID, citizenship)
	}
	if err != nil {
		return failure("approve repricing", err)
	}
	return r.apply(Event{Type: Approved})
}

// RequestPaymentLink moves a hotel from Success to Payment and returns the link.
// An already-paid session is rejected upstream and the state stays put.
func (r *Runner) RequestPaymentLink(ctx context.Context, redirectURL string) (string, error) {
	if err := r.check(Event{Type: PaymentLinkIssued}); err != nil {
		return "", err
	}
	auth, err := r.identity.Credentials(ctx)
	if err != nil {
		return "", err
	}
	link, err := r.gateway.PaymentLink(ctx, auth, r.Machine().RepricingSessionID, redirectURL)
	if err != nil {
		return "", failure("generate payment link", err)
	}
	return link, r.apply(Event{Type: PaymentLinkIssued})
}

func (r *Runner) Finalize() error {
	return r.apply(Event{Type: Finalize})
}

// check reports whether e would be accepted now, without applying it.
func (r *Runner) check(e Event) error {
	_, err := Transition(r.Machine(), e)
	return err
}

func (r *Runner) apply(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := Transition(r.machine, e)
	if err != nil {
		return err
	}
	r.machine = next
	return nil
}

// failure keeps the upstream message when there is one.
func failure(action string, err error) error {
	log.Printf("[flow] %s: %v", action, err)

	msg := "Failed to " + action
	var ue *gateway.UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		msg = ue.Message
	}
	if errors.Is(err, gateway.ErrTimeout) {
		msg = "Upstream timeout"
	}
	return &ActionError{Action: action, Message: msg, Err: err}
}
