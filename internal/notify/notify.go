package notify

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Domenick1991/repricing/internal/domain"
)

// Notifier tells operators about repricing progress.
type Notifier struct {
	logger *log.Logger
}

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{logger: log.New(w, "[notify] ", log.LstdFlags)}
}

func (n *Notifier) Notify(ctx context.Context, event domain.RepricingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Println(Message(event))
	return nil
}

// Message renders a one-line summary of event.
func Message(event domain.RepricingEvent) string {
	var what string
	switch event.Type {
	case domain.EventHotelOTPVerified:
		what = "hotel OTP verified"
	case domain.EventApprovalInfoSubmitted:
		what = "approval info submitted"
	case domain.EventHotelApproved:
		what = "hotel repricing approved"
	case domain.EventFlightApprovalSent:
		what = "flight approval submitted"
	case domain.EventPaymentLinkIssued:
		what = "payment link issued"
	default:
		what = string(event.Type)
	}

	msg := fmt.Sprintf("repricing session %s: %s", event.RepricingSessionID, what)
	if event.CustomerID != "" {
		msg += " for customer " + event.CustomerID
	}
	if event.ImpersonatedBy != "" {
		msg += " (impersonating " + event.ImpersonatedBy + ")"
	}
	return msg
}
