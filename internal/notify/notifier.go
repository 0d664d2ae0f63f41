// Package notify sends the transactional emails triggered by booking
// workflow events. A Notifier maps a booking onto a template's named
// parameters; a Provider delivers the resulting Message.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pkordes/villa-admin/internal/domain"
)

// Message is one template dispatch.
// To is the intended recipient; providers that address recipients from the
// template itself (EmailJS) ignore it.
type Message struct {
	Template string
	To       string
	Params   map[string]string
}

// Provider delivers a Message through an external email service.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// Templates holds the provider-side template identifiers.
type Templates struct {
	AdminNewBooking    string
	ClientConfirmation string
	ClientRejection    string
}

// errNoTemplate is wrapped in a DeliveryError when a template identifier was
// never configured.
var errNoTemplate = errors.New("template identifier not configured")

// Notifier renders booking emails and hands them to a Provider.
// It does not retry; a failed dispatch is reported once as
// *domain.DeliveryError.
type Notifier struct {
	provider   Provider
	templates  Templates
	adminEmail string
}

// New constructs a Notifier. adminEmail is the recipient of new-booking
// alerts.
func New(p Provider, t Templates, adminEmail string) *Notifier {
	return &Notifier{provider: p, templates: t, adminEmail: adminEmail}
}

// NotifyConfirmation tells the guest their booking was confirmed.
func (n *Notifier) NotifyConfirmation(ctx context.Context, b domain.Booking) error {
	return n.send(ctx, Message{
		Template: n.templates.ClientConfirmation,
		To:       b.Email,
		Params: map[string]string{
			"client_name":   b.Name,
			"client_email":  b.Email,
			"guests":        strconv.Itoa(b.Guests),
			"checkin_date":  formatDate(b.StartDate),
			"checkout_date": formatDate(b.EndDate),
			"price":         b.Price.String(),
		},
	})
}

// NotifyRejection tells the guest their booking was declined.
func (n *Notifier) NotifyRejection(ctx context.Context, b domain.Booking) error {
	return n.send(ctx, Message{
		Template: n.templates.ClientRejection,
		To:       b.Email,
		Params: map[string]string{
			"client_name":   b.Name,
			"client_email":  b.Email,
			"checkin_date":  formatDate(b.StartDate),
			"checkout_date": formatDate(b.EndDate),
		},
	})
}

// NotifyAdminNewBooking alerts the operator that a guest submitted a booking.
func (n *Notifier) NotifyAdminNewBooking(ctx context.Context, b domain.Booking) error {
	notes := b.Notes
	if notes == "" {
		notes = "No notes"
	}
	return n.send(ctx, Message{
		Template: n.templates.AdminNewBooking,
		To:       n.adminEmail,
		Params: map[string]string{
			"client_name":   b.Name,
			"client_email":  b.Email,
			"client_phone":  b.Phone,
			"guests":        strconv.Itoa(b.Guests),
			"checkin_date":  formatDate(b.StartDate),
			"checkout_date": formatDate(b.EndDate),
			"price":         b.Price.String(),
			"notes":         notes,
		},
	})
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if msg.Template == "" {
		return &domain.DeliveryError{Template: msg.Template, Err: errNoTemplate}
	}
	if err := n.provider.Send(ctx, msg); err != nil {
		return &domain.DeliveryError{Template: msg.Template, Err: err}
	}
	return nil
}

// formatDate renders a date the way the guest-facing templates expect:
// day/month/year without zero padding.
func formatDate(d domain.Date) string {
	return fmt.Sprintf("%d/%d/%d", d.Day(), int(d.Month()), d.Year())
}
