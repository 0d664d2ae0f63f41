package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/villa-admin/internal/domain"
)

// BookingWriter applies booking changes on the remote API.
type BookingWriter interface {
	UpdateBooking(ctx context.Context, b domain.Booking) error
	DeleteBooking(ctx context.Context, id domain.BookingID) error
}

// GuestNotifier emails the guest about a status change.
type GuestNotifier interface {
	NotifyConfirmation(ctx context.Context, b domain.Booking) error
	NotifyRejection(ctx context.Context, b domain.Booking) error
}

// Fallback messages used when the remote API rejects a change without
// saying why.
const (
	msgUpdateFailed = "unable to update booking"
	msgDeleteFailed = "unable to delete booking"
)

// Workflow runs booking status transitions and deletions for one operator
// session. Every step is sequential: the remote update must succeed before
// any email is attempted, and the store is reloaded only after the update
// has resolved.
//
// There is no terminal state. Re-confirming a cancelled booking or
// cancelling a confirmed one is an operator override and goes through the
// same steps as any other transition.
type Workflow struct {
	writer   BookingWriter
	notifier GuestNotifier
	store    *BookingStore
	log      *slog.Logger
}

// NewWorkflow constructs a Workflow over the given store.
func NewWorkflow(w BookingWriter, n GuestNotifier, store *BookingStore, log *slog.Logger) *Workflow {
	return &Workflow{writer: w, notifier: n, store: store, log: log}
}

// TransitionResult describes a transition whose remote update succeeded.
// NotifyErr and ReloadErr record the non-fatal follow-up failures.
type TransitionResult struct {
	Booking   domain.Booking
	NotifyErr error
	ReloadErr error
}

// Notified reports whether the guest email went out.
func (r TransitionResult) Notified() bool {
	return r.NotifyErr == nil
}

// Message is the report shown to the operator.
func (r TransitionResult) Message() string {
	if r.NotifyErr != nil {
		return "Booking updated, but the notification email could not be sent."
	}
	switch r.Booking.Status {
	case domain.StatusConfirmed:
		return "Booking confirmed. Confirmation email sent to the guest."
	case domain.StatusCancelled:
		return "Booking rejected. Rejection email sent to the guest."
	default:
		return "Booking updated."
	}
}

// Transition moves booking id to target (confirmed or cancelled).
//
//  1. The booking must be in the current snapshot, else domain.ErrNotFound
//     and no remote call is made.
//  2. The full record with the new status is sent to the remote API. A
//     rejection stops here: no email, no reload.
//  3. The guest is emailed. A failure is recorded in the result, never
//     returned as the error.
//  4. The store is reloaded.
func (w *Workflow) Transition(ctx context.Context, id domain.BookingID, target domain.Status) (TransitionResult, error) {
	if target != domain.StatusConfirmed && target != domain.StatusCancelled {
		return TransitionResult{}, fmt.Errorf("service.Workflow.Transition: %w: cannot transition to %q", domain.ErrValidation, target)
	}

	current, ok := w.store.Find(id)
	if !ok {
		return TransitionResult{}, fmt.Errorf("service.Workflow.Transition: booking %s: %w", id, domain.ErrNotFound)
	}

	updated := current.WithStatus(target)
	if err := w.writer.UpdateBooking(ctx, updated); err != nil {
		return TransitionResult{}, fmt.Errorf("service.Workflow.Transition: %w", withFallback(err, msgUpdateFailed))
	}
	if current.Status != domain.StatusPending && current.Status != target {
		w.log.InfoContext(ctx, "operator override of booking status", "booking_id", id, "from", current.Status, "to", target)
	}

	res := TransitionResult{Booking: updated}

	switch target {
	case domain.StatusConfirmed:
		res.NotifyErr = w.notifier.NotifyConfirmation(ctx, updated)
	case domain.StatusCancelled:
		res.NotifyErr = w.notifier.NotifyRejection(ctx, updated)
	}
	if res.NotifyErr != nil {
		w.log.WarnContext(ctx, "booking updated but guest notification failed",
			"booking_id", id, "status", target, "error", res.NotifyErr)
	}

	res.ReloadErr = w.store.Reload(ctx)
	return res, nil
}

// RemoveResult describes a deletion the remote API accepted.
type RemoveResult struct {
	ID        domain.BookingID
	ReloadErr error
}

// Message is the report shown to the operator.
func (r RemoveResult) Message() string {
	return "Booking deleted."
}

// Remove deletes booking id. confirmed must carry the operator's explicit
// confirmation; without it domain.ErrConfirmationRequired is returned and
// nothing is sent. No email is sent for deletions.
func (w *Workflow) Remove(ctx context.Context, id domain.BookingID, confirmed bool) (RemoveResult, error) {
	if !confirmed {
		return RemoveResult{}, fmt.Errorf("service.Workflow.Remove: %w", domain.ErrConfirmationRequired)
	}

	if err := w.writer.DeleteBooking(ctx, id); err != nil {
		var rej *domain.ServerRejection
		if errors.As(err, &rej) {
			err = &domain.ServerRejection{StatusCode: rej.StatusCode, Message: msgDeleteFailed}
		}
		return RemoveResult{}, fmt.Errorf("service.Workflow.Remove: %w", err)
	}

	return RemoveResult{ID: id, ReloadErr: w.store.Reload(ctx)}, nil
}

// withFallback fills in msg when err is a ServerRejection without a message.
func withFallback(err error, msg string) error {
	var rej *domain.ServerRejection
	if errors.As(err, &rej) && rej.Message == "" {
		return &domain.ServerRejection{StatusCode: rej.StatusCode, Message: msg}
	}
	return err
}
