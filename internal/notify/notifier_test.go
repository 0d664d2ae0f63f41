package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/notify"
)

// recordingProvider captures every message and returns err.
type recordingProvider struct {
	sent []notify.Message
	err  error
}

func (p *recordingProvider) Send(_ context.Context, msg notify.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

var _ notify.Provider = (*recordingProvider)(nil)

var templates = notify.Templates{
	AdminNewBooking:    "tpl_admin",
	ClientConfirmation: "tpl_confirm",
	ClientRejection:    "tpl_reject",
}

func booking() domain.Booking {
	return domain.Booking{
		ID:        "12",
		Name:      "Luca Verdi",
		Email:     "luca@example.com",
		Phone:     "+39 320 1111111",
		Guests:    3,
		StartDate: domain.NewDate(2025, time.July, 5),
		EndDate:   domain.NewDate(2025, time.July, 12),
		Price:     decimal.RequireFromString("875.5"),
		Status:    domain.StatusPending,
	}
}

func TestNotifyConfirmation_mapsFields(t *testing.T) {
	p := &recordingProvider{}
	n := notify.New(p, templates, "owner@example.com")

	require.NoError(t, n.NotifyConfirmation(context.Background(), booking()))

	require.Len(t, p.sent, 1)
	msg := p.sent[0]
	assert.Equal(t, "tpl_confirm", msg.Template)
	assert.Equal(t, "luca@example.com", msg.To)
	assert.Equal(t, map[string]string{
		"client_name":   "Luca Verdi",
		"client_email":  "luca@example.com",
		"guests":        "3",
		"checkin_date":  "5/7/2025",
		"checkout_date": "12/7/2025",
		"price":         "875.5",
	}, msg.Params)
}

func TestNotifyRejection_omitsPrice(t *testing.T) {
	p := &recordingProvider{}
	n := notify.New(p, templates, "owner@example.com")

	require.NoError(t, n.NotifyRejection(context.Background(), booking()))

	require.Len(t, p.sent, 1)
	assert.Equal(t, "tpl_reject", p.sent[0].Template)
	assert.NotContains(t, p.sent[0].Params, "price")
	assert.Equal(t, "5/7/2025", p.sent[0].Params["checkin_date"])
}

func TestNotifyAdminNewBooking_defaultsNotes(t *testing.T) {
	p := &recordingProvider{}
	n := notify.New(p, templates, "owner@example.com")

	require.NoError(t, n.NotifyAdminNewBooking(context.Background(), booking()))

	require.Len(t, p.sent, 1)
	assert.Equal(t, "owner@example.com", p.sent[0].To)
	assert.Equal(t, "No notes", p.sent[0].Params["notes"])
	assert.Equal(t, "+39 320 1111111", p.sent[0].Params["client_phone"])
}

func TestNotify_providerFailureIsDeliveryError(t *testing.T) {
	p := &recordingProvider{err: errors.New("quota exceeded")}
	n := notify.New(p, templates, "")

	err := n.NotifyConfirmation(context.Background(), booking())

	var de *domain.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tpl_confirm", de.Template)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNotify_missingTemplateIsDeliveryError(t *testing.T) {
	p := &recordingProvider{}
	n := notify.New(p, notify.Templates{ClientConfirmation: "tpl_confirm"}, "")

	err := n.NotifyRejection(context.Background(), booking())

	var de *domain.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, p.sent, "provider must not be called without a template")
}

// ---- EmailJS ---------------------------------------------------------------

func TestEmailJS_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	t.Cleanup(srv.Close)

	p := notify.EmailJS{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL,
		ServiceID:  "service_x",
		PublicKey:  "pub",
	}

	err := p.Send(context.Background(), notify.Message{Template: "tpl_confirm", Params: map[string]string{"client_name": "Luca"}})

	require.NoError(t, err)
	assert.Equal(t, "service_x", got["service_id"])
	assert.Equal(t, "tpl_confirm", got["template_id"])
	assert.Equal(t, "pub", got["user_id"])
	assert.NotContains(t, got, "accessToken")
	assert.Equal(t, map[string]any{"client_name": "Luca"}, got["template_params"])
}

func TestEmailJS_Send_providerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	t.Cleanup(srv.Close)

	p := notify.EmailJS{HTTPClient: srv.Client(), Endpoint: srv.URL}

	err := p.Send(context.Background(), notify.Message{Template: "bogus"})

	require.Error(t, err)
	assert.ErrorContains(t, err, "The template ID is invalid")
}

// ---- SES -------------------------------------------------------------------

type mockSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (m *mockSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.in = in
	return &sesv2.SendEmailOutput{}, m.err
}

var _ notify.SESAPI = (*mockSES)(nil)

func TestSES_Send(t *testing.T) {
	m := &mockSES{}
	p := &notify.SES{Client: m, From: "villa@example.com"}

	err := p.Send(context.Background(), notify.Message{
		Template: "ClientConfirmation",
		To:       "luca@example.com",
		Params:   map[string]string{"client_name": "Luca"},
	})

	require.NoError(t, err)
	require.NotNil(t, m.in)
	assert.Equal(t, "villa@example.com", *m.in.FromEmailAddress)
	assert.Equal(t, []string{"luca@example.com"}, m.in.Destination.ToAddresses)
	assert.Equal(t, "ClientConfirmation", *m.in.Content.Template.TemplateName)
	assert.JSONEq(t, `{"client_name":"Luca"}`, *m.in.Content.Template.TemplateData)
}

func TestSES_Send_noRecipient(t *testing.T) {
	m := &mockSES{}
	p := &notify.SES{Client: m, From: "villa@example.com"}

	err := p.Send(context.Background(), notify.Message{Template: "X"})

	require.Error(t, err)
	assert.Nil(t, m.in)
}
