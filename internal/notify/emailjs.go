package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSEndpoint is the EmailJS REST send endpoint.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJS delivers messages through the EmailJS REST API. Recipients are
// resolved by the template on the EmailJS side (usually from client_email).
type EmailJS struct {
	HTTPClient *http.Client
	Endpoint   string
	ServiceID  string
	PublicKey  string
	// PrivateKey is optional; EmailJS requires it when the account enforces
	// server-side calls.
	PrivateKey string
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts one template dispatch. Any non-2xx answer is an error carrying
// the provider's response text.
func (e EmailJS) Send(ctx context.Context, msg Message) error {
	if e.HTTPClient == nil {
		e.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if e.Endpoint == "" {
		e.Endpoint = DefaultEmailJSEndpoint
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(emailJSRequest{
		ServiceID:      e.ServiceID,
		TemplateID:     msg.Template,
		UserID:         e.PublicKey,
		AccessToken:    e.PrivateKey,
		TemplateParams: msg.Params,
	}); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if text := strings.TrimSpace(string(b)); text != "" {
			return fmt.Errorf("emailjs: status=%d body=%s", resp.StatusCode, text)
		}
		return fmt.Errorf("emailjs: status=%d", resp.StatusCode)
	}
	return nil
}
