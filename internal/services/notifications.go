package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
)

// Mailer dispatches account emails.
type Mailer interface {
	SendVerification(ctx context.Context, user *models.User, link string)
}

// LogMailer only records the link. Used when no mail gateway is configured.
type LogMailer struct {
	Log logging.Logger
}

func (m *LogMailer) SendVerification(ctx context.Context, user *models.User, link string) {
	m.Log.Info(ctx, "verification email (not sent, no gateway)", "email", user.Email, "link", link)
}

// WebhookMailer posts messages as JSON to an HTTP mail gateway.
type WebhookMailer struct {
	URL    string
	Client *http.Client
	Log    logging.Logger
}

func NewWebhookMailer(url string, log logging.Logger) *WebhookMailer {
	return &WebhookMailer{URL: url, Client: &http.Client{Timeout: 10 * time.Second}, Log: log}
}

type mailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m *WebhookMailer) SendVerification(ctx context.Context, user *models.User, link string) {
	msg := mailMessage{
		To:      user.Email,
		Subject: "Verifica tu correo - aguApp",
		Body: fmt.Sprintf(
			"Hola %s,\n\nConfirma tu cuenta abriendo este enlace:\n%s\n",
			user.Name(), link,
		),
	}

	// Send in a goroutine so it doesn't block the API response.
	go m.post(context.WithoutCancel(ctx), msg)
}

func (m *WebhookMailer) post(ctx context.Context, msg mailMessage) {
	if err := m.Deliver(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		m.Log.Error(ctx, "failed to send email", "to", msg.To, "err", err)
		return
	}
	m.Log.Info(ctx, "email sent", "to", msg.To)
}

// Deliver performs the gateway request synchronously.
func (m *WebhookMailer) Deliver(ctx context.Context, to, subject, body string) error {
	postBody, err := json.Marshal(mailMessage{To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(postBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("mail gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail gateway returned %s", resp.Status)
	}
	return nil
}
