// Package mailer hands rendered emails to SendGrid's v3 mail/send API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/unclebandit/emailcraft-backend/internal/config"
	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
)

// SendGridMailer implements the delivery contract: every attempt ends in true or false.
type SendGridMailer struct {
	config *config.SendGridConfig
	client *http.Client
}

func NewSendGridMailer(cfg *config.SendGridConfig) *SendGridMailer {
	return &SendGridMailer{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type personalization struct {
	To []address `json:"to"`
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send reports whether SendGrid accepted the message. Errors are logged, never returned.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, text, html string) bool {
	if err := m.send(ctx, to, subject, text, html); err != nil {
		log.Printf("⚠️ SendGrid email error for %s: %v", to, err)
		return false
	}
	return true
}

func (m *SendGridMailer) send(ctx context.Context, to, subject, text, html string) error {
	if m.config.APIKey == "" {
		return appErrors.NewExternal("sendgrid", fmt.Errorf("API key not configured"))
	}

	payload := mailRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: m.config.FromEmail},
		Subject:          subject,
	}
	// SendGrid requires text/plain before text/html
	if text != "" {
		payload.Content = append(payload.Content, content{Type: "text/plain", Value: text})
	}
	if html != "" {
		payload.Content = append(payload.Content, content{Type: "text/html", Value: html})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(m.config.BaseURL, "/") + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return appErrors.NewExternal("sendgrid", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return appErrors.NewExternal("sendgrid", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}
	return nil
}

// TextToHTML wraps every non-empty line of text in a paragraph.
func TextToHTML(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>")
	}
	return b.String()
}
