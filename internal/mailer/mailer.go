package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Mailer sends transactional mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	// Configured reports whether the mailer can actually send.
	Configured() bool
	// SendVerificationEmail mails a signup confirmation link.
	SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error
	// SendInviteEmail mails an invitation link for an admin-created account.
	SendInviteEmail(ctx context.Context, toEmail, toName, token string) error
}

const sendgridMailSendURL = "https://api.sendgrid.com/v3/mail/send"

// SendgridMailer delivers mail through the SendGrid v3 REST API.
type SendgridMailer struct {
	apiKey      string
	fromEmail   string
	fromName    string
	appName     string
	frontendURL string

	// baseURL 仅测试时覆盖
	baseURL    string
	httpClient *http.Client
}

type SendgridOptions struct {
	APIKey      string
	FromEmail   string
	FromName    string
	AppName     string
	FrontendURL string
}

func NewSendgridMailer(opts SendgridOptions) *SendgridMailer {
	return &SendgridMailer{
		apiKey:      opts.APIKey,
		fromEmail:   opts.FromEmail,
		fromName:    opts.FromName,
		appName:     opts.AppName,
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		baseURL:     sendgridMailSendURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *SendgridMailer) Configured() bool {
	return m != nil && m.apiKey != "" && m.fromEmail != ""
}

func (m *SendgridMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, url.QueryEscape(token))
	subject := fmt.Sprintf("Verify your %s account", m.appName)
	body := fmt.Sprintf("<p>Hello %s,</p><p>Welcome to %s! Please confirm your email address by opening the link below:</p><p><a href=%q>%s</a></p><p>The link expires soon, so do it while it's fresh.</p>",
		displayName(toName, toEmail), m.appName, link, link)
	return m.send(ctx, toEmail, toName, subject, body)
}

func (m *SendgridMailer) SendInviteEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/accept-invite?token=%s", m.frontendURL, url.QueryEscape(token))
	subject := fmt.Sprintf("You have been invited to %s", m.appName)
	body := fmt.Sprintf("<p>Hello %s,</p><p>An administrator created an account for you on %s. Activate it here:</p><p><a href=%q>%s</a></p>",
		displayName(toName, toEmail), m.appName, link, link)
	return m.send(ctx, toEmail, toName, subject, body)
}

// SendGrid v3 请求体结构
type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridMailRequest struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

func (m *SendgridMailer) send(ctx context.Context, toEmail, toName, subject, body string) error {
	if !m.Configured() {
		return fmt.Errorf("sendgrid mailer is not configured")
	}

	payload := sendgridMailRequest{
		Personalizations: []sendgridPersonalization{{To: []sendgridAddress{{Email: toEmail, Name: toName}}}},
		From:             sendgridAddress{Email: m.fromEmail, Name: m.fromName},
		Subject:          subject,
		Content:          []sendgridContent{{Type: "text/html", Value: body}},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"to":     toEmail,
		}).Warn("sendgrid rejected mail request")
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

func displayName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return email
}
