package resend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	resendsdk "github.com/resend/resend-go/v2"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// Mailer sends email through the Resend API.
type Mailer struct {
	client *resendsdk.Client
	err    error
}

var _ ports.Mailer = (*Mailer)(nil)

// NewMailer builds a mailer from configuration. A missing key or a bad
// endpoint is reported on the first Send.
func NewMailer(cfg config.ResendConfig) *Mailer {
	if cfg.APIKey == "" {
		return &Mailer{err: fmt.Errorf("resend mailer misconfigured: missing api key")}
	}

	client := resendsdk.NewCustomClient(&http.Client{Timeout: 15 * time.Second}, cfg.APIKey)

	if cfg.Endpoint != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.Endpoint, "/") + "/")
		if err != nil {
			return &Mailer{err: fmt.Errorf("resend mailer misconfigured: endpoint: %w", err)}
		}
		client.BaseURL = base
	}

	return &Mailer{client: client}
}

// Send delivers one message and returns the provider id.
func (m *Mailer) Send(ctx context.Context, msg ports.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resendsdk.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Headers: msg.Headers,
	})
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return sent.Id, nil
}
